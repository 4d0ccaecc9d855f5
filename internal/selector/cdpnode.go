// internal/selector/cdpnode.go
package selector

import (
	"strings"

	"github.com/chromedp/cdproto/cdp"
)

// FromCDP converts a DevTools DOM snapshot, as returned by DOM.getDocument
// with depth -1, into a Node tree and returns every element keyed by its
// DevTools node id.
//
// Only element nodes are kept. Elements whose parent is not an element
// (the document element, or a detached subtree root) have no parent.
// Shadow roots, template contents and frame documents are not descended
// into: their elements have no parentElement in the page either and a
// document-level click never targets them.
func FromCDP(root *cdp.Node) map[cdp.NodeID]*Node {
	index := make(map[cdp.NodeID]*Node)
	convertCDP(root, nil, index)
	return index
}

func convertCDP(n *cdp.Node, parent *Node, index map[cdp.NodeID]*Node) {
	if n == nil {
		return
	}
	if n.NodeType != cdp.NodeTypeElement {
		// Documents and fragments pass through without becoming a parent.
		if n.NodeType == cdp.NodeTypeDocument || n.NodeType == cdp.NodeTypeDocumentFragment {
			for _, c := range n.Children {
				convertCDP(c, nil, index)
			}
		}
		return
	}

	el := &Node{
		Tag:       strings.ToLower(cdpTag(n)),
		Ident:     n.AttributeValue("id"),
		ClassList: strings.Fields(n.AttributeValue("class")),
	}
	if parent != nil {
		parent.AppendChild(el)
	}
	index[n.NodeID] = el

	for _, c := range n.Children {
		convertCDP(c, el, index)
	}
}

func cdpTag(n *cdp.Node) string {
	if n.LocalName != "" {
		return n.LocalName
	}
	return n.NodeName
}
