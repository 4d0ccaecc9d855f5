// internal/selector/htmlnode.go
package selector

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// HTMLElement adapts an element node of a parsed golang.org/x/net/html tree.
type HTMLElement struct {
	node *html.Node
}

// FromHTML wraps n. It returns nil unless n is an element node.
func FromHTML(n *html.Node) Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	return HTMLElement{node: n}
}

// Node returns the wrapped html node.
func (e HTMLElement) Node() *html.Node { return e.node }

func (e HTMLElement) TagName() string { return e.node.Data }

func (e HTMLElement) ID() string { return htmlquery.SelectAttr(e.node, "id") }

// Classes splits the class attribute on whitespace, keeping order and duplicates.
func (e HTMLElement) Classes() []string {
	return strings.Fields(htmlquery.SelectAttr(e.node, "class"))
}

// Parent returns the parent element, or nil when the parent is the
// document or missing.
func (e HTMLElement) Parent() Element {
	return FromHTML(e.node.Parent)
}

func (e HTMLElement) Children() []Element {
	var out []Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, HTMLElement{node: c})
		}
	}
	return out
}

// Position counts element siblings in place.
func (e HTMLElement) Position() (index, total int) {
	p := e.node.Parent
	if p == nil {
		return 0, 0
	}
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		total++
		if c == e.node {
			index = total
		}
	}
	return index, total
}

// SynthesizeHTML is Synthesize for a parsed html node. Non-element nodes
// such as text are resolved to their closest element ancestor, the way a
// click on text targets the enclosing element.
func SynthesizeHTML(n *html.Node) string {
	for n != nil && n.Type != html.ElementNode {
		n = n.Parent
	}
	return Synthesize(FromHTML(n))
}
