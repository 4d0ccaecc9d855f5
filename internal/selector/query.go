// internal/selector/query.go
package selector

import (
	"errors"
	"fmt"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// ErrInvalidSelector is returned when a CSS selector or XPath expression
// cannot be compiled.
var ErrInvalidSelector = errors.New("invalid selector")

// Query picks target elements in a parsed document. Exactly one of CSS or
// XPath is expected to be set.
type Query struct {
	CSS   string
	XPath string
}

// Find returns the element nodes in doc matched by q, in document order.
func (q Query) Find(doc *html.Node) ([]*html.Node, error) {
	switch {
	case q.CSS != "" && q.XPath != "":
		return nil, fmt.Errorf("%w: css and xpath are mutually exclusive", ErrInvalidSelector)
	case q.CSS != "":
		sel, err := cascadia.Compile(q.CSS)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidSelector, q.CSS, err)
		}
		return sel.MatchAll(doc), nil
	case q.XPath != "":
		return findXPath(doc, q.XPath)
	default:
		return nil, fmt.Errorf("%w: a css or xpath query is required", ErrInvalidSelector)
	}
}

// findXPath evaluates expr over doc. Attribute results resolve to the
// element that owns the attribute and text results to their parent
// element. Each element is returned once.
func findXPath(doc *html.Node, expr string) ([]*html.Node, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSelector, expr, err)
	}

	var out []*html.Node
	seen := make(map[*html.Node]bool)
	iter := compiled.Select(htmlquery.CreateXPathNavigator(doc))
	for iter.MoveNext() {
		nav, ok := iter.Current().Copy().(*htmlquery.NodeNavigator)
		if !ok {
			continue
		}
		// htmlquery reports attributes as synthetic nodes with no parent;
		// step back to the owning element instead.
		if nav.NodeType() == xpath.AttributeNode && !nav.MoveToParent() {
			continue
		}
		n := nav.Current()
		for n != nil && n.Type != html.ElementNode {
			n = n.Parent
		}
		if n != nil && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out, nil
}

// Verify counts the elements of doc matched by a synthesized selector.
// Selectors are not anchored at body, so a count above one is possible for
// shallow paths; unescaped identifiers or class names make the selector
// fail to compile and are reported as ErrInvalidSelector.
func Verify(doc *html.Node, selector string) (int, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrInvalidSelector, selector, err)
	}
	return len(sel.MatchAll(doc)), nil
}
