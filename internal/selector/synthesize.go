// internal/selector/synthesize.go
package selector

import (
	"strconv"
	"strings"
)

// Combinator joins two path segments.
const Combinator = " > "

const bodyTag = "body"

// Synthesize returns a CSS selector string addressing el.
//
// The walk goes from el towards the root. The body element ends the walk
// and never appears in the path. An element with a non-empty id is emitted
// as "#id" and ends the walk as well, so an id on an ancestor becomes the
// leftmost segment of a descendant's path. Every other element contributes
// "tag.class1.class2" with ":nth-child(k)" appended whenever its parent
// has more than one element child. k counts all element siblings, not only
// those sharing the tag, so this is not :nth-of-type.
//
// Identifiers and class names are not escaped. Inputs needing CSS escaping
// produce strings that a CSS engine may reject.
//
// Synthesize returns "" for the body element and for a nil element.
func Synthesize(el Element) string {
	if el == nil || isBody(el) {
		return ""
	}
	if id := el.ID(); id != "" {
		return "#" + id
	}

	seg := segment(el)

	parent := el.Parent()
	if parent == nil {
		return seg
	}
	if idx, total := position(el, parent); total > 1 {
		seg += ":nth-child(" + strconv.Itoa(idx) + ")"
	}

	if up := Synthesize(parent); up != "" {
		return up + Combinator + seg
	}
	return seg
}

// segment renders the tag and class part of a path segment.
func segment(el Element) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(el.TagName()))
	if classes := el.Classes(); len(classes) > 0 {
		b.WriteByte('.')
		b.WriteString(strings.Join(classes, "."))
	}
	return b.String()
}

func isBody(el Element) bool {
	return strings.EqualFold(el.TagName(), bodyTag)
}

// Depth reports the number of segments in a selector produced by Synthesize.
func Depth(selector string) int {
	if selector == "" {
		return 0
	}
	return strings.Count(selector, Combinator) + 1
}
