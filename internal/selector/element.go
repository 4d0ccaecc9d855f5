// internal/selector/element.go
package selector

// Element is the read-only view of a document element that the synthesizer walks.
//
// Parent must return an untyped nil at the top of the tree, and
// implementations must be comparable with == so an element can be located
// among its parent's children.
type Element interface {
	TagName() string
	ID() string
	Classes() []string
	Parent() Element
	Children() []Element
}

// positioner is implemented by elements that can report their own
// 1-based position and sibling count without materializing Children().
type positioner interface {
	Position() (index, total int)
}

// position returns the 1-based index of el among all of parent's element
// children and the number of those children. An element missing from its
// parent's children reports index 0.
func position(el, parent Element) (index, total int) {
	if p, ok := el.(positioner); ok {
		return p.Position()
	}
	siblings := parent.Children()
	for i, s := range siblings {
		if s == el {
			index = i + 1
			break
		}
	}
	return index, len(siblings)
}
