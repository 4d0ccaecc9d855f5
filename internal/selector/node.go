// internal/selector/node.go
package selector

// Node is a plain in-memory element. It backs trees converted from DevTools
// snapshots and is convenient for building trees by hand.
type Node struct {
	Tag       string
	Ident     string
	ClassList []string

	parent   *Node
	children []*Node
}

// NewNode creates a detached element with the given tag and classes.
func NewNode(tag string, classes ...string) *Node {
	return &Node{Tag: tag, ClassList: classes}
}

// WithID sets the identifier and returns n for chaining.
func (n *Node) WithID(id string) *Node {
	n.Ident = id
	return n
}

// AppendChild attaches children to n in order and returns n. A child that
// already has a parent is moved.
func (n *Node) AppendChild(children ...*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		if c.parent != nil {
			c.parent.removeChild(c)
		}
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

// Remove detaches n from its parent, if any.
func (n *Node) Remove() {
	if n.parent != nil {
		n.parent.removeChild(n)
		n.parent = nil
	}
}

func (n *Node) removeChild(c *Node) {
	for i, existing := range n.children {
		if existing == c {
			n.children = append(n.children[:i:i], n.children[i+1:]...)
			return
		}
	}
}

func (n *Node) TagName() string   { return n.Tag }
func (n *Node) ID() string        { return n.Ident }
func (n *Node) Classes() []string { return n.ClassList }

// Parent implements Element.
func (n *Node) Parent() Element {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Children implements Element.
func (n *Node) Children() []Element {
	out := make([]Element, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

// ParentNode returns the parent as a *Node.
func (n *Node) ParentNode() *Node { return n.parent }

// ChildNodes returns the children as *Node values. The slice must not be modified.
func (n *Node) ChildNodes() []*Node { return n.children }

// Position implements positioner.
func (n *Node) Position() (index, total int) {
	if n.parent == nil {
		return 0, 0
	}
	for i, c := range n.parent.children {
		if c == n {
			return i + 1, len(n.parent.children)
		}
	}
	return 0, len(n.parent.children)
}
