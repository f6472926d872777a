package wire

import (
	"slices"
	"strings"
)

// A Node is an XML element.
//
// A Node with one or more Children has no text content, and its Text
// field is ignored.
type Node struct {
	// Name is the element's tag name.
	Name string
	// Text is the element's character data, when it has no children.
	Text string
	// Children are the node's child elements, in document order.
	Children []*Node
}

// Elem returns a new Node with the given name and children.
func Elem(name string, children ...*Node) *Node {
	return &Node{
		Name:     name,
		Children: children,
	}
}

// Text returns a new Node with the given name and text content.
func Text(name, text string) *Node {
	return &Node{
		Name: name,
		Text: text,
	}
}

// Content returns the node's text content. ok is false if the node
// has child elements, and therefore no text content. An element with
// neither text nor children has empty, but present, content.
func (n *Node) Content() (text string, ok bool) {
	if n == nil || len(n.Children) > 0 {
		return "", false
	}
	return n.Text, true
}

// HasStrayText reports whether n has no child elements, but does
// have non-whitespace text. Container elements use this to tell an
// empty container apart from one holding unexpected text.
func (n *Node) HasStrayText() bool {
	return len(n.Children) == 0 && strings.TrimSpace(n.Text) != ""
}

// SingleChild returns the node's only child. ok is false if the node
// does not have exactly one child.
func (n *Node) SingleChild() (child *Node, ok bool) {
	if n == nil || len(n.Children) != 1 {
		return nil, false
	}
	return n.Children[0], true
}

// SingleChildNamed returns the node's only child, if that child is
// named name. ok is false if the node does not have exactly one
// child, or if the child has a different name.
func (n *Node) SingleChildNamed(name string) (child *Node, ok bool) {
	child, ok = n.SingleChild()
	if !ok || child.Name != name {
		return nil, false
	}
	return child, true
}

// ChildPair returns the node's two children, if the node has exactly
// two children named first and second, in that order.
func (n *Node) ChildPair(first, second string) (a, b *Node, ok bool) {
	if n == nil || len(n.Children) != 2 {
		return nil, nil, false
	}
	a, b = n.Children[0], n.Children[1]
	if a.Name != first || b.Name != second {
		return nil, nil, false
	}
	return a, b, true
}

// Equal reports whether a and b are structurally identical trees.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name || len(a.Children) != len(b.Children) {
		return false
	}
	if len(a.Children) == 0 {
		return a.Text == b.Text
	}
	return slices.EqualFunc(a.Children, b.Children, Equal)
}

// Equal reports whether n and o are structurally identical trees.
func (n *Node) Equal(o *Node) bool {
	return Equal(n, o)
}

// String returns the compact XML encoding of n.
func (n *Node) String() string {
	var ret strings.Builder
	if err := Encode(&ret, n, ""); err != nil {
		return "<!-- " + err.Error() + " -->"
	}
	return ret.String()
}
