package node

import (
	"errors"
	"fmt"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Separator splits a path into segments
const Separator = "/"

var (
	// ErrPathNotFound is returned when a path does not resolve
	ErrPathNotFound = errors.New("path not found")
	// ErrTypeMismatch is returned when an operation does not apply to
	// the kind or value of its target, such as incrementing a string.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrParentOperation is returned when an operation that restructures
	// the parent, such as delete, is applied to the node itself.
	ErrParentOperation = errors.New("operation must be applied through the parent")
)

// Kind classifies a node
type Kind int

const (
	// Container nodes hold named children
	Container Kind = iota
	// Leaf nodes hold one value
	Leaf
)

func (kind Kind) String() string {
	switch kind {
	case Container:
		return "container"
	case Leaf:
		return "leaf"
	}

	return fmt.Sprintf("Kind(%d)", int(kind))
}

// Node is one point in the namespace tree. A node exclusively owns its
// children. The parent reference is only used to compute depth and path.
type Node struct {
	name     string
	parent   *Node
	kind     Kind
	children *linkedhashmap.Map
	value    []byte
}

// New creates an empty, parentless container
func New(name string) *Node {
	return &Node{name: name, kind: Container, children: linkedhashmap.New()}
}

// SplitPath splits a path into its non-empty segments. "/", "" and
// "//" all address the node the walk starts from.
func SplitPath(path string) []string {
	segments := []string{}

	for _, segment := range strings.Split(path, Separator) {
		if segment != "" {
			segments = append(segments, segment)
		}
	}

	return segments
}

// JoinPath is the inverse of SplitPath
func JoinPath(segments []string) string {
	return Separator + strings.Join(segments, Separator)
}

// Name returns the segment this node occupies in its parent
func (n *Node) Name() string {
	return n.name
}

// Kind returns the node kind
func (n *Node) Kind() Kind {
	return n.kind
}

// Parent returns the parent node or nil for a root or detached node
func (n *Node) Parent() *Node {
	return n.parent
}

// IsEmpty reports whether n is a container without children
func (n *Node) IsEmpty() bool {
	return n.kind == Container && n.children.Size() == 0
}

// Len returns the number of children
func (n *Node) Len() int {
	return n.children.Size()
}

// Child returns the child with this name
func (n *Node) Child(name string) (*Node, bool) {
	if n.kind != Container {
		return nil, false
	}

	child, ok := n.children.Get(name)

	if !ok {
		return nil, false
	}

	return child.(*Node), true
}

// Children returns the children in insertion order
func (n *Node) Children() []*Node {
	children := make([]*Node, 0, n.children.Size())
	it := n.children.Iterator()

	for it.Next() {
		children = append(children, it.Value().(*Node))
	}

	return children
}

// ChildNames returns the child names in insertion order
func (n *Node) ChildNames() []string {
	names := make([]string, 0, n.children.Size())
	it := n.children.Iterator()

	for it.Next() {
		names = append(names, it.Key().(string))
	}

	return names
}

// ChildOrCreate returns the child with this name, creating an empty
// container if it does not exist. A leaf is turned into an empty
// container before the child is added.
func (n *Node) ChildOrCreate(name string) *Node {
	if n.kind == Leaf {
		n.clear()
	}

	if child, ok := n.Child(name); ok {
		return child
	}

	child := New(name)
	child.parent = n
	n.children.Put(name, child)

	return child
}

// ResolveForWrite walks path from n, creating every missing node along
// the way, and returns the terminal node. It never fails.
func (n *Node) ResolveForWrite(path string) *Node {
	current := n

	for _, segment := range SplitPath(path) {
		current = current.ChildOrCreate(segment)
	}

	return current
}

// ResolveForRead walks path from n without creating anything. It returns
// ErrPathNotFound naming the first prefix of path that is missing.
func (n *Node) ResolveForRead(path string) (*Node, error) {
	return n.Lookup(SplitPath(path))
}

// Lookup is ResolveForRead for a path that is already split
func (n *Node) Lookup(segments []string) (*Node, error) {
	current := n

	for i, segment := range segments {
		child, ok := current.Child(segment)

		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, JoinPath(segments[:i+1]))
		}

		current = child
	}

	return current, nil
}

// Deepest returns the deepest existing node along segments and the
// number of segments it took to reach it.
func (n *Node) Deepest(segments []string) (*Node, int) {
	current := n

	for i, segment := range segments {
		child, ok := current.Child(segment)

		if !ok {
			return current, i
		}

		current = child
	}

	return current, len(segments)
}

// RemoveChild detaches the child with this name and returns it
func (n *Node) RemoveChild(name string) (*Node, bool) {
	child, ok := n.Child(name)

	if !ok {
		return nil, false
	}

	n.children.Remove(name)
	child.parent = nil

	return child, true
}

// Attach adds a detached node as a child of n under its own name and
// then orders the children by order. Children not named in order keep
// their relative order after the named ones.
func (n *Node) Attach(child *Node, order []string) error {
	if n.kind != Container {
		return fmt.Errorf("%w: cannot attach %q to a leaf", ErrTypeMismatch, child.name)
	}

	n.RemoveChild(child.name)
	child.parent = n
	n.children.Put(child.name, child)
	n.Reorder(order)

	return nil
}

// Reorder rearranges the children so that the names in order come
// first, in that order.
func (n *Node) Reorder(order []string) {
	children := linkedhashmap.New()

	for _, name := range order {
		if child, ok := n.children.Get(name); ok {
			children.Put(name, child)
		}
	}

	it := n.children.Iterator()

	for it.Next() {
		if _, ok := children.Get(it.Key()); !ok {
			children.Put(it.Key(), it.Value())
		}
	}

	n.children = children
}

// Depth returns the number of parent hops to the root
func (n *Node) Depth() int {
	depth := 0

	for p := n.parent; p != nil; p = p.parent {
		depth++
	}

	return depth
}

// Path returns the absolute path of n computed from its ancestry
func (n *Node) Path() string {
	segments := []string{}

	for current := n; current.parent != nil; current = current.parent {
		segments = append([]string{current.name}, segments...)
	}

	return JoinPath(segments)
}

// Value returns a copy of the encoded leaf value or nil for a container
func (n *Node) Value() []byte {
	if n.kind != Leaf {
		return nil
	}

	return append([]byte(nil), n.value...)
}

// clear drops children and value, leaving an empty container.
// Dropped children are detached first.
func (n *Node) clear() {
	it := n.children.Iterator()

	for it.Next() {
		it.Value().(*Node).parent = nil
	}

	n.children = linkedhashmap.New()
	n.kind = Container
	n.value = nil
}
