package node

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/jrife/agency/protocol"
	"github.com/segmentio/encoding/json"
)

// AssignValue assigns any value: objects through AssignStructured,
// everything else through AssignScalar.
func (n *Node) AssignValue(v interface{}) error {
	value, err := protocol.Normalize(v)

	if err != nil {
		return err
	}

	if object, ok := value.(protocol.Object); ok {
		return n.AssignStructured(object)
	}

	return n.AssignScalar(value)
}

// AssignScalar turns n into a leaf holding v, discarding any
// children or previous value. Arrays are scalars; objects are not.
func (n *Node) AssignScalar(v interface{}) error {
	value, err := protocol.Normalize(v)

	if err != nil {
		return err
	}

	if _, ok := value.(protocol.Object); ok {
		return fmt.Errorf("%w: an object is not a scalar", ErrTypeMismatch)
	}

	encoded, err := protocol.Encode(value)

	if err != nil {
		return err
	}

	n.setLeaf(encoded)

	return nil
}

func (n *Node) setLeaf(encoded []byte) {
	n.clear()
	n.kind = Leaf
	n.value = encoded
}

// AssignStructured turns n into a container with one child per member
// of object. The previous children are replaced, not merged. n is left
// untouched if any member cannot be assigned. Member keys must be usable
// as path segments: non-empty and free of the separator.
func (n *Node) AssignStructured(object protocol.Object) error {
	children := linkedhashmap.New()

	for _, member := range object {
		if member.Key == "" || strings.Contains(member.Key, Separator) {
			return fmt.Errorf("%w: %q is not a valid path segment", protocol.ErrMalformedOperation, member.Key)
		}

		child := New(member.Key)

		if err := child.AssignValue(member.Value); err != nil {
			return fmt.Errorf("could not assign %q: %w", member.Key, err)
		}

		children.Put(member.Key, child)
	}

	n.clear()
	n.children = children
	it := children.Iterator()

	for it.Next() {
		it.Value().(*Node).parent = n
	}

	return nil
}

// AssignFrom makes n a deep copy of other. n keeps its own name and parent
// so that it stays addressable under the same key.
func (n *Node) AssignFrom(other *Node) {
	if other == n {
		return
	}

	n.Restore(other.Clone())
}

// Clone returns an independent deep copy of n, including its name,
// that has no parent.
func (n *Node) Clone() *Node {
	clone := New(n.name)
	clone.kind = n.kind

	if n.value != nil {
		clone.value = append([]byte(nil), n.value...)
	}

	for _, child := range n.Children() {
		c := child.Clone()
		c.parent = clone
		clone.children.Put(c.name, c)
	}

	return clone
}

// Restore moves the kind, value and children of src into n. src is left
// an empty container. The moved children are re-parented to n.
func (n *Node) Restore(src *Node) {
	if src == n {
		return
	}

	n.clear()
	n.kind = src.kind
	n.value = src.value
	n.children = src.children

	it := n.children.Iterator()

	for it.Next() {
		it.Value().(*Node).parent = n
	}

	src.children = linkedhashmap.New()
	src.kind = Container
	src.value = nil
}

// Interface returns the canonical value of the subtree rooted at n
func (n *Node) Interface() (interface{}, error) {
	if n.kind == Leaf {
		return protocol.Decode(n.value)
	}

	object := make(protocol.Object, 0, n.children.Size())

	for _, child := range n.Children() {
		v, err := child.Interface()

		if err != nil {
			return nil, fmt.Errorf("could not decode %s: %w", child.Path(), err)
		}

		object = append(object, protocol.Member{Key: child.name, Value: v})
	}

	return object, nil
}

// MarshalJSON serializes the subtree rooted at n. Containers become
// objects with members in child order.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n.kind == Leaf {
		return n.Value(), nil
	}

	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, child := range n.Children() {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(child.name)

		if err != nil {
			return nil, err
		}

		value, err := child.MarshalJSON()

		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// Equal reports whether the subtrees rooted at n and other have the same
// shape, child names, child order and values. The names of n and other
// themselves are not compared.
func (n *Node) Equal(other *Node) bool {
	if n.kind != other.kind || !bytes.Equal(n.value, other.value) {
		return false
	}

	if n.children.Size() != other.children.Size() {
		return false
	}

	a, b := n.Children(), other.Children()

	for i := range a {
		if a[i].name != b[i].name || !a[i].Equal(b[i]) {
			return false
		}
	}

	return true
}
