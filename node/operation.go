package node

import (
	"fmt"

	"github.com/jrife/agency/protocol"
	"github.com/segmentio/encoding/json"
)

// Apply interprets one operation against n. The operation is expected
// in canonical form (see protocol.Operation.Normalize). Delete is not
// handled here because it restructures the parent.
func (n *Node) Apply(op protocol.Operation) error {
	switch op.Verb {
	case protocol.VerbNoop:
		return nil
	case protocol.VerbSet:
		return n.AssignValue(op.Value)
	case protocol.VerbDelete:
		return fmt.Errorf("%w: %s", ErrParentOperation, op)
	case protocol.VerbIncrement:
		return n.add(op.Step)
	case protocol.VerbDecrement:
		step, ok := protocol.Negate(op.Step)

		if !ok {
			return fmt.Errorf("%w: step %v is not a number", protocol.ErrMalformedOperation, op.Step)
		}

		return n.add(step)
	case protocol.VerbPush, protocol.VerbPrepend:
		return n.insert(op.Value, op.Verb == protocol.VerbPrepend)
	case protocol.VerbPop:
		return n.updateArray(func(elements []json.RawMessage) ([]json.RawMessage, error) {
			if len(elements) == 0 {
				return elements, nil
			}

			return elements[:len(elements)-1], nil
		})
	case protocol.VerbShift:
		return n.updateArray(func(elements []json.RawMessage) ([]json.RawMessage, error) {
			if len(elements) == 0 {
				return elements, nil
			}

			return elements[1:], nil
		})
	case protocol.VerbErase:
		return n.updateArray(func(elements []json.RawMessage) ([]json.RawMessage, error) {
			kept := make([]json.RawMessage, 0, len(elements))

			for _, element := range elements {
				v, err := protocol.Decode(element)

				if err != nil {
					return nil, err
				}

				if !protocol.Equal(v, op.Value) {
					kept = append(kept, element)
				}
			}

			return kept, nil
		})
	case protocol.VerbReplace:
		replacement, err := protocol.Encode(op.New)

		if err != nil {
			return err
		}

		return n.updateArray(func(elements []json.RawMessage) ([]json.RawMessage, error) {
			for i, element := range elements {
				v, err := protocol.Decode(element)

				if err != nil {
					return nil, err
				}

				if protocol.Equal(v, op.Value) {
					elements[i] = replacement
				}
			}

			return elements, nil
		})
	}

	return fmt.Errorf("%w: unknown verb %q", protocol.ErrMalformedOperation, op.Verb)
}

// add adds step to a numeric leaf. An empty container counts as zero.
func (n *Node) add(step interface{}) error {
	var current interface{} = int64(0)

	switch {
	case n.IsEmpty():
	case n.kind == Leaf:
		v, err := protocol.Decode(n.value)

		if err != nil {
			return err
		}

		current = v
	default:
		return fmt.Errorf("%w: cannot add to a container with children at %s", ErrTypeMismatch, n.Path())
	}

	if !protocol.IsNumber(current) {
		return fmt.Errorf("%w: %s holds %T, not a number", ErrTypeMismatch, n.Path(), current)
	}

	sum, ok := protocol.Add(current, step)

	if !ok {
		return fmt.Errorf("%w: cannot add %v to %v", ErrTypeMismatch, step, current)
	}

	return n.AssignScalar(sum)
}

// insert pushes or prepends v. An empty container becomes [v].
func (n *Node) insert(v interface{}, front bool) error {
	element, err := protocol.Encode(v)

	if err != nil {
		return err
	}

	elements, err := n.array(true)

	if err != nil {
		return err
	}

	if front {
		elements = append([]json.RawMessage{element}, elements...)
	} else {
		elements = append(elements, element)
	}

	return n.setArray(elements)
}

// updateArray rewrites an array leaf. Empty containers are left alone.
func (n *Node) updateArray(update func([]json.RawMessage) ([]json.RawMessage, error)) error {
	if n.IsEmpty() {
		return nil
	}

	elements, err := n.array(false)

	if err != nil {
		return err
	}

	elements, err = update(elements)

	if err != nil {
		return err
	}

	return n.setArray(elements)
}

// array returns the encoded elements of an array leaf. The elements are
// kept encoded so untouched ones are written back byte for byte.
func (n *Node) array(allowEmpty bool) ([]json.RawMessage, error) {
	if allowEmpty && n.IsEmpty() {
		return []json.RawMessage{}, nil
	}

	if n.kind != Leaf {
		return nil, fmt.Errorf("%w: %s is a container, not an array", ErrTypeMismatch, n.Path())
	}

	var elements []json.RawMessage

	if err := json.Unmarshal(n.value, &elements); err != nil || elements == nil {
		return nil, fmt.Errorf("%w: %s does not hold an array", ErrTypeMismatch, n.Path())
	}

	return elements, nil
}

func (n *Node) setArray(elements []json.RawMessage) error {
	if elements == nil {
		elements = []json.RawMessage{}
	}

	encoded, err := json.Marshal(elements)

	if err != nil {
		return fmt.Errorf("could not encode array at %s: %s", n.Path(), err)
	}

	n.setLeaf(encoded)

	return nil
}
