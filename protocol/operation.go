package protocol

import (
	"fmt"
)

// Verb names the action an operation performs on its target node
type Verb string

const (
	// VerbSet assigns a value. Objects become containers.
	VerbSet Verb = "set"
	// VerbDelete removes the target node from its parent
	VerbDelete Verb = "delete"
	// VerbIncrement adds Step (default 1) to a numeric leaf
	VerbIncrement Verb = "increment"
	// VerbDecrement subtracts Step (default 1) from a numeric leaf
	VerbDecrement Verb = "decrement"
	// VerbPush appends Value to an array leaf
	VerbPush Verb = "push"
	// VerbPrepend inserts Value at the front of an array leaf
	VerbPrepend Verb = "prepend"
	// VerbPop removes the last element of an array leaf
	VerbPop Verb = "pop"
	// VerbShift removes the first element of an array leaf
	VerbShift Verb = "shift"
	// VerbErase removes every element equal to Value from an array leaf
	VerbErase Verb = "erase"
	// VerbReplace replaces every element equal to Value with New
	VerbReplace Verb = "replace"
	// VerbNoop does nothing
	VerbNoop Verb = "noop"
)

var verbs = map[string]Verb{
	string(VerbSet):       VerbSet,
	string(VerbDelete):    VerbDelete,
	string(VerbIncrement): VerbIncrement,
	string(VerbDecrement): VerbDecrement,
	string(VerbPush):      VerbPush,
	string(VerbPrepend):   VerbPrepend,
	string(VerbPop):       VerbPop,
	string(VerbShift):     VerbShift,
	string(VerbErase):     VerbErase,
	string(VerbReplace):   VerbReplace,
	string(VerbNoop):      VerbNoop,
	"no-op":               VerbNoop,
}

// fields each verb requires in its descriptor
var requiredFields = map[Verb][]string{
	VerbSet:     {"value"},
	VerbPush:    {"value"},
	VerbPrepend: {"value"},
	VerbErase:   {"value"},
	VerbReplace: {"value", "new"},
}

// Operation is one path-scoped mutation inside a transaction
type Operation struct {
	Path  string
	Verb  Verb
	Value interface{}
	New   interface{}
	Step  interface{}
}

func (op Operation) String() string {
	return fmt.Sprintf("%s %s", op.Verb, op.Path)
}

// Set builds a set operation
func Set(path string, value interface{}) Operation {
	return Operation{Path: path, Verb: VerbSet, Value: value}
}

// Delete builds a delete operation
func Delete(path string) Operation {
	return Operation{Path: path, Verb: VerbDelete}
}

// Increment builds an increment operation
func Increment(path string, step interface{}) Operation {
	return Operation{Path: path, Verb: VerbIncrement, Step: step}
}

// Push builds a push operation
func Push(path string, value interface{}) Operation {
	return Operation{Path: path, Verb: VerbPush, Value: value}
}

// Noop builds a no-op operation
func Noop(path string) Operation {
	return Operation{Path: path, Verb: VerbNoop}
}

// Normalize validates the operation and returns a copy whose
// values are in canonical form.
func (op Operation) Normalize() (Operation, error) {
	if _, ok := verbs[string(op.Verb)]; !ok {
		return Operation{}, malformed("unknown verb %q at %s", op.Verb, op.Path)
	}

	op.Verb = verbs[string(op.Verb)]

	var err error

	if op.Value, err = Normalize(op.Value); err != nil {
		return Operation{}, fmt.Errorf("invalid value for %s: %w", op, err)
	}

	if op.New, err = Normalize(op.New); err != nil {
		return Operation{}, fmt.Errorf("invalid new value for %s: %w", op, err)
	}

	switch op.Verb {
	case VerbIncrement, VerbDecrement:
		if op.Step == nil {
			op.Step = int64(1)
		}

		if op.Step, err = Normalize(op.Step); err != nil {
			return Operation{}, fmt.Errorf("invalid step for %s: %w", op, err)
		}

		if !IsNumber(op.Step) {
			return Operation{}, malformed("step for %s must be a number, got %T", op, op.Step)
		}
	default:
		op.Step = nil
	}

	return op, nil
}

// ParseOperation builds an operation from its wire descriptor. A descriptor
// that is not an object carrying an "op" field is shorthand for setting
// the descriptor itself as the value.
func ParseOperation(path string, descriptor interface{}) (Operation, error) {
	d, err := Normalize(descriptor)

	if err != nil {
		return Operation{}, fmt.Errorf("invalid descriptor for %s: %w", path, err)
	}

	object, ok := d.(Object)

	if !ok {
		return Set(path, d), nil
	}

	rawVerb, ok := object.Get("op")

	if !ok {
		return Set(path, object), nil
	}

	name, ok := rawVerb.(string)

	if !ok {
		return Operation{}, malformed("op field at %s must be a string, got %T", path, rawVerb)
	}

	verb, ok := verbs[name]

	if !ok {
		return Operation{}, malformed("unknown verb %q at %s", name, path)
	}

	for _, field := range requiredFields[verb] {
		if _, ok := object.Get(field); !ok {
			return Operation{}, malformed("%s at %s requires field %q", verb, path, field)
		}
	}

	op := Operation{Path: path, Verb: verb}
	op.Value, _ = object.Get("value")
	op.New, _ = object.Get("new")
	op.Step, _ = object.Get("step")

	return op.Normalize()
}
