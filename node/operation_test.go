package node_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jrife/agency/node"
	"github.com/jrife/agency/protocol"
)

func TestApply(t *testing.T) {
	testCases := map[string]struct {
		initial interface{}
		op      protocol.Operation
		result  string
		err     error
	}{
		"set-scalar": {
			initial: int64(1),
			op:      protocol.Set("", "x"),
			result:  `"x"`,
		},
		"set-object": {
			initial: int64(1),
			op:      protocol.Set("", protocol.Object{{Key: "a", Value: int64(1)}}),
			result:  `{"a":1}`,
		},
		"set-array": {
			op:     protocol.Set("", []interface{}{int64(1), protocol.Object{{Key: "b", Value: "c"}}}),
			result: `[1,{"b":"c"}]`,
		},
		"noop": {
			initial: "x",
			op:      protocol.Noop(""),
			result:  `"x"`,
		},
		"delete-through-parent": {
			initial: "x",
			op:      protocol.Delete(""),
			err:     node.ErrParentOperation,
		},
		"increment-empty": {
			op:     protocol.Operation{Verb: protocol.VerbIncrement, Step: int64(1)},
			result: `1`,
		},
		"increment-step": {
			initial: int64(5),
			op:      protocol.Operation{Verb: protocol.VerbIncrement, Step: int64(10)},
			result:  `15`,
		},
		"increment-float": {
			initial: int64(1),
			op:      protocol.Operation{Verb: protocol.VerbIncrement, Step: 0.5},
			result:  `1.5`,
		},
		"decrement": {
			initial: int64(5),
			op:      protocol.Operation{Verb: protocol.VerbDecrement, Step: int64(2)},
			result:  `3`,
		},
		"increment-string": {
			initial: "x",
			op:      protocol.Operation{Verb: protocol.VerbIncrement, Step: int64(1)},
			err:     node.ErrTypeMismatch,
		},
		"increment-container": {
			initial: protocol.Object{{Key: "a", Value: int64(1)}},
			op:      protocol.Operation{Verb: protocol.VerbIncrement, Step: int64(1)},
			err:     node.ErrTypeMismatch,
		},
		"push-empty": {
			op:     protocol.Push("", "a"),
			result: `["a"]`,
		},
		"push": {
			initial: []interface{}{"a"},
			op:      protocol.Push("", "b"),
			result:  `["a","b"]`,
		},
		"prepend": {
			initial: []interface{}{"a"},
			op:      protocol.Operation{Verb: protocol.VerbPrepend, Value: "b"},
			result:  `["b","a"]`,
		},
		"push-scalar": {
			initial: int64(1),
			op:      protocol.Push("", "b"),
			err:     node.ErrTypeMismatch,
		},
		"push-null": {
			initial: nil,
			op:      protocol.Push("", "b"),
			err:     node.ErrTypeMismatch,
		},
		"pop": {
			initial: []interface{}{"a", "b"},
			op:      protocol.Operation{Verb: protocol.VerbPop},
			result:  `["a"]`,
		},
		"pop-empty-array": {
			initial: []interface{}{},
			op:      protocol.Operation{Verb: protocol.VerbPop},
			result:  `[]`,
		},
		"shift": {
			initial: []interface{}{"a", "b"},
			op:      protocol.Operation{Verb: protocol.VerbShift},
			result:  `["b"]`,
		},
		"erase": {
			initial: []interface{}{int64(1), int64(2), int64(1)},
			op:      protocol.Operation{Verb: protocol.VerbErase, Value: int64(1)},
			result:  `[2]`,
		},
		"replace": {
			initial: []interface{}{int64(1), int64(2), int64(1)},
			op:      protocol.Operation{Verb: protocol.VerbReplace, Value: int64(1), New: "one"},
			result:  `["one",2,"one"]`,
		},
		"pop-string": {
			initial: "x",
			op:      protocol.Operation{Verb: protocol.VerbPop},
			err:     node.ErrTypeMismatch,
		},
		"unknown-verb": {
			initial: "x",
			op:      protocol.Operation{Verb: "frobnicate"},
			err:     protocol.ErrMalformedOperation,
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			root := node.New("/")
			target := root.ResolveForWrite("/target")

			if testCase.initial != nil || name == "push-null" {
				if err := target.AssignValue(testCase.initial); err != nil {
					t.Fatalf("expected err to be nil, got %#v", err)
				}
			}

			before := root.Clone()
			err := target.Apply(testCase.op)

			if testCase.err != nil {
				if !errors.Is(err, testCase.err) {
					t.Fatalf("expected err to wrap %#v, got %#v", testCase.err, err)
				}

				if !root.Equal(before) {
					t.Fatalf("expected a failed operation to leave the tree unchanged")
				}

				return
			}

			if err != nil {
				t.Fatalf("expected err to be nil, got %#v", err)
			}

			if diff := cmp.Diff(testCase.result, mustJSON(t, target)); diff != "" {
				t.Fatalf(diff)
			}
		})
	}
}
