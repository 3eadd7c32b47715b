package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jrife/agency/protocol"
	"github.com/jrife/agency/store"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/commands"
	"github.com/leanovate/gopter/gen"
)

var modelPaths = []interface{}{"/k/a", "/k/b", "/k/c/d", "/e"}

// storeModel is the expected state of a store whose paths only ever hold
// integers
type storeModel struct {
	values  map[string]int64
	applied bool
}

func newStoreModel() *storeModel {
	return &storeModel{values: map[string]int64{}}
}

type modelResult struct {
	Applied bool
	Values  map[string]int64
}

func observe(s *store.Store, applied bool) modelResult {
	result := modelResult{Applied: applied, Values: map[string]int64{}}
	paths := make([]string, len(modelPaths))

	for i, path := range modelPaths {
		paths[i] = path.(string)
	}

	for _, read := range s.Read(context.Background(), [][]string{paths})[0] {
		if read.Err != nil {
			continue
		}

		value, err := protocol.Decode(read.Value)

		if err != nil {
			panic(err)
		}

		n, ok := value.(int64)

		if !ok {
			panic(fmt.Sprintf("%s holds %#v", read.Path, value))
		}

		result.Values[read.Path] = n
	}

	return result
}

func postCondition(state commands.State, result commands.Result) *gopter.PropResult {
	model := state.(*storeModel)
	diff := cmp.Diff(modelResult{Applied: model.applied, Values: model.values}, result)

	if diff != "" {
		fmt.Printf("%s\n", diff)
		return &gopter.PropResult{Status: gopter.PropFalse}
	}

	return &gopter.PropResult{Status: gopter.PropTrue}
}

func runTransaction(sut commands.SystemUnderTest, txn protocol.Transaction) commands.Result {
	s := sut.(*store.Store)
	results := s.Apply(context.Background(), []protocol.Transaction{txn})

	return observe(s, results[0].Applied)
}

type setCommand struct {
	path  string
	value int64
}

func (command setCommand) Run(sut commands.SystemUnderTest) commands.Result {
	return runTransaction(sut, transaction(ops(protocol.Set(command.path, command.value))))
}

func (command setCommand) NextState(state commands.State) commands.State {
	model := state.(*storeModel)
	model.values[command.path] = command.value
	model.applied = true
	return state
}

func (command setCommand) PreCondition(state commands.State) bool {
	return true
}

func (command setCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return postCondition(state, result)
}

func (command setCommand) String() string {
	return fmt.Sprintf("Set(%s, %d)", command.path, command.value)
}

type incrementCommand struct {
	path string
	step int64
}

func (command incrementCommand) Run(sut commands.SystemUnderTest) commands.Result {
	return runTransaction(sut, transaction(ops(protocol.Increment(command.path, command.step))))
}

func (command incrementCommand) NextState(state commands.State) commands.State {
	model := state.(*storeModel)
	model.values[command.path] += command.step
	model.applied = true
	return state
}

func (command incrementCommand) PreCondition(state commands.State) bool {
	return true
}

func (command incrementCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return postCondition(state, result)
}

func (command incrementCommand) String() string {
	return fmt.Sprintf("Increment(%s, %d)", command.path, command.step)
}

type deleteCommand struct {
	path string
}

func (command deleteCommand) Run(sut commands.SystemUnderTest) commands.Result {
	return runTransaction(sut, transaction(ops(protocol.Delete(command.path))))
}

func (command deleteCommand) NextState(state commands.State) commands.State {
	model := state.(*storeModel)
	delete(model.values, command.path)
	model.applied = true
	return state
}

func (command deleteCommand) PreCondition(state commands.State) bool {
	return true
}

func (command deleteCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return postCondition(state, result)
}

func (command deleteCommand) String() string {
	return fmt.Sprintf("Delete(%s)", command.path)
}

type compareAndSwapCommand struct {
	path  string
	old   int64
	value int64
}

func (command compareAndSwapCommand) Run(sut commands.SystemUnderTest) commands.Result {
	return runTransaction(sut, transaction(ops(protocol.Set(command.path, command.value)), protocol.Equals(command.path, command.old)))
}

func (command compareAndSwapCommand) NextState(state commands.State) commands.State {
	model := state.(*storeModel)
	value, ok := model.values[command.path]
	model.applied = ok && value == command.old

	if model.applied {
		model.values[command.path] = command.value
	}

	return state
}

func (command compareAndSwapCommand) PreCondition(state commands.State) bool {
	return true
}

func (command compareAndSwapCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return postCondition(state, result)
}

func (command compareAndSwapCommand) String() string {
	return fmt.Sprintf("CompareAndSwap(%s, %d, %d)", command.path, command.old, command.value)
}

// failingCommand makes several changes and then pushes onto an integer,
// which always fails and must undo them all
type failingCommand struct {
	path  string
	other string
	value int64
}

func (command failingCommand) Run(sut commands.SystemUnderTest) commands.Result {
	return runTransaction(sut, transaction(ops(
		protocol.Set(command.other, command.value),
		protocol.Delete("/k"),
		protocol.Increment("/e", command.value),
		protocol.Push(command.path, command.value),
	)))
}

func (command failingCommand) NextState(state commands.State) commands.State {
	state.(*storeModel).applied = false
	return state
}

func (command failingCommand) PreCondition(state commands.State) bool {
	_, ok := state.(*storeModel).values[command.path]

	return ok
}

func (command failingCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return postCondition(state, result)
}

func (command failingCommand) String() string {
	return fmt.Sprintf("Failing(%s, %s, %d)", command.path, command.other, command.value)
}

func genCommand(state commands.State) gopter.Gen {
	model := state.(*storeModel)
	paths := gen.OneConstOf(modelPaths...)
	values := gen.Int64Range(-3, 3)
	gens := []gopter.Gen{
		gopter.CombineGens(paths, values).Map(func(v []interface{}) commands.Command {
			return setCommand{path: v[0].(string), value: v[1].(int64)}
		}),
		gopter.CombineGens(paths, values).Map(func(v []interface{}) commands.Command {
			return incrementCommand{path: v[0].(string), step: v[1].(int64)}
		}),
		gopter.CombineGens(paths).Map(func(v []interface{}) commands.Command {
			return deleteCommand{path: v[0].(string)}
		}),
		gopter.CombineGens(paths, values, values).Map(func(v []interface{}) commands.Command {
			return compareAndSwapCommand{path: v[0].(string), old: v[1].(int64), value: v[2].(int64)}
		}),
	}

	if _, ok := model.values["/e"]; ok {
		gens = append(gens, gopter.CombineGens(gen.OneConstOf("/k/a", "/k/b", "/k/c/d"), values).Map(func(v []interface{}) commands.Command {
			return failingCommand{path: "/e", other: v[0].(string), value: v[1].(int64)}
		}))
	}

	return gen.OneGenOf(gens...)
}

func TestStoreModel(t *testing.T) {
	var storeCommands = &commands.ProtoCommands{
		NewSystemUnderTestFunc: func(initialState commands.State) commands.SystemUnderTest {
			return newStore(t)
		},
		InitialStateGen: gopter.CombineGens().Map(func([]interface{}) *storeModel {
			return newStoreModel()
		}),
		InitialPreConditionFunc: func(state commands.State) bool {
			return true
		},
		GenCommandFunc: genCommand,
	}

	parameters := gopter.DefaultTestParametersWithSeed(1234)
	parameters.MinSuccessfulTests = 200
	parameters.MaxSize = 30
	properties := gopter.NewProperties(parameters)
	properties.Property("", commands.Prop(storeCommands))
	properties.TestingRun(t)
}
