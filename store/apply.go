package store

import (
	"fmt"

	"github.com/jrife/agency/node"
	"github.com/jrife/agency/protocol"
	"go.uber.org/zap"
)

// applyTransaction runs one transaction while the lock is held. It returns
// nil if the transaction was applied and the reason it was rejected
// otherwise. A rejected transaction leaves the tree unchanged.
func (store *Store) applyTransaction(logger *zap.Logger, transaction protocol.Transaction) error {
	if transaction.Err != nil {
		logger.Debug("rejected malformed transaction", zap.Error(transaction.Err))

		return transaction.Err
	}

	// Validate everything before touching the tree
	operations := make([]protocol.Operation, len(transaction.Operations))

	for i, op := range transaction.Operations {
		normalized, err := op.Normalize()

		if err != nil {
			logger.Debug("rejected malformed operation", zap.Int("i", i), zap.Error(err))

			return err
		}

		operations[i] = normalized
	}

	for i, precondition := range transaction.Preconditions {
		ok, err := store.check(precondition)

		logger.Debug("checked precondition", zap.Int("i", i), zap.Stringer("precondition", precondition), zap.Bool("ok", ok), zap.Error(err))

		if err != nil {
			return fmt.Errorf("could not check precondition %d: %w", i, err)
		}

		if !ok {
			return fmt.Errorf("%w: %s", ErrPreconditionFailed, precondition)
		}
	}

	j := newJournal(store.root)

	for i, op := range operations {
		logger.Debug("next op", zap.Int("i", i), zap.Stringer("op", op))

		if err := store.applyOperation(j, op); err != nil {
			logger.Debug("operation failed, rolling back", zap.Int("i", i), zap.Error(err))

			if rollbackErr := j.rollback(); rollbackErr != nil {
				logger.Error("could not roll back transaction", zap.Error(rollbackErr))
			}

			return fmt.Errorf("could not execute op %d: %w", i, err)
		}
	}

	return nil
}

// applyOperation locates the target of op, creating missing nodes as
// needed, and hands op to the target node. It records in j how to undo
// whatever it changes. Delete is carried out here through the parent.
func (store *Store) applyOperation(j *journal, op protocol.Operation) error {
	segments := node.SplitPath(op.Path)

	if op.Verb == protocol.VerbDelete && len(segments) == 0 {
		// Deleting the root empties it
		saved := node.New(store.root.Name())
		saved.Restore(store.root)
		j.restore(segments, saved)

		return nil
	}

	store.record(j, segments, op.Verb)
	target := store.root.ResolveForWrite(op.Path)

	if op.Verb == protocol.VerbDelete {
		return store.delete(j, segments)
	}

	return target.Apply(op)
}

// record journals the state that resolving segments for writing and
// then applying verb to the target is about to change
func (store *Store) record(j *journal, segments []string, verb protocol.Verb) {
	deepest, resolved := store.root.Deepest(segments)

	switch {
	case resolved < len(segments) && deepest.Kind() == node.Leaf:
		// The leaf is about to be turned into a container
		j.restore(segments[:resolved], deepest.Clone())
	case resolved < len(segments):
		j.unlink(segments[:resolved], segments[resolved])
	case verb == protocol.VerbNoop, verb == protocol.VerbDelete:
	case verb == protocol.VerbSet:
		// Set discards the old state anyway so move it
		// into the journal instead of copying it
		saved := node.New(deepest.Name())
		saved.Restore(deepest)
		j.restore(segments, saved)
	default:
		j.restore(segments, deepest.Clone())
	}
}

// delete removes the node at segments, which has just been resolved for
// writing, from its parent.
func (store *Store) delete(j *journal, segments []string) error {
	parentPath := segments[:len(segments)-1]
	parent, err := store.root.Lookup(parentPath)

	if err != nil {
		return fmt.Errorf("could not find parent of %s: %w", node.JoinPath(segments), err)
	}

	order := parent.ChildNames()
	child, ok := parent.RemoveChild(segments[len(segments)-1])

	if !ok {
		return fmt.Errorf("%w: %s", ErrPathNotFound, node.JoinPath(segments))
	}

	j.relink(parentPath, child, order)

	return nil
}
