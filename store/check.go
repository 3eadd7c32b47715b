package store

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/jrife/agency/protocol"
)

// check evaluates a precondition against the tree. A path that does not
// resolve is not an error: it makes the path-dependent clauses false.
func (store *Store) check(precondition protocol.Precondition) (bool, error) {
	precondition, err := precondition.Normalize()

	if err != nil {
		return false, err
	}

	exists := false
	var value interface{}

	if target, err := store.root.ResolveForRead(precondition.Path); err == nil {
		exists = true

		if value, err = target.Interface(); err != nil {
			return false, fmt.Errorf("could not read %s: %s", precondition.Path, err)
		}
	}

	for _, clause := range precondition.Clauses {
		ok, err := holds(precondition.Path, clause, exists, value)

		if err != nil {
			return false, err
		}

		if !ok {
			return false, nil
		}
	}

	return true, nil
}

func holds(path string, clause protocol.Clause, exists bool, value interface{}) (bool, error) {
	switch clause.Kind {
	case protocol.ClauseExists:
		return exists, nil
	case protocol.ClauseAbsent:
		return !exists, nil
	case protocol.ClauseEquals:
		return exists && protocol.Equal(value, clause.Operand), nil
	case protocol.ClauseNotEquals:
		return !exists || !protocol.Equal(value, clause.Operand), nil
	case protocol.ClauseIsArray:
		return exists && protocol.IsArray(value), nil
	case protocol.ClauseNotArray:
		return !exists || !protocol.IsArray(value), nil
	case protocol.ClauseIn:
		return exists && contains(value, clause.Operand), nil
	case protocol.ClauseNotIn:
		return !exists || !contains(value, clause.Operand), nil
	case protocol.ClauseGreater, protocol.ClauseGreaterOrEqual, protocol.ClauseLess, protocol.ClauseLessOrEqual:
		if !exists {
			return false, nil
		}

		order, ok := protocol.Compare(value, clause.Operand)

		if !ok {
			return false, nil
		}

		switch clause.Kind {
		case protocol.ClauseGreater:
			return order > 0, nil
		case protocol.ClauseGreaterOrEqual:
			return order >= 0, nil
		case protocol.ClauseLess:
			return order < 0, nil
		}

		return order <= 0, nil
	case protocol.ClauseMatches:
		if clause.Program == nil {
			return false, fmt.Errorf("%w: matches at %s was not compiled", ErrMalformedOperation, path)
		}

		result, err := expr.Run(clause.Program, protocol.MatchEnv{Value: value, Exists: exists, Path: path})

		if err != nil {
			// Runtime errors, such as comparing a missing value,
			// mean the clause does not hold
			return false, nil
		}

		ok, isBool := result.(bool)

		if !isBool {
			return false, fmt.Errorf("%w: matches at %s returned %T, not a boolean", ErrMalformedOperation, path, result)
		}

		return ok, nil
	}

	return false, fmt.Errorf("%w: unknown clause %s at %s", ErrMalformedOperation, clause.Kind, path)
}

// contains reports whether array holds an element equal to v
func contains(array interface{}, v interface{}) bool {
	elements, ok := array.([]interface{})

	if !ok {
		return false
	}

	for _, element := range elements {
		if protocol.Equal(element, v) {
			return true
		}
	}

	return false
}
