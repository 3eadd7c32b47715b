package protocol

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ClauseKind identifies the test a precondition clause performs
type ClauseKind int

const (
	// ClauseExists holds if the path resolves
	ClauseExists ClauseKind = iota
	// ClauseAbsent holds if the path does not resolve
	ClauseAbsent
	// ClauseEquals holds if the path resolves to a value equal to Operand
	ClauseEquals
	// ClauseNotEquals holds if the path is absent or its value differs from Operand
	ClauseNotEquals
	// ClauseIsArray holds if the path resolves to an array
	ClauseIsArray
	// ClauseNotArray holds if the path is absent or not an array
	ClauseNotArray
	// ClauseIn holds if the path resolves to an array containing Operand
	ClauseIn
	// ClauseNotIn is the negation of ClauseIn
	ClauseNotIn
	// ClauseGreater holds if the path resolves to a number > Operand
	ClauseGreater
	// ClauseGreaterOrEqual holds if the path resolves to a number >= Operand
	ClauseGreaterOrEqual
	// ClauseLess holds if the path resolves to a number < Operand
	ClauseLess
	// ClauseLessOrEqual holds if the path resolves to a number <= Operand
	ClauseLessOrEqual
	// ClauseMatches holds if Program evaluates to true
	ClauseMatches
)

var clauseNames = map[ClauseKind]string{
	ClauseExists:         "exists",
	ClauseAbsent:         "absent",
	ClauseEquals:         "old",
	ClauseNotEquals:      "oldNot",
	ClauseIsArray:        "isArray",
	ClauseNotArray:       "notArray",
	ClauseIn:             "in",
	ClauseNotIn:          "notin",
	ClauseGreater:        "gt",
	ClauseGreaterOrEqual: "gte",
	ClauseLess:           "lt",
	ClauseLessOrEqual:    "lte",
	ClauseMatches:        "matches",
}

func (kind ClauseKind) String() string {
	if name, ok := clauseNames[kind]; ok {
		return name
	}

	return fmt.Sprintf("ClauseKind(%d)", int(kind))
}

var numericClauses = map[string]ClauseKind{
	"gt":  ClauseGreater,
	"gte": ClauseGreaterOrEqual,
	"lt":  ClauseLess,
	"lte": ClauseLessOrEqual,
}

var clauseKeys = map[string]bool{
	"exists":   true,
	"oldEmpty": true,
	"old":      true,
	"oldNot":   true,
	"isArray":  true,
	"in":       true,
	"notin":    true,
	"gt":       true,
	"gte":      true,
	"lt":       true,
	"lte":      true,
	"matches":  true,
}

// Clause is one test against the current state of a path
type Clause struct {
	Kind    ClauseKind
	Operand interface{}
	// Program is the compiled expression of a ClauseMatches clause
	Program *vm.Program
}

func (clause Clause) String() string {
	if clause.Kind == ClauseExists || clause.Kind == ClauseAbsent {
		return clause.Kind.String()
	}

	return fmt.Sprintf("%s %v", clause.Kind, clause.Operand)
}

// Precondition gates a transaction on the state of one path.
// All clauses must hold.
type Precondition struct {
	Path    string
	Clauses []Clause
}

func (precondition Precondition) String() string {
	clauses := make([]string, len(precondition.Clauses))

	for i, clause := range precondition.Clauses {
		clauses[i] = clause.String()
	}

	return fmt.Sprintf("%s: %s", precondition.Path, strings.Join(clauses, " && "))
}

// Exists builds a precondition that holds if path resolves
func Exists(path string) Precondition {
	return Precondition{Path: path, Clauses: []Clause{{Kind: ClauseExists}}}
}

// Absent builds a precondition that holds if path does not resolve
func Absent(path string) Precondition {
	return Precondition{Path: path, Clauses: []Clause{{Kind: ClauseAbsent}}}
}

// Equals builds a precondition that holds if path resolves to value
func Equals(path string, value interface{}) Precondition {
	return Precondition{Path: path, Clauses: []Clause{{Kind: ClauseEquals, Operand: value}}}
}

// Numeric builds a numeric comparison precondition. kind must be one
// of ClauseGreater, ClauseGreaterOrEqual, ClauseLess or ClauseLessOrEqual.
func Numeric(path string, kind ClauseKind, value interface{}) Precondition {
	return Precondition{Path: path, Clauses: []Clause{{Kind: kind, Operand: value}}}
}

// Matches builds a precondition from an expression over the
// variables value, exists and path.
func Matches(path string, code string) (Precondition, error) {
	program, err := compileMatch(code)

	if err != nil {
		return Precondition{}, fmt.Errorf("invalid expression at %s: %w", path, err)
	}

	return Precondition{Path: path, Clauses: []Clause{{Kind: ClauseMatches, Operand: code, Program: program}}}, nil
}

// MatchEnv is the environment a ClauseMatches program runs against.
// Value is nil when the path does not exist.
type MatchEnv struct {
	Value  interface{} `expr:"value"`
	Exists bool        `expr:"exists"`
	Path   string      `expr:"path"`
}

func compileMatch(code string) (*vm.Program, error) {
	program, err := expr.Compile(code, expr.Env(MatchEnv{}), expr.AsBool())

	if err != nil {
		return nil, malformed("%s", err)
	}

	return program, nil
}

// ParsePrecondition builds a precondition from its wire descriptor. A
// descriptor that is not an object, or an object with none of the clause
// keys, is shorthand for an equality test against the descriptor.
func ParsePrecondition(path string, descriptor interface{}) (Precondition, error) {
	d, err := Normalize(descriptor)

	if err != nil {
		return Precondition{}, fmt.Errorf("invalid precondition for %s: %w", path, err)
	}

	object, ok := d.(Object)

	if !ok || !hasClauseKey(object) {
		return Equals(path, d), nil
	}

	precondition := Precondition{Path: path, Clauses: make([]Clause, 0, len(object))}

	for _, member := range object {
		clause, err := parseClause(path, member)

		if err != nil {
			return Precondition{}, err
		}

		precondition.Clauses = append(precondition.Clauses, clause)
	}

	return precondition, nil
}

func hasClauseKey(object Object) bool {
	for _, member := range object {
		if clauseKeys[member.Key] {
			return true
		}
	}

	return false
}

func parseClause(path string, member Member) (Clause, error) {
	switch member.Key {
	case "exists", "oldEmpty", "isArray":
		flag, ok := member.Value.(bool)

		if !ok {
			return Clause{}, malformed("%s at %s must be a boolean, got %T", member.Key, path, member.Value)
		}

		switch member.Key {
		case "isArray":
			if flag {
				return Clause{Kind: ClauseIsArray}, nil
			}

			return Clause{Kind: ClauseNotArray}, nil
		case "oldEmpty":
			flag = !flag
		}

		if flag {
			return Clause{Kind: ClauseExists}, nil
		}

		return Clause{Kind: ClauseAbsent}, nil
	case "old":
		return Clause{Kind: ClauseEquals, Operand: member.Value}, nil
	case "oldNot":
		return Clause{Kind: ClauseNotEquals, Operand: member.Value}, nil
	case "in":
		return Clause{Kind: ClauseIn, Operand: member.Value}, nil
	case "notin":
		return Clause{Kind: ClauseNotIn, Operand: member.Value}, nil
	case "gt", "gte", "lt", "lte":
		if !IsNumber(member.Value) {
			return Clause{}, malformed("%s at %s must be a number, got %T", member.Key, path, member.Value)
		}

		return Clause{Kind: numericClauses[member.Key], Operand: member.Value}, nil
	case "matches":
		code, ok := member.Value.(string)

		if !ok {
			return Clause{}, malformed("matches at %s must be a string, got %T", path, member.Value)
		}

		program, err := compileMatch(code)

		if err != nil {
			return Clause{}, fmt.Errorf("invalid expression at %s: %w", path, err)
		}

		return Clause{Kind: ClauseMatches, Operand: code, Program: program}, nil
	}

	return Clause{}, malformed("unknown precondition %q at %s", member.Key, path)
}

// Normalize validates the precondition and returns a copy whose
// operands are in canonical form. Matches clauses built without a
// compiled program are compiled from their operand.
func (precondition Precondition) Normalize() (Precondition, error) {
	clauses := make([]Clause, len(precondition.Clauses))

	for i, clause := range precondition.Clauses {
		if _, ok := clauseNames[clause.Kind]; !ok {
			return Precondition{}, malformed("unknown clause %s at %s", clause.Kind, precondition.Path)
		}

		operand, err := Normalize(clause.Operand)

		if err != nil {
			return Precondition{}, fmt.Errorf("invalid operand at %s: %w", precondition.Path, err)
		}

		clause.Operand = operand

		switch clause.Kind {
		case ClauseGreater, ClauseGreaterOrEqual, ClauseLess, ClauseLessOrEqual:
			if !IsNumber(operand) {
				return Precondition{}, malformed("%s at %s must be a number, got %T", clause.Kind, precondition.Path, operand)
			}
		case ClauseMatches:
			if clause.Program == nil {
				code, ok := operand.(string)

				if !ok {
					return Precondition{}, malformed("matches at %s must be a string, got %T", precondition.Path, operand)
				}

				if clause.Program, err = compileMatch(code); err != nil {
					return Precondition{}, fmt.Errorf("invalid expression at %s: %w", precondition.Path, err)
				}
			}
		}

		clauses[i] = clause
	}

	precondition.Clauses = clauses

	return precondition, nil
}
