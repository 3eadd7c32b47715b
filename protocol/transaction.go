package protocol

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// ErrInvalidBatch is returned when a request is not a sequence and
// therefore cannot be split into per-entry results at all.
var ErrInvalidBatch = errors.New("batch must be a sequence")

// Transaction is an atomic group of operations gated by preconditions.
// Err is set when the wire form of this transaction could not be parsed;
// such a transaction is rejected without affecting its siblings.
type Transaction struct {
	Operations    []Operation
	Preconditions []Precondition
	Err           error
}

// Unmarshal parses JSON or YAML into plain values. Mappings are decoded
// as yaml.MapSlice so that their order survives. Repeated keys are kept,
// so a transaction naming a path twice gets both entries in order.
func Unmarshal(data []byte) (interface{}, error) {
	var v interface{}

	if err := yaml.UnmarshalWithOptions(data, &v, yaml.UseOrderedMap(), yaml.AllowDuplicateMapKey()); err != nil {
		return nil, fmt.Errorf("could not decode request: %s", err)
	}

	return v, nil
}

// DecodeBatch decodes a serialized transaction batch
func DecodeBatch(data []byte) ([]Transaction, error) {
	v, err := Unmarshal(data)

	if err != nil {
		return nil, err
	}

	return ParseBatch(v)
}

// ParseBatch splits a decoded batch into transactions. Only a batch
// that is not a sequence is an error; malformed transactions carry their
// own Err.
func ParseBatch(v interface{}) ([]Transaction, error) {
	entries, ok := v.([]interface{})

	if !ok {
		return nil, fmt.Errorf("%w, got %T", ErrInvalidBatch, v)
	}

	transactions := make([]Transaction, len(entries))

	for i, entry := range entries {
		transaction, err := ParseTransaction(entry)

		if err != nil {
			transaction = Transaction{Err: fmt.Errorf("transaction %d: %w", i, err)}
		}

		transactions[i] = transaction
	}

	return transactions, nil
}

// ParseTransaction parses the wire form [operations, preconditions?]
func ParseTransaction(v interface{}) (Transaction, error) {
	parts, ok := v.([]interface{})

	if !ok || len(parts) < 1 || len(parts) > 2 {
		return Transaction{}, malformed("transaction must be a sequence of one or two mappings")
	}

	var transaction Transaction

	operations, err := members(parts[0])

	if err != nil {
		return Transaction{}, fmt.Errorf("operations: %w", err)
	}

	for _, member := range operations {
		op, err := ParseOperation(member.Key, member.Value)

		if err != nil {
			return Transaction{}, err
		}

		transaction.Operations = append(transaction.Operations, op)
	}

	if len(parts) == 1 || parts[1] == nil {
		return transaction, nil
	}

	preconditions, err := members(parts[1])

	if err != nil {
		return Transaction{}, fmt.Errorf("preconditions: %w", err)
	}

	for _, member := range preconditions {
		precondition, err := ParsePrecondition(member.Key, member.Value)

		if err != nil {
			return Transaction{}, err
		}

		transaction.Preconditions = append(transaction.Preconditions, precondition)
	}

	return transaction, nil
}

// members returns the top level members of a mapping without
// normalizing their values.
func members(v interface{}) ([]Member, error) {
	switch t := v.(type) {
	case yaml.MapSlice:
		result := make([]Member, len(t))

		for i, item := range t {
			result[i] = Member{Key: keyString(item.Key), Value: item.Value}
		}

		return result, nil
	case Object:
		return t, nil
	case map[string]interface{}, map[interface{}]interface{}:
		n, err := Normalize(t)

		if err != nil {
			return nil, err
		}

		return n.(Object), nil
	}

	return nil, malformed("expected a mapping, got %T", v)
}

// DecodeReadQuery decodes a serialized read request
func DecodeReadQuery(data []byte) ([][]string, error) {
	v, err := Unmarshal(data)

	if err != nil {
		return nil, err
	}

	return ParseReadQuery(v)
}

// ParseReadQuery converts a decoded read request into path-sets. A bare
// path in place of a path-set is a set of one.
func ParseReadQuery(v interface{}) ([][]string, error) {
	entries, ok := v.([]interface{})

	if !ok {
		return nil, fmt.Errorf("%w, got %T", ErrInvalidBatch, v)
	}

	query := make([][]string, len(entries))

	for i, entry := range entries {
		switch t := entry.(type) {
		case string:
			query[i] = []string{t}
		case []interface{}:
			paths := make([]string, len(t))

			for j, p := range t {
				path, ok := p.(string)

				if !ok {
					return nil, malformed("read entry %d: path %d must be a string, got %T", i, j, p)
				}

				paths[j] = path
			}

			query[i] = paths
		default:
			return nil, malformed("read entry %d must be a path or a sequence of paths, got %T", i, entry)
		}
	}

	return query, nil
}
