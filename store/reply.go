package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrife/agency/protocol"
	"github.com/segmentio/encoding/json"
)

// ReadEntry is the wire form of a ReadResult
type ReadEntry struct {
	Path     string          `json:"path"`
	Value    json.RawMessage `json:"value,omitempty"`
	NotFound bool            `json:"notFound,omitempty"`
}

// ApplyJSON decodes a batch of transactions from JSON or YAML, applies
// it and encodes the outcomes as a JSON array of booleans. Transactions
// that fail to decode are rejected individually. Only a batch that is
// not a sequence fails as a whole.
func (store *Store) ApplyJSON(ctx context.Context, data []byte) ([]byte, error) {
	batch, err := protocol.DecodeBatch(data)

	if err != nil {
		return nil, err
	}

	return json.Marshal(Outcomes(store.Apply(ctx, batch)))
}

// ReadJSON decodes a read query from JSON or YAML and encodes one list
// of entries per path-set
func (store *Store) ReadJSON(ctx context.Context, data []byte) ([]byte, error) {
	query, err := protocol.DecodeReadQuery(data)

	if err != nil {
		return nil, err
	}

	return EncodeReadResults(store.Read(ctx, query))
}

// EncodeReadResults encodes the results of Read in the form ReadJSON
// replies with. A missing path is reported as notFound.
func EncodeReadResults(results [][]ReadResult) ([]byte, error) {
	reply := make([][]ReadEntry, len(results))

	for i, pathSet := range results {
		reply[i] = make([]ReadEntry, len(pathSet))

		for j, result := range pathSet {
			entry := ReadEntry{Path: result.Path}

			switch {
			case errors.Is(result.Err, ErrPathNotFound):
				entry.NotFound = true
			case result.Err != nil:
				return nil, fmt.Errorf("could not read %s: %w", result.Path, result.Err)
			default:
				entry.Value = json.RawMessage(result.Value)
			}

			reply[i][j] = entry
		}
	}

	return json.Marshal(reply)
}
