package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jrife/agency/node"
	"github.com/jrife/agency/protocol"
	"github.com/jrife/agency/utils/log"
	"go.uber.org/zap"
)

// RootName is the name of the root node of every store
const RootName = "/"

// Config contains configuration
// for a store
type Config struct {
	Logger *zap.Logger
	// ID identifies the store in logs. A random ID is
	// generated if it is empty.
	ID string
}

// Store is the transactional entry point to a namespace tree. It owns
// the root node and serializes every Apply and Read call with one lock
// held for the whole batch, so no caller ever observes a partially
// applied batch.
type Store struct {
	mu     sync.Mutex
	id     string
	root   *node.Node
	logger *zap.Logger
}

// Result is the outcome of one transaction of a batch
type Result struct {
	Applied bool
	// Err says why a transaction was rejected. It wraps one of
	// ErrPreconditionFailed, ErrMalformedOperation or ErrTypeMismatch.
	Err error
}

// ReadResult is the outcome of reading one path
type ReadResult struct {
	Path string
	// Value is the JSON serialization of the node at Path
	Value []byte
	// Err wraps ErrPathNotFound if Path does not exist
	Err error
}

// New creates an empty store
func New(config Config) *Store {
	store := &Store{logger: config.Logger, id: config.ID}

	if store.logger == nil {
		store.logger = zap.L()
	}

	if store.id == "" {
		store.id = uuid.New().String()
	}

	store.logger = store.logger.With(zap.String("store", store.id))
	store.root = node.New(RootName)

	return store
}

// operation returns the logger for one call. A logger passed through
// the context with log.WithLogger takes the place of the store's own.
func (store *Store) operation(ctx context.Context, name string) *zap.Logger {
	logger, ctx := log.LoggerFromContext(ctx, store.logger)

	return log.Operation(ctx, logger, name)
}

// ID returns the store ID
func (store *Store) ID() string {
	return store.id
}

// Outcomes reduces results to the applied flags, in order
func Outcomes(results []Result) []bool {
	outcomes := make([]bool, len(results))

	for i, result := range results {
		outcomes[i] = result.Applied
	}

	return outcomes
}

// Apply applies a batch of transactions in order under one lock
// acquisition. Each transaction is checked against the tree as left by
// the transactions before it and is either applied completely or not at
// all. The context only carries log fields; Apply is not cancellable.
func (store *Store) Apply(ctx context.Context, batch []protocol.Transaction) []Result {
	logger := store.operation(ctx, "Apply")
	logger.Debug("start", zap.Int("transactions", len(batch)))

	results := make([]Result, len(batch))

	store.mu.Lock()
	defer store.mu.Unlock()

	for i, transaction := range batch {
		err := store.applyTransaction(logger.With(zap.Int("transaction", i)), transaction)
		results[i] = Result{Applied: err == nil, Err: err}
	}

	logger.Debug("return", zap.Bools("outcomes", Outcomes(results)))

	return results
}

// Read resolves every path of every path-set under one lock acquisition.
// A missing path yields a ReadResult carrying ErrPathNotFound rather than
// failing the batch.
func (store *Store) Read(ctx context.Context, query [][]string) [][]ReadResult {
	logger := store.operation(ctx, "Read")
	logger.Debug("start", zap.Int("path_sets", len(query)))

	results := make([][]ReadResult, len(query))

	store.mu.Lock()
	defer store.mu.Unlock()

	for i, paths := range query {
		results[i] = make([]ReadResult, len(paths))

		for j, path := range paths {
			results[i][j] = store.read(path)

			if results[i][j].Err != nil {
				logger.Debug("read miss", zap.String("path", path), zap.Error(results[i][j].Err))
			}
		}
	}

	logger.Debug("return")

	return results
}

func (store *Store) read(path string) ReadResult {
	result := ReadResult{Path: path}
	target, err := store.root.ResolveForRead(path)

	if err != nil {
		result.Err = err

		return result
	}

	result.Value, result.Err = target.MarshalJSON()

	return result
}

// Check evaluates one precondition against the current tree
// without modifying it
func (store *Store) Check(ctx context.Context, precondition protocol.Precondition) (bool, error) {
	logger := store.operation(ctx, "Check")
	logger.Debug("start", zap.Stringer("precondition", precondition))

	store.mu.Lock()
	defer store.mu.Unlock()

	ok, err := store.check(precondition)

	logger.Debug("return", zap.Bool("ok", ok), zap.Error(err))

	return ok, err
}

// Snapshot returns a deep copy of the whole tree
func (store *Store) Snapshot() *node.Node {
	store.mu.Lock()
	defer store.mu.Unlock()

	return store.root.Clone()
}

func (store *Store) String() string {
	return store.Snapshot().String()
}
