package state_machine

import (
	"context"
	"fmt"

	"github.com/coreos/etcd/raft/raftpb"
	"github.com/gogo/protobuf/proto"
	"github.com/jrife/agency/store"
	"github.com/jrife/agency/utils/log"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var _ StateMachine = (*Agency)(nil)

// AgencyConfig contains configuration
// for an agency state machine
type AgencyConfig struct {
	Logger *zap.Logger
	Store  *store.Store
}

// Agency is a state machine whose log entries are transaction
// batches applied to a store. Step must not be called concurrently.
type Agency struct {
	logger           *zap.Logger
	store            *store.Store
	lastAppliedIndex atomic.Uint64
	confChanges      []raftpb.ConfChange
}

// NewAgency creates an agency state machine. If config.Store is nil
// the agency gets a new empty store.
func NewAgency(config AgencyConfig) *Agency {
	agency := &Agency{logger: config.Logger, store: config.Store}

	if agency.logger == nil {
		agency.logger = zap.L()
	}

	if agency.store == nil {
		agency.store = store.New(store.Config{Logger: agency.logger})
	}

	agency.logger = agency.logger.With(zap.String("store", agency.store.ID()))

	return agency
}

// Store returns the store entries are applied to
func (agency *Agency) Store() *store.Store {
	return agency.store
}

// LastAppliedIndex implements StateMachine.LastAppliedIndex
func (agency *Agency) LastAppliedIndex() uint64 {
	return agency.lastAppliedIndex.Load()
}

// ConfChanges returns the membership changes seen so far, in log order
func (agency *Agency) ConfChanges() []raftpb.ConfChange {
	return append([]raftpb.ConfChange(nil), agency.confChanges...)
}

// Step implements StateMachine.Step. A normal entry carries a serialized
// batch and its reply is the encoded list of outcomes. An empty normal
// entry, such as the one a new leader appends, only advances the index.
func (agency *Agency) Step(entry raftpb.Entry) ([]byte, error) {
	ctx := log.WithFields(context.Background(), zap.Uint64("index", entry.Index), zap.Uint64("term", entry.Term))
	// The store logs the entry through the agency's logger
	ctx = log.WithLogger(ctx, agency.logger)
	logger := log.Operation(ctx, agency.logger, "Step")
	logger.Debug("start", zap.Stringer("type", entry.Type))

	if entry.Index <= agency.LastAppliedIndex() {
		logger.Debug("skipping entry that was already applied", zap.Uint64("last_applied_index", agency.LastAppliedIndex()))

		return nil, nil
	}

	var reply []byte

	switch entry.Type {
	case raftpb.EntryNormal:
		if len(entry.Data) == 0 {
			break
		}

		var err error

		if reply, err = agency.store.ApplyJSON(ctx, entry.Data); err != nil {
			logger.Error("could not apply entry", zap.Error(err))

			// The entry is committed no matter what it contains so
			// it still counts as applied
			agency.lastAppliedIndex.Store(entry.Index)

			return nil, fmt.Errorf("could not apply entry %d: %w", entry.Index, err)
		}
	case raftpb.EntryConfChange:
		var confChange raftpb.ConfChange

		if err := proto.Unmarshal(entry.Data, &confChange); err != nil {
			logger.Error("could not decode conf change", zap.Error(err))

			return nil, fmt.Errorf("could not decode conf change at entry %d: %s", entry.Index, err)
		}

		logger.Info("conf change", zap.Stringer("change_type", confChange.Type), zap.Uint64("node_id", confChange.NodeID))
		agency.confChanges = append(agency.confChanges, confChange)
	default:
		return nil, fmt.Errorf("unsupported entry type %s at entry %d", entry.Type, entry.Index)
	}

	agency.lastAppliedIndex.Store(entry.Index)
	logger.Debug("return")

	return reply, nil
}
