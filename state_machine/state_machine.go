package state_machine

import (
	"github.com/coreos/etcd/raft/raftpb"
)

// StateMachine consumes committed raft log entries in index order
type StateMachine interface {
	// Step applies one committed entry and returns the reply
	// for whoever proposed it. Entries at or below
	// LastAppliedIndex are ignored.
	Step(entry raftpb.Entry) ([]byte, error)
	// LastAppliedIndex returns the index of the
	// last entry passed to Step
	LastAppliedIndex() uint64
}
