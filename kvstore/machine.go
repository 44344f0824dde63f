package kvstore

import (
	"github.com/vbmithr/raft"
	"github.com/vbmithr/raft/simulation"
)

// Machine applies one server's committed log entries to a Store. It is
// pulled rather than pushed: callers invoke Drain after stepping the
// simulation instead of blocking on a channel, since there is no host event
// loop here to block.
type Machine struct {
	cluster     *simulation.Cluster
	id          raft.ServerID
	store       *Store
	lastApplied uint64
}

// NewMachine attaches a fresh Store to server id within cluster.
func NewMachine(cluster *simulation.Cluster, id raft.ServerID) *Machine {
	return &Machine{cluster: cluster, id: id, store: NewStore()}
}

// Drain applies every newly committed entry (index > lastApplied, <=
// commit_index) on the machine's server, in order, and returns their
// Results. Entries whose Data fails to decode as an Op are skipped; that
// indicates a bug in whatever proposed them, not a Raft-level failure.
func (m *Machine) Drain() []Result {
	state := m.cluster.State(m.id)

	var results []Result
	for index := m.lastApplied + 1; index <= state.CommitIndex; index++ {
		entry, ok := entryAt(state.Log, index)
		if !ok {
			break
		}
		op, err := DecodeOp(entry.Data)
		if err != nil {
			m.lastApplied = index
			continue
		}
		results = append(results, m.store.Apply(op))
		m.lastApplied = index
	}
	return results
}

// Value returns the current value for key, and whether it is present,
// reading directly from the machine's applied state. This is not a
// consensus read: it is a local, possibly stale, view (no linearizable "read
// index" optimization is implemented).
func (m *Machine) Value(key string) (string, bool) {
	v, ok := m.store.data[key]
	return v, ok
}

func entryAt(log raft.Log, index uint64) (raft.LogEntry, bool) {
	if index == 0 || index > uint64(len(log)) {
		return raft.LogEntry{}, false
	}
	return log[index-1], true
}
