package simulation

import (
	"time"

	"github.com/vbmithr/raft"
)

// envelope is one outbound message in flight, scheduled for delivery at a
// specific time so tests can step the simulation deterministically instead
// of racing real goroutines and real time.
type envelope struct {
	from, to raft.ServerID
	message  raft.Message
	deliverAt time.Time
}

// transport is an in-memory, single-process stand-in for a real network
// transport: a plain queue instead of RPC-over-the-wire plumbing, since the
// simulation never leaves one process (see DESIGN.md).
type transport struct {
	latency time.Duration
	// partitioned holds server ids that currently drop every message sent to
	// or from them, modeling a network partition without removing the
	// server's state.
	partitioned map[raft.ServerID]bool
	queue       []envelope
}

func newTransport(latency time.Duration) *transport {
	return &transport{latency: latency, partitioned: map[raft.ServerID]bool{}}
}

func (t *transport) send(now time.Time, from raft.ServerID, out raft.Outbound) {
	if t.partitioned[from] || t.partitioned[out.To] {
		return
	}
	t.queue = append(t.queue, envelope{
		from:      from,
		to:        out.To,
		message:   out.Message,
		deliverAt: now.Add(t.latency),
	})
}

// due removes and returns every envelope scheduled at or before now, in the
// order they were sent.
func (t *transport) due(now time.Time) []envelope {
	var ready []envelope
	var pending []envelope
	for _, e := range t.queue {
		if !e.deliverAt.After(now) {
			ready = append(ready, e)
		} else {
			pending = append(pending, e)
		}
	}
	t.queue = pending
	return ready
}

// setPartitioned toggles whether id's messages are dropped, for testing
// network-partition scenarios.
func (t *transport) setPartitioned(id raft.ServerID, partitioned bool) {
	t.partitioned[id] = partitioned
}
