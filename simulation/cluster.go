// Package simulation is an in-memory, deterministic host harness: it
// serializes calls per server, persists the relevant slice of each RaftState
// before treating a reply as sent, and can run many independent servers
// in-process, stepped by an explicit clock rather than real goroutines and
// real time.
package simulation

import (
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/vbmithr/raft"
	"github.com/vbmithr/raft/internal/telemetry"
	"github.com/vbmithr/raft/internal/walcodec"
)

// server bundles one simulated server's state with its ambient collaborators.
type server struct {
	state     raft.RaftState
	persister *walcodec.Persister
	metrics   *telemetry.Metrics
	log       zerolog.Logger
}

// Cluster drives a fixed-size set of raft.RaftState engines against an
// in-memory transport.
type Cluster struct {
	config    raft.Configuration
	servers   map[raft.ServerID]*server
	transport *transport
	registry  *prometheus.Registry
}

// NewCluster creates a Cluster of config.NbOfServer Followers at term 0,
// seeded independently so each server's election jitter differs, just as
// distinct physical servers would never share a PRNG state.
func NewCluster(config raft.Configuration, now time.Time, latency time.Duration) *Cluster {
	c := &Cluster{
		config:    config,
		servers:   make(map[raft.ServerID]*server, config.NbOfServer),
		transport: newTransport(latency),
		registry:  prometheus.NewRegistry(),
	}
	for _, i := range ServerIDRange(config) {
		state := raft.NewFollower(config, i, now)
		c.servers[i] = &server{
			state:     state,
			persister: walcodec.NewPersister(),
			metrics:   telemetry.NewMetrics(c.registry, uint16(i)),
			log:       telemetry.NewLogger(uint16(i)),
		}
		c.persist(i)
	}
	return c
}

// ServerIDRange yields every server id in [0, config.NbOfServer) — a small
// helper kept at package scope so both NewCluster and tests can enumerate
// peers identically.
func ServerIDRange(config raft.Configuration) []raft.ServerID {
	ids := make([]raft.ServerID, config.NbOfServer)
	for i := range ids {
		ids[i] = raft.ServerID(i)
	}
	return ids
}

func (c *Cluster) persist(id raft.ServerID) {
	srv := c.servers[id]
	data, err := walcodec.Encode(srv.state)
	if err != nil {
		srv.log.Error().Err(err).Msg("failed to persist raft state")
		return
	}
	srv.persister.SaveRaftState(data)
}

func (c *Cluster) updateMetrics(id raft.ServerID) {
	srv := c.servers[id]
	srv.metrics.CurrentTerm.Set(float64(srv.state.CurrentTerm))
	srv.metrics.CommitIndex.Set(float64(srv.state.CommitIndex))
	srv.metrics.Role.Set(float64(srv.state.Role.Kind))
	srv.metrics.LogLength.Set(float64(len(srv.state.Log)))
}

// State returns a copy of server id's current RaftState.
func (c *Cluster) State(id raft.ServerID) raft.RaftState {
	return c.servers[id].state
}

// Leader returns the id of a server that currently believes itself Leader,
// if any.
func (c *Cluster) Leader() (raft.ServerID, bool) {
	for id, srv := range c.servers {
		if srv.state.Role.Kind == raft.RoleLeader {
			return id, true
		}
	}
	return 0, false
}

// Registry exposes the cluster's Prometheus registry, e.g. for an
// /metrics HTTP handler in a host binary.
func (c *Cluster) Registry() *prometheus.Registry {
	return c.registry
}

// Partition drops every message sent to or from id until Heal is called for
// it, modeling a network partition that isolates one server from the rest of
// the cluster.
func (c *Cluster) Partition(id raft.ServerID) {
	c.transport.setPartitioned(id, true)
}

// Heal reverses a prior Partition.
func (c *Cluster) Heal(id raft.ServerID) {
	c.transport.setPartitioned(id, false)
}

// apply runs a handler's output through persistence and metrics, and enqueues
// its outbound messages onto the transport — the shared tail of every
// operation below.
func (c *Cluster) apply(now time.Time, id raft.ServerID, next raft.RaftState, outbound []raft.Outbound) {
	c.servers[id].state = next
	c.persist(id)
	c.updateMetrics(id)
	for _, out := range outbound {
		c.transport.send(now, id, out)
	}
}

// Tick advances the simulation to now: it delivers every message scheduled
// for delivery at or before now, then fires any timer (election or
// heartbeat) whose deadline has passed, for every server. Call it
// repeatedly with a monotonically increasing now to drive the cluster.
func (c *Cluster) Tick(now time.Time) {
	for _, env := range c.sortedDue(now) {
		srv, ok := c.servers[env.to]
		if !ok {
			continue
		}
		next, outbound := raft.HandleMessage(srv.state, env.message, now)
		c.apply(now, env.to, next, outbound)
	}

	for _, id := range c.sortedIDs() {
		srv := c.servers[id]
		event, ok := raft.NextTimeoutEvent(srv.state, now)
		if !ok || event.Deadline.After(now) {
			continue
		}
		var next raft.RaftState
		var outbound []raft.Outbound
		switch event.Kind {
		case raft.ElectionTimeout:
			next, outbound = raft.HandleNewElectionTimeout(srv.state, now)
		case raft.HeartbeatTimeout:
			next, outbound = raft.HandleHeartbeatTimeout(srv.state, now)
		}
		c.apply(now, id, next, outbound)
	}
}

// Propose implements the host side of add_log: append data to the current
// Leader's log (if any) and immediately fire a heartbeat timeout so the
// entry starts replicating, matching the contract documented on
// raft.AddLog. It reports whether a Leader was found to propose to.
func (c *Cluster) Propose(now time.Time, data []byte) (index uint64, ok bool) {
	id, ok := c.Leader()
	if !ok {
		return 0, false
	}
	srv := c.servers[id]
	next, err := raft.AddLog(srv.state, data)
	if err != nil {
		srv.log.Error().Err(err).Msg("propose failed")
		return 0, false
	}
	c.servers[id].state = next
	c.persist(id)

	heartbeatState, outbound := raft.HandleHeartbeatTimeout(next, now)
	c.apply(now, id, heartbeatState, outbound)

	lastIndex, _ := raft.LastLogIndexAndTerm(c.servers[id].state)
	return lastIndex, true
}

func (c *Cluster) sortedIDs() []raft.ServerID {
	ids := make([]raft.ServerID, 0, len(c.servers))
	for id := range c.servers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c *Cluster) sortedDue(now time.Time) []envelope {
	due := c.transport.due(now)
	sort.SliceStable(due, func(i, j int) bool { return due[i].deliverAt.Before(due[j].deliverAt) })
	return due
}
