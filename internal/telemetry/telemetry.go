// Package telemetry gives the ambient host packages (simulation, cmd/raftsim)
// a structured logger and Prometheus gauges. The raft core itself stays free
// of this dependency: it never performs I/O.
package telemetry

import (
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog.Logger writing to stderr, tagged with the
// server id, using structured fields instead of a bare format string.
func NewLogger(serverID uint16) zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Uint16("server", serverID).Logger()
}

// Metrics is the set of per-server gauges exposed to a Prometheus scraper.
// Values are updated by the simulation harness after every handler call.
type Metrics struct {
	CurrentTerm prometheus.Gauge
	CommitIndex prometheus.Gauge
	Role        prometheus.Gauge // 0=Follower, 1=Candidate, 2=Leader
	LogLength   prometheus.Gauge
}

// NewMetrics registers a Metrics set for one server under reg. Every gauge
// carries a constant "server" label, so the servers of a simulated cluster
// can share one registry without duplicate registration panics.
func NewMetrics(reg prometheus.Registerer, serverID uint16) *Metrics {
	labels := prometheus.Labels{"server": strconv.Itoa(int(serverID))}
	m := &Metrics{
		CurrentTerm: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "raft_current_term",
			Help:        "Current Raft term of this server.",
			ConstLabels: labels,
		}),
		CommitIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "raft_commit_index",
			Help:        "Highest log index known to be committed.",
			ConstLabels: labels,
		}),
		Role: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "raft_role",
			Help:        "Current role: 0=Follower, 1=Candidate, 2=Leader.",
			ConstLabels: labels,
		}),
		LogLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "raft_log_length",
			Help:        "Number of entries in the server's log.",
			ConstLabels: labels,
		}),
	}
	reg.MustRegister(m.CurrentTerm, m.CommitIndex, m.Role, m.LogLength)
	return m
}
