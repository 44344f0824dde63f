// Package clusterconfig loads the host-facing cluster description
// (server count, timing constants) from YAML and turns it into a
// raft.Configuration. It reads no peer list and returns no server ids.
package clusterconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vbmithr/raft"
)

// File is the on-disk YAML shape. Durations are given as Go duration
// strings ("150ms", "1s").
type File struct {
	NbOfServer           uint16 `yaml:"nb_of_server"`
	ElectionTimeout      string `yaml:"election_timeout"`
	ElectionTimeoutRange string `yaml:"election_timeout_range"`
	HeartbeatTimeout     string `yaml:"heartbeat_timeout"`
}

// Load reads and validates a cluster config file at path.
func Load(path string) (raft.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return raft.Configuration{}, fmt.Errorf("clusterconfig: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates raw YAML bytes into a raft.Configuration.
func Parse(data []byte) (raft.Configuration, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return raft.Configuration{}, fmt.Errorf("clusterconfig: parsing config: %w", err)
	}
	return f.toConfiguration()
}

func (f File) toConfiguration() (raft.Configuration, error) {
	if f.NbOfServer == 0 {
		return raft.Configuration{}, fmt.Errorf("clusterconfig: nb_of_server must be > 0")
	}

	election, err := time.ParseDuration(nonEmpty(f.ElectionTimeout, "150ms"))
	if err != nil {
		return raft.Configuration{}, fmt.Errorf("clusterconfig: election_timeout: %w", err)
	}
	electionRange, err := time.ParseDuration(nonEmpty(f.ElectionTimeoutRange, "150ms"))
	if err != nil {
		return raft.Configuration{}, fmt.Errorf("clusterconfig: election_timeout_range: %w", err)
	}
	heartbeat, err := time.ParseDuration(nonEmpty(f.HeartbeatTimeout, "50ms"))
	if err != nil {
		return raft.Configuration{}, fmt.Errorf("clusterconfig: heartbeat_timeout: %w", err)
	}
	if heartbeat >= election {
		return raft.Configuration{}, fmt.Errorf(
			"clusterconfig: heartbeat_timeout (%s) must be well below election_timeout (%s)", heartbeat, election,
		)
	}

	return raft.Configuration{
		NbOfServer:           f.NbOfServer,
		ElectionTimeout:      election,
		ElectionTimeoutRange: electionRange,
		HeartbeatTimeout:     heartbeat,
	}, nil
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
