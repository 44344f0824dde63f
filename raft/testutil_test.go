package raft

import (
	"math/rand"
	"time"
)

// testConfig returns a small, fast configuration suitable for deterministic
// unit tests: tight timeouts, no jitter range unless a test asks for one.
func testConfig(n uint16) Configuration {
	return Configuration{
		NbOfServer:           n,
		ElectionTimeout:      150 * time.Millisecond,
		ElectionTimeoutRange: 0,
		HeartbeatTimeout:     50 * time.Millisecond,
	}
}

func seededFollower(config Configuration, id ServerID, now time.Time, seed int64) RaftState {
	return NewFollowerWithSource(config, id, now, rand.New(rand.NewSource(seed)))
}

func entries(terms ...uint64) Log {
	log := make(Log, len(terms))
	for i, t := range terms {
		log[i] = LogEntry{Index: uint64(i + 1), Term: t, Data: nil}
	}
	return log
}

func baseTime() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}
