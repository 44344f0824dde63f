package kvstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbmithr/raft"
	"github.com/vbmithr/raft/linearizability"
	"github.com/vbmithr/raft/simulation"
)

// TestKvStoreHistoryIsLinearizable drives a single client through a sequence
// of Put/Append/Get calls against a simulated cluster, one at a time so each
// completes (commits and is drained) before the next starts, and checks the
// resulting history with linearizability.CheckHistory. This exercises the
// checker against real consensus-replicated execution rather than a
// hand-built history, which is the point of carrying it forward at all: a
// single unit test on Store.Apply alone cannot catch a replication bug that
// produces an out-of-order, but individually plausible, history.
func TestKvStoreHistoryIsLinearizable(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	config := raft.Configuration{
		NbOfServer:           3,
		ElectionTimeout:      150 * time.Millisecond,
		ElectionTimeoutRange: 100 * time.Millisecond,
		HeartbeatTimeout:     20 * time.Millisecond,
	}
	cluster := simulation.NewCluster(config, now, time.Millisecond)
	leaderID, now := electLeader(t, cluster, now)

	machine := NewMachine(cluster, leaderID)
	client := NewClient(cluster)

	steps := []struct {
		op    Command
		value string
	}{
		{Put, "1"},
		{Append, "-a"},
		{Get, ""},
		{Append, "-b"},
		{Get, ""},
		{Put, "reset"},
		{Get, ""},
	}

	var history []linearizability.CallReturn
	for _, step := range steps {
		callAt := now.UnixNano()

		var index uint64
		var err error
		switch step.op {
		case Put:
			index, err = client.Put(now, "k", step.value)
		case Append:
			index, err = client.Append(now, "k", step.value)
		case Get:
			index, err = client.Get(now, "k")
		}
		require.NoError(t, err)

		for i := 0; i < 2000; i++ {
			now = now.Add(time.Millisecond)
			cluster.Tick(now)
			machine.Drain()
			if cluster.State(leaderID).CommitIndex >= index {
				break
			}
		}

		value, _ := machine.Value("k")
		history = append(history, linearizability.CallReturn{
			Op:     Op{Command: step.op, Key: "k", Value: step.value},
			Result: Result{Value: value},
			Call:   callAt,
			Return: now.UnixNano(),
		})
	}

	ok := linearizability.CheckHistory(history)
	assert.True(t, ok, "sequential Put/Append/Get history against a single key must be linearizable")
}
