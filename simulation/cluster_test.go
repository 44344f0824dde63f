package simulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbmithr/raft"
)

func smallConfig() raft.Configuration {
	return raft.Configuration{
		NbOfServer:           3,
		ElectionTimeout:      150 * time.Millisecond,
		ElectionTimeoutRange: 100 * time.Millisecond,
		HeartbeatTimeout:     20 * time.Millisecond,
	}
}

func TestNewClusterStartsAsFollowers(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCluster(smallConfig(), now, time.Millisecond)

	for _, id := range ServerIDRange(smallConfig()) {
		state := c.State(id)
		assert.Equal(t, raft.RoleFollower, state.Role.Kind)
	}
	_, ok := c.Leader()
	assert.False(t, ok)
}

func TestClusterElectsALeader(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCluster(smallConfig(), now, time.Millisecond)

	var leaderID raft.ServerID
	found := false
	for i := 0; i < 2000 && !found; i++ {
		now = now.Add(time.Millisecond)
		c.Tick(now)
		leaderID, found = c.Leader()
	}
	require.True(t, found, "a leader should emerge within the simulated window")

	leaderState := c.State(leaderID)
	assert.Equal(t, raft.RoleLeader, leaderState.Role.Kind)
}

func TestClusterProposeReplicatesAndCommits(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCluster(smallConfig(), now, time.Millisecond)

	for i := 0; i < 2000; i++ {
		now = now.Add(time.Millisecond)
		c.Tick(now)
		if _, ok := c.Leader(); ok {
			break
		}
	}
	_, ok := c.Leader()
	require.True(t, ok)

	index, proposed := c.Propose(now, []byte("hello"))
	require.True(t, proposed)
	assert.Equal(t, uint64(1), index)

	for i := 0; i < 2000; i++ {
		now = now.Add(time.Millisecond)
		c.Tick(now)
		leaderID, _ := c.Leader()
		if c.State(leaderID).CommitIndex >= index {
			break
		}
	}

	leaderID, ok := c.Leader()
	require.True(t, ok)
	assert.GreaterOrEqual(t, c.State(leaderID).CommitIndex, index)
}

func TestClusterProposeWithNoLeaderFails(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCluster(smallConfig(), now, time.Millisecond)

	_, ok := c.Propose(now, []byte("x"))
	assert.False(t, ok, "no leader has been elected yet")
}

func TestClusterPartitionDropsMessages(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCluster(smallConfig(), now, time.Millisecond)

	var leaderID raft.ServerID
	found := false
	for i := 0; i < 2000 && !found; i++ {
		now = now.Add(time.Millisecond)
		c.Tick(now)
		leaderID, found = c.Leader()
	}
	require.True(t, found)

	c.Partition(leaderID)
	termBeforeHeal := c.State(leaderID).CurrentTerm

	// drive the rest of the cluster through another election while the
	// leader is isolated.
	for i := 0; i < 2000; i++ {
		now = now.Add(time.Millisecond)
		c.Tick(now)
	}

	c.Heal(leaderID)
	for i := 0; i < 2000; i++ {
		now = now.Add(time.Millisecond)
		c.Tick(now)
	}

	assert.GreaterOrEqual(t, c.State(leaderID).CurrentTerm, termBeforeHeal)
}

func TestRegistryExposesMetrics(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCluster(smallConfig(), now, time.Millisecond)

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
