package walcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbmithr/raft"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	voter := raft.ServerID(7)
	config := raft.Configuration{NbOfServer: 3, ElectionTimeout: 1, ElectionTimeoutRange: 0, HeartbeatTimeout: 1}
	state := raft.NewFollower(config, 0, testTime())
	state.CurrentTerm = 4
	state.Log = raft.Log{
		{Index: 1, Term: 1, Data: []byte("a")},
		{Index: 2, Term: 3, Data: []byte("b")},
	}
	state.Role.Follower.VotedFor = &voter

	data, err := Encode(state)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	term, votedFor, log, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), term)
	require.NotNil(t, votedFor)
	assert.Equal(t, voter, *votedFor)
	assert.Equal(t, state.Log, log)
}

func TestDecodeEmptyInput(t *testing.T) {
	term, votedFor, log, err := Decode(nil)
	require.NoError(t, err)
	assert.Zero(t, term)
	assert.Nil(t, votedFor)
	assert.Nil(t, log)
}

func TestEncodeNonFollowerOmitsVotedFor(t *testing.T) {
	config := raft.Configuration{NbOfServer: 3, ElectionTimeout: 1, ElectionTimeoutRange: 0, HeartbeatTimeout: 1}
	state := raft.NewFollower(config, 0, testTime())
	candidate := raft.BecomeCandidate(state, testTime())

	data, err := Encode(candidate)
	require.NoError(t, err)

	_, votedFor, _, err := Decode(data)
	require.NoError(t, err)
	assert.Nil(t, votedFor)
}
