package walcodec

import (
	"bytes"

	"github.com/vbmithr/raft"
)

// persistentState is the gob-encoded shape of the persisted fields:
// current_term, voted_for, and the log. ServerID is a pointer so an absent
// vote can round-trip as nil.
type persistentState struct {
	CurrentTerm uint64
	VotedFor    *raft.ServerID
	Log         raft.Log
}

// Encode serializes the persistent fields of state. Callers are expected to
// invoke this (and block on the write completing) before any outbound
// message produced alongside state is considered sent.
func Encode(state raft.RaftState) ([]byte, error) {
	var votedFor *raft.ServerID
	if state.Role.Kind == raft.RoleFollower {
		votedFor = state.Role.Follower.VotedFor
	}

	buf := new(bytes.Buffer)
	enc := newEncoder(buf)
	if err := enc.encode(persistentState{
		CurrentTerm: state.CurrentTerm,
		VotedFor:    votedFor,
		Log:         state.Log,
	}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode recovers (current_term, voted_for, log) from bytes previously
// produced by Encode. log_size is not part of the encoding; callers should
// set it to len(log) after decoding.
func Decode(data []byte) (currentTerm uint64, votedFor *raft.ServerID, log raft.Log, err error) {
	if len(data) == 0 {
		return 0, nil, nil, nil
	}
	dec := newDecoder(bytes.NewBuffer(data))
	var ps persistentState
	if err := dec.decode(&ps); err != nil {
		return 0, nil, nil, err
	}
	return ps.CurrentTerm, ps.VotedFor, ps.Log, nil
}
