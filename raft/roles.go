package raft

import (
	"math/rand"
	"time"
)

// jitterSource produces the election-timeout jitter. It is threaded
// explicitly through RaftState rather than read from a global, so tests can
// supply a deterministic source (see NewFollowerWithSource). The zero value
// is not usable; NewFollower/NewFollowerWithSource always install one.
type jitterSource interface {
	// jitter returns a value uniformly distributed in [-halfRange, +halfRange].
	jitter(halfRange time.Duration) time.Duration
}

type randJitter struct {
	r *rand.Rand
}

func (j *randJitter) jitter(halfRange time.Duration) time.Duration {
	if halfRange <= 0 {
		return 0
	}
	// [0, 2*halfRange] shifted to [-halfRange, +halfRange].
	n := j.r.Int63n(int64(2*halfRange) + 1)
	return time.Duration(n) - halfRange
}

func electionDeadline(config Configuration, now time.Time, rng jitterSource) time.Time {
	jit := rng.jitter(config.ElectionTimeoutRange / 2)
	return now.Add(config.ElectionTimeout + jit)
}

// NewFollower constructs a fresh Follower at term 0 with an empty log, using
// a math/rand source seeded from id+1 for jitter. Prefer
// NewFollowerWithSource in tests, where determinism matters.
func NewFollower(config Configuration, id ServerID, now time.Time) RaftState {
	return NewFollowerWithSource(config, id, now, rand.New(rand.NewSource(int64(id)+1)))
}

// NewFollowerWithSource is NewFollower with an explicit *rand.Rand, for
// deterministic tests.
func NewFollowerWithSource(config Configuration, id ServerID, now time.Time, r *rand.Rand) RaftState {
	rng := &randJitter{r: r}
	state := RaftState{
		ID:            id,
		CurrentTerm:   0,
		Log:           nil,
		LogSize:       0,
		CommitIndex:   0,
		Configuration: config,
		rng:           rng,
	}
	state.Role = followerRole(FollowerState{
		VotedFor:         nil,
		CurrentLeader:    nil,
		ElectionDeadline: electionDeadline(config, now, rng),
	})
	return state
}

// BecomeFollower transitions state to Follower at the given term. If state
// was a Candidate at the same term, its self-vote is retained (VotedFor ==
// state.ID); otherwise VotedFor is cleared. currentLeader may be nil when the
// identity of the leader is not yet known to the caller. The election
// deadline is reset with fresh jitter.
func BecomeFollower(state RaftState, term uint64, currentLeader *ServerID, now time.Time) RaftState {
	var votedFor *ServerID
	if state.Role.Kind == RoleCandidate && term == state.CurrentTerm {
		self := state.ID
		votedFor = &self
	}

	next := state
	next.CurrentTerm = term
	next.Role = followerRole(FollowerState{
		VotedFor:         votedFor,
		CurrentLeader:    currentLeader,
		ElectionDeadline: electionDeadline(state.Configuration, now, state.rng),
	})
	return next
}

// BecomeCandidate transitions state to a new Candidate term: current_term is
// incremented, the candidate casts its own self-vote (vote_count starts at
// 1), and the election deadline is reset with fresh jitter.
func BecomeCandidate(state RaftState, now time.Time) RaftState {
	next := state
	next.CurrentTerm = state.CurrentTerm + 1
	next.Role = candidateRole(CandidateState{
		VoteCount:        1,
		ElectionDeadline: electionDeadline(state.Configuration, now, state.rng),
	})
	return next
}

// BecomeLeader transitions state to Leader. For every peer (every
// configured server id other than state.ID) a ServerIndex is initialized
// with next_index = last_log_index+1, match_index = 0, no outstanding
// request, and heartbeat_deadline = now + heartbeat_timeout.
//
// The deadline is deliberately in the future, not now, and this function
// emits nothing: the initial AppendEntries burst is returned by
// HandleRequestVoteResponse (via buildInitialLeaderBurst, which ignores these
// deadlines). HandleHeartbeatTimeout called right after this sends nothing,
// since no peer's deadline has passed yet.
func BecomeLeader(state RaftState, now time.Time) RaftState {
	lastIndex, _ := lastLogIndexAndTerm(state.Log)

	indices := make([]ServerIndex, 0, int(state.Configuration.NbOfServer)-1)
	for i := ServerID(0); i < ServerID(state.Configuration.NbOfServer); i++ {
		if i == state.ID {
			continue
		}
		indices = append(indices, ServerIndex{
			ServerID:           i,
			NextIndex:          lastIndex + 1,
			MatchIndex:         0,
			OutstandingRequest: false,
			HeartbeatDeadline:  now.Add(state.Configuration.HeartbeatTimeout),
		})
	}

	next := state
	next.Role = leaderRole(LeaderState{Indices: indices})
	return next
}

// peerIndex finds the ServerIndex for the given peer within a LeaderState,
// returning its slice position too so callers can replace it immutably.
func peerIndex(ls LeaderState, id ServerID) (ServerIndex, int, bool) {
	for i, si := range ls.Indices {
		if si.ServerID == id {
			return si, i, true
		}
	}
	return ServerIndex{}, -1, false
}

// withPeerIndex returns a copy of ls with the entry at position i replaced.
func withPeerIndex(ls LeaderState, i int, si ServerIndex) LeaderState {
	next := LeaderState{Indices: make([]ServerIndex, len(ls.Indices))}
	copy(next.Indices, ls.Indices)
	next.Indices[i] = si
	return next
}
