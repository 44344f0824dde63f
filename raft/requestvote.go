package raft

import "time"

// BuildRequestVoteRequest builds the RequestVoteRequest a Candidate sends to
// every peer. It is a programmer error to call this from any other role.
func BuildRequestVoteRequest(state RaftState) (RequestVoteRequest, error) {
	if state.Role.Kind != RoleCandidate {
		return RequestVoteRequest{}, invariantError(
			ErrBuildRequestVoteNotCandidate,
			"BuildRequestVoteRequest called on a non-Candidate state",
		)
	}
	lastIndex, lastTerm := lastLogIndexAndTerm(state.Log)
	return RequestVoteRequest{
		CandidateTerm: state.CurrentTerm,
		CandidateID:   state.ID,
		LastLogIndex:  lastIndex,
		LastLogTerm:   lastTerm,
	}, nil
}

// candidateAtLeastAsUpToDate is the up-to-date check a receiver applies
// before granting a vote: the candidate's log is at least as up-to-date as
// the receiver's iff the candidate's last term is strictly greater, or equal
// terms with an index at least as large.
func candidateAtLeastAsUpToDate(candidateLastTerm, candidateLastIndex, receiverLastTerm, receiverLastIndex uint64) bool {
	if candidateLastTerm != receiverLastTerm {
		return candidateLastTerm > receiverLastTerm
	}
	return candidateLastIndex >= receiverLastIndex
}

// HandleRequestVoteRequest is the receiver side of RequestVote. It returns
// the receiver's new state and the single outbound response addressed back
// to the candidate.
func HandleRequestVoteRequest(state RaftState, req RequestVoteRequest, now time.Time) (RaftState, []Outbound) {
	if req.CandidateTerm < state.CurrentTerm {
		resp := RequestVoteResponse{Term: state.CurrentTerm, VoteGranted: false, Voter: state.ID}
		return state, []Outbound{{To: req.CandidateID, Message: Message{RequestVoteResponse: &resp}}}
	}

	next := state
	if req.CandidateTerm > state.CurrentTerm {
		next = BecomeFollower(state, req.CandidateTerm, nil, now)
	}

	votedFor := currentVotedFor(next)
	receiverLastIndex, receiverLastTerm := lastLogIndexAndTerm(next.Log)

	grant := (votedFor == nil || *votedFor == req.CandidateID) &&
		candidateAtLeastAsUpToDate(req.LastLogTerm, req.LastLogIndex, receiverLastTerm, receiverLastIndex)

	if !grant {
		resp := RequestVoteResponse{Term: next.CurrentTerm, VoteGranted: false, Voter: next.ID}
		return next, []Outbound{{To: req.CandidateID, Message: Message{RequestVoteResponse: &resp}}}
	}

	candidate := req.CandidateID
	next.Role = followerRole(FollowerState{
		VotedFor:         &candidate,
		CurrentLeader:    currentLeaderOf(next),
		ElectionDeadline: electionDeadline(next.Configuration, now, next.rng),
	})

	resp := RequestVoteResponse{Term: next.CurrentTerm, VoteGranted: true, Voter: next.ID}
	return next, []Outbound{{To: req.CandidateID, Message: Message{RequestVoteResponse: &resp}}}
}

// currentVotedFor returns state's voted_for if it is a Follower, or state.ID
// if it is a Candidate or a Leader (both voted for themselves in the current
// term), so a Leader never grants a second vote in its own term.
func currentVotedFor(state RaftState) *ServerID {
	switch state.Role.Kind {
	case RoleFollower:
		return state.Role.Follower.VotedFor
	case RoleCandidate, RoleLeader:
		self := state.ID
		return &self
	default:
		return nil
	}
}

// currentLeaderOf preserves a Follower's known current_leader across a vote
// grant; other roles have none recorded.
func currentLeaderOf(state RaftState) *ServerID {
	if state.Role.Kind == RoleFollower {
		return state.Role.Follower.CurrentLeader
	}
	return nil
}

// HandleRequestVoteResponse is the Candidate-only response handler. On a
// majority of granted votes, state transitions to Leader and the outbound is
// a heartbeat AppendEntries to every peer.
func HandleRequestVoteResponse(state RaftState, resp RequestVoteResponse, now time.Time) (RaftState, []Outbound) {
	if resp.Term > state.CurrentTerm {
		return BecomeFollower(state, resp.Term, nil, now), nil
	}
	if state.Role.Kind != RoleCandidate || resp.Term < state.CurrentTerm {
		return state, nil
	}
	if !resp.VoteGranted {
		return state, nil
	}

	cs := *state.Role.Candidate
	cs.VoteCount++
	next := state
	next.Role = candidateRole(cs)

	if int(cs.VoteCount) < next.Configuration.Majority() {
		return next, nil
	}

	leaderState := BecomeLeader(next, now)
	return buildInitialLeaderBurst(leaderState, now)
}
