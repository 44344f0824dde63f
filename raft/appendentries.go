package raft

import "time"

// buildAppendEntriesForPeer builds the AppendEntries request for a single
// peer, always marking outstanding_request and refreshing the peer's
// heartbeat_deadline. It does not itself consult outstanding_request or the
// heartbeat deadline — callers (HandleHeartbeatTimeout for ordinary
// heartbeats, the initial-burst path in HandleRequestVoteResponse) decide
// when a peer is due.
func buildAppendEntriesForPeer(state RaftState, peerID ServerID, now time.Time) (RaftState, Outbound) {
	ls := *state.Role.Leader
	si, idx, _ := peerIndex(ls, peerID)

	prevLogIndex := si.NextIndex - 1
	prevLogTerm := termAt(state.Log, prevLogIndex)
	entries := tailFrom(state.Log, prevLogIndex)

	req := AppendEntriesRequest{
		LeaderTerm:   state.CurrentTerm,
		LeaderID:     state.ID,
		PrevLogIndex: prevLogIndex,
		PrevLogTerm:  prevLogTerm,
		Entries:      entries,
		LeaderCommit: state.CommitIndex,
	}

	si.OutstandingRequest = true
	si.HeartbeatDeadline = now.Add(state.Configuration.HeartbeatTimeout)
	next := state
	next.Role = leaderRole(withPeerIndex(ls, idx, si))

	return next, Outbound{To: peerID, Message: Message{AppendEntriesRequest: &req}}
}

// buildInitialLeaderBurst sends an AppendEntries (heartbeat) to every peer
// unconditionally. Unlike an ordinary heartbeat timeout, a freshly elected
// Leader's first burst ignores each peer's heartbeat_deadline (which
// BecomeLeader deliberately sets in the future) so followers learn about the
// new leader without waiting out a full heartbeat interval.
func buildInitialLeaderBurst(state RaftState, now time.Time) (RaftState, []Outbound) {
	next := state
	outbound := make([]Outbound, 0, len(state.Role.Leader.Indices))
	for _, si := range state.Role.Leader.Indices {
		var out Outbound
		next, out = buildAppendEntriesForPeer(next, si.ServerID, now)
		outbound = append(outbound, out)
	}
	return next, outbound
}

// BuildAppendEntriesRequest builds the AppendEntries request for a single
// peer, honoring the outstanding_request back-pressure rule: at most one
// AppendEntries in flight per peer at a time. It is a programmer error to
// call this on a non-Leader state, or to address a peer the Leader is not
// tracking; both report an InvariantError and leave state unchanged. A peer
// with a request already outstanding is not an error: it returns state
// unchanged, no outbound, and a nil error — the caller should simply wait for
// the in-flight request to resolve.
func BuildAppendEntriesRequest(state RaftState, peerID ServerID, now time.Time) (RaftState, *Outbound, error) {
	if state.Role.Kind != RoleLeader {
		return state, nil, invariantError(
			ErrBuildAppendEntriesNotLeader,
			"BuildAppendEntriesRequest called on a non-Leader state",
		)
	}
	si, _, ok := peerIndex(*state.Role.Leader, peerID)
	if !ok {
		return state, nil, invariantError(
			ErrUnknownPeer,
			"BuildAppendEntriesRequest addressed a peer the Leader is not tracking",
		)
	}
	if si.OutstandingRequest {
		return state, nil, nil
	}
	next, out := buildAppendEntriesForPeer(state, peerID, now)
	return next, &out, nil
}

// HandleAppendEntriesRequest is the receiver side of AppendEntries: term
// checks, the log-match check, truncate+append, and commit-index
// advancement. It returns the receiver's new state and the single outbound
// response addressed back to the leader.
func HandleAppendEntriesRequest(state RaftState, req AppendEntriesRequest, now time.Time) (RaftState, []Outbound) {
	if req.LeaderTerm < state.CurrentTerm {
		lastIndex, lastTerm := lastLogIndexAndTerm(state.Log)
		resp := AppendEntriesResponse{
			Kind:                 AppendEntriesLogFailure,
			Term:                 state.CurrentTerm,
			Replier:              state.ID,
			ReceiverLastLogIndex: lastIndex,
			ReceiverLastLogTerm:  lastTerm,
		}
		return state, []Outbound{{To: req.LeaderID, Message: Message{AppendEntriesResponse: &resp}}}
	}

	leader := req.LeaderID
	next := BecomeFollower(state, req.LeaderTerm, &leader, now)

	// Reject unless the entry immediately preceding the new ones already
	// agrees on both index and term.
	if req.PrevLogIndex > 0 {
		entry, ok := entryAt(next.Log, req.PrevLogIndex)
		if !ok || entry.Term != req.PrevLogTerm {
			lastIndex, lastTerm := lastLogIndexAndTerm(next.Log)
			resp := AppendEntriesResponse{
				Kind:                 AppendEntriesLogFailure,
				Term:                 next.CurrentTerm,
				Replier:              next.ID,
				ReceiverLastLogIndex: lastIndex,
				ReceiverLastLogTerm:  lastTerm,
			}
			return next, []Outbound{{To: req.LeaderID, Message: Message{AppendEntriesResponse: &resp}}}
		}
	}

	next.Log = truncateAndAppend(next.Log, req.PrevLogIndex, req.Entries)
	next.LogSize = uint64(len(next.Log))

	lastIndex, _ := lastLogIndexAndTerm(next.Log)
	if req.LeaderCommit > next.CommitIndex {
		next.CommitIndex = min64(req.LeaderCommit, lastIndex)
	}

	resp := AppendEntriesResponse{
		Kind:                 AppendEntriesSuccess,
		Term:                 next.CurrentTerm,
		Replier:              next.ID,
		ReceiverLastLogIndex: lastIndex,
	}
	return next, []Outbound{{To: req.LeaderID, Message: Message{AppendEntriesResponse: &resp}}}
}

// HandleAppendEntriesResponse is the Leader-only response handler: it clears
// outstanding_request, advances next_index/match_index on success (and
// commit_index once a majority holds an entry from the current term), or
// runs the back-off search on a log failure.
func HandleAppendEntriesResponse(state RaftState, resp AppendEntriesResponse, now time.Time) (RaftState, []Outbound) {
	if resp.Term > state.CurrentTerm {
		return BecomeFollower(state, resp.Term, nil, now), nil
	}
	if state.Role.Kind != RoleLeader {
		return state, nil
	}

	ls := *state.Role.Leader
	si, idx, ok := peerIndex(ls, resp.Replier)
	if !ok {
		// A response from a peer no longer tracked, e.g. after a step-down
		// and re-election, is silently dropped.
		return state, nil
	}
	si.OutstandingRequest = false

	switch resp.Kind {
	case AppendEntriesSuccess:
		L := resp.ReceiverLastLogIndex
		si.NextIndex = L + 1
		if L > si.MatchIndex {
			si.MatchIndex = L
		}
		next := state
		next.Role = leaderRole(withPeerIndex(ls, idx, si))

		replicationCount := 1 // the leader itself
		for _, peer := range next.Role.Leader.Indices {
			if peer.MatchIndex >= L {
				replicationCount++
			}
		}
		if replicationCount >= next.Configuration.Majority() && termAt(next.Log, L) == next.CurrentTerm {
			if L > next.CommitIndex {
				next.CommitIndex = L
			}
		}
		return next, nil

	case AppendEntriesLogFailure:
		nextIndex, matchIndex := backoffTarget(state.Log, resp.ReceiverLastLogIndex, resp.ReceiverLastLogTerm)
		si.NextIndex = nextIndex
		if matchIndex > si.MatchIndex {
			si.MatchIndex = matchIndex
		}
		next := state
		next.Role = leaderRole(withPeerIndex(ls, idx, si))
		return next, nil

	default: // AppendEntriesTermFailure, or any future variant
		next := state
		next.Role = leaderRole(withPeerIndex(ls, idx, si))
		return next, nil
	}
}

// backoffTarget runs the "jump over a whole conflicting term" search: given
// the follower's reported (R, T), find the leader's new next_index/
// match_index guess for that peer.
//
// If the leader has an entry matching (R, T) exactly, the logs already agree
// up to R. Otherwise the search walks backward through indices strictly below
// R for the last entry whose term differs from T, skipping the whole run the
// follower's conflicting term occupies; if no such entry exists either, the
// logs share no known common point and the leader resets all the way to the
// start of the log (next_index = 1).
func backoffTarget(leaderLog Log, receiverLastLogIndex, receiverLastLogTerm uint64) (nextIndex, matchIndex uint64) {
	R, T := receiverLastLogIndex, receiverLastLogTerm

	if entry, ok := entryAt(leaderLog, R); ok && entry.Term == T {
		return R + 1, R
	}

	for i := R; i >= 1; i-- {
		if i == R {
			continue // already ruled out above
		}
		entry, ok := entryAt(leaderLog, i)
		if ok && entry.Term != T {
			return i + 1, i
		}
		if i == 1 {
			break
		}
	}
	return 1, 0
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
