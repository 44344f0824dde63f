package raft

import "time"

// TimeoutKind distinguishes which deadline next_timeout_event is reporting.
type TimeoutKind int

const (
	ElectionTimeout TimeoutKind = iota
	HeartbeatTimeout
)

// TimeoutEvent is the result of next_timeout_event: the earliest relevant
// deadline and its kind.
type TimeoutEvent struct {
	Kind     TimeoutKind
	Deadline time.Time
}

// HandleMessage dispatches an inbound Message to the matching handler in
// this package. Exactly one field of msg must be set.
func HandleMessage(state RaftState, msg Message, now time.Time) (RaftState, []Outbound) {
	switch {
	case msg.RequestVoteRequest != nil:
		return HandleRequestVoteRequest(state, *msg.RequestVoteRequest, now)
	case msg.RequestVoteResponse != nil:
		return HandleRequestVoteResponse(state, *msg.RequestVoteResponse, now)
	case msg.AppendEntriesRequest != nil:
		return HandleAppendEntriesRequest(state, *msg.AppendEntriesRequest, now)
	case msg.AppendEntriesResponse != nil:
		return HandleAppendEntriesResponse(state, *msg.AppendEntriesResponse, now)
	default:
		return state, nil
	}
}

// electionDeadlineOf returns state's current election deadline and whether
// state has one at all (only Follower and Candidate do).
func electionDeadlineOf(state RaftState) (time.Time, bool) {
	switch state.Role.Kind {
	case RoleFollower:
		return state.Role.Follower.ElectionDeadline, true
	case RoleCandidate:
		return state.Role.Candidate.ElectionDeadline, true
	default:
		return time.Time{}, false
	}
}

// HandleNewElectionTimeout fires when the host believes the election
// deadline may have passed. If the current election deadline has passed (now
// >= deadline, inclusive), it transitions to Candidate and emits a
// RequestVoteRequest to every peer. If the deadline has not yet passed, state
// is returned unchanged with no outbound messages.
func HandleNewElectionTimeout(state RaftState, now time.Time) (RaftState, []Outbound) {
	deadline, ok := electionDeadlineOf(state)
	if !ok || now.Before(deadline) {
		return state, nil
	}

	next := BecomeCandidate(state, now)
	req, err := BuildRequestVoteRequest(next)
	if err != nil {
		return state, nil
	}

	outbound := make([]Outbound, 0, int(next.Configuration.NbOfServer)-1)
	for i := ServerID(0); i < ServerID(next.Configuration.NbOfServer); i++ {
		if i == next.ID {
			continue
		}
		msg := req
		outbound = append(outbound, Outbound{To: i, Message: Message{RequestVoteRequest: &msg}})
	}
	return next, outbound
}

// HandleHeartbeatTimeout fires when the host believes a heartbeat may be due.
// For each peer whose heartbeat_deadline has passed, it builds an
// AppendEntries request (possibly with empty entries). Non-Leader states and
// peers with an outstanding request or a deadline still in the future are
// left untouched.
func HandleHeartbeatTimeout(state RaftState, now time.Time) (RaftState, []Outbound) {
	if state.Role.Kind != RoleLeader {
		return state, nil
	}

	due := make([]ServerID, 0, len(state.Role.Leader.Indices))
	for _, si := range state.Role.Leader.Indices {
		if !si.HeartbeatDeadline.After(now) {
			due = append(due, si.ServerID)
		}
	}

	next := state
	var outbound []Outbound
	for _, peerID := range due {
		si, _, ok := peerIndex(*next.Role.Leader, peerID)
		if !ok || si.OutstandingRequest {
			continue
		}
		var out Outbound
		next, out = buildAppendEntriesForPeer(next, peerID, now)
		outbound = append(outbound, out)
	}
	return next, outbound
}

// AddLog is the Leader-only entry point for proposing new data: it appends a
// new entry carrying data to the log and returns the new state with no
// outbound messages (the host is expected to follow up with a
// heartbeat-timeout call to actually replicate it). Calling this on a
// non-Leader state is a programmer error: the state is returned unchanged
// together with an InvariantError.
func AddLog(state RaftState, data []byte) (RaftState, error) {
	if state.Role.Kind != RoleLeader {
		return state, invariantError(ErrAddLogNotLeader, "add_log called on a non-Leader state")
	}
	lastIndex, _ := lastLogIndexAndTerm(state.Log)
	entry := LogEntry{Index: lastIndex + 1, Term: state.CurrentTerm, Data: data}

	next := state
	next.Log = append(append(Log{}, state.Log...), entry)
	next.LogSize = uint64(len(next.Log))
	return next, nil
}

// NextTimeoutEvent reports the earliest relevant deadline — the
// election_deadline for a Follower/Candidate, or the minimum
// heartbeat_deadline over peers for a Leader — plus its kind. For a Leader
// with no peers (a single-server cluster), there is nothing to wait on and
// the zero TimeoutEvent is returned with ok=false.
func NextTimeoutEvent(state RaftState, now time.Time) (TimeoutEvent, bool) {
	switch state.Role.Kind {
	case RoleFollower:
		return TimeoutEvent{Kind: ElectionTimeout, Deadline: state.Role.Follower.ElectionDeadline}, true
	case RoleCandidate:
		return TimeoutEvent{Kind: ElectionTimeout, Deadline: state.Role.Candidate.ElectionDeadline}, true
	case RoleLeader:
		indices := state.Role.Leader.Indices
		if len(indices) == 0 {
			return TimeoutEvent{}, false
		}
		earliest := indices[0].HeartbeatDeadline
		for _, si := range indices[1:] {
			if si.HeartbeatDeadline.Before(earliest) {
				earliest = si.HeartbeatDeadline
			}
		}
		return TimeoutEvent{Kind: HeartbeatTimeout, Deadline: earliest}, true
	default:
		return TimeoutEvent{}, false
	}
}
