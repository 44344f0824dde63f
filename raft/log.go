package raft

// lastLogIndexAndTerm returns the (index, term) of the last entry in log, or
// (0, 0) if the log is empty.
func lastLogIndexAndTerm(log Log) (index, term uint64) {
	if len(log) == 0 {
		return 0, 0
	}
	last := log[len(log)-1]
	return last.Index, last.Term
}

// LastLogIndexAndTerm returns the (index, term) of state's last log entry, or
// (0, 0) on an empty log.
func LastLogIndexAndTerm(state RaftState) (index, term uint64) {
	return lastLogIndexAndTerm(state.Log)
}

// entryAt returns the entry with the given index, if present. The log is
// assumed to be contiguous and 1-indexed, so index i lives at slice position
// i-1.
func entryAt(log Log, index uint64) (LogEntry, bool) {
	if index == 0 || index > uint64(len(log)) {
		return LogEntry{}, false
	}
	return log[index-1], true
}

// termAt returns the term of the entry at index, or 0 if index is 0 (the
// "before the log began" sentinel) or out of range.
func termAt(log Log, index uint64) uint64 {
	if index == 0 {
		return 0
	}
	entry, ok := entryAt(log, index)
	if !ok {
		return 0
	}
	return entry.Term
}

// tailFrom returns the entries with index > sinceIndex, oldest first.
func tailFrom(log Log, sinceIndex uint64) []LogEntry {
	if sinceIndex >= uint64(len(log)) {
		return nil
	}
	tail := make([]LogEntry, len(log)-int(sinceIndex))
	copy(tail, log[sinceIndex:])
	return tail
}

// truncateAndAppend returns a new Log with every entry whose index is >
// prevLogIndex removed, followed by entries appended in order. The input log
// is left untouched.
func truncateAndAppend(log Log, prevLogIndex uint64, entries []LogEntry) Log {
	base := log
	if prevLogIndex < uint64(len(base)) {
		base = base[:prevLogIndex]
	}
	next := make(Log, 0, len(base)+len(entries))
	next = append(next, base...)
	next = append(next, entries...)
	return next
}
