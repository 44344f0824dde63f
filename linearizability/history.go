// Package linearizability checks whether a recorded history of concurrent
// kvstore Put/Append/Get calls against a replicated cluster could have been
// produced by some single, sequential order of those calls — the standard
// correctness condition for a replicated key-value store. Unlike a
// general-purpose checker parameterized over an arbitrary state machine
// model, this one is wired directly to kvstore.Op/kvstore.Result: the single
// state machine it understands is "one string per key", so there is no
// separate Model type for a caller to supply.
package linearizability

import "github.com/vbmithr/raft/kvstore"

// CallReturn is one completed client call in a history: the Op it issued,
// the Result it eventually got back, and the wall-clock instants (as
// monotonic int64 timestamps, e.g. UnixNano) at which the call was issued
// and the result was observed. Call/Return bound the interval during which
// the operation could have taken effect; overlapping intervals are exactly
// what makes checking a concurrent history harder than checking a
// sequential one.
type CallReturn struct {
	Op     kvstore.Op
	Result kvstore.Result
	Call   int64
	Return int64
}

// partitionByKey splits a history into one sub-history per key. Two
// operations on different keys never constrain each other under kvstore's
// per-key semantics, so each partition can be checked independently (and,
// here, concurrently) instead of paying for the cross product of every key's
// operations in one search.
func partitionByKey(history []CallReturn) [][]CallReturn {
	byKey := make(map[string][]CallReturn)
	for _, cr := range history {
		byKey[cr.Op.Key] = append(byKey[cr.Op.Key], cr)
	}
	partitions := make([][]CallReturn, 0, len(byKey))
	for _, part := range byKey {
		partitions = append(partitions, part)
	}
	return partitions
}

// applyIfLinearizable reports whether op, applied against a single key
// currently holding state, is consistent with having produced result — and
// if so, the state that would result. A Get is consistent only if result
// matches the current state exactly; Put and Append are always consistent
// (neither call's Result carries a Found/Value that could contradict the
// state) and simply advance it.
func applyIfLinearizable(state string, op kvstore.Op, result kvstore.Result) (bool, string) {
	switch op.Command {
	case kvstore.Get:
		return result.Value == state, state
	case kvstore.Put:
		return true, op.Value
	case kvstore.Append:
		return true, state + op.Value
	default:
		return false, state
	}
}
