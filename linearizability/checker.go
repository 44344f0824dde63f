package linearizability

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/vbmithr/raft/kvstore"
)

// node is one call or return in a partition's history, held in a doubly
// linked list so a candidate call/return pair can be "lifted" out while the
// search tries linearizing it next, and spliced back in on backtrack. A call
// node's op is set and its match points at its return node; a return node's
// result is set and its match is nil — that alone is how checkSingle tells
// the two kinds apart, without a separate tag field.
type node struct {
	op     *kvstore.Op
	result *kvstore.Result
	match  *node
	id     uint
	next   *node
	prev   *node
}

// timedEntry is a call or return event not yet linked, kept only long enough
// to be sorted by when it occurred.
type timedEntry struct {
	id     uint
	isCall bool
	op     kvstore.Op
	result kvstore.Result
	at     int64
}

// linkPartition lays one partition's calls and returns out in time order,
// then links them into the doubly linked list checkSingle walks: each call
// node's match is wired to its already-built return node, which is possible
// because linking proceeds from latest to earliest.
func linkPartition(part []CallReturn) *node {
	timed := make([]timedEntry, 0, 2*len(part))
	for i, cr := range part {
		id := uint(i)
		timed = append(timed, timedEntry{id: id, isCall: true, op: cr.Op, at: cr.Call})
		timed = append(timed, timedEntry{id: id, isCall: false, result: cr.Result, at: cr.Return})
	}
	sort.SliceStable(timed, func(i, j int) bool { return timed[i].at < timed[j].at })

	var head *node
	returns := make(map[uint]*node, len(part))
	for i := len(timed) - 1; i >= 0; i-- {
		e := timed[i]
		if !e.isCall {
			n := &node{result: &e.result, id: e.id}
			returns[e.id] = n
			insertBefore(n, head)
			head = n
			continue
		}
		n := &node{op: &e.op, match: returns[e.id], id: e.id}
		insertBefore(n, head)
		head = n
	}
	return head
}

// insertBefore splices n into the list immediately before mark, preserving
// whatever already preceded mark.
func insertBefore(n, mark *node) *node {
	if mark != nil {
		before := mark.prev
		mark.prev = n
		n.next = mark
		if before != nil {
			n.prev = before
			before.next = n
		}
	}
	return n
}

func length(n *node) uint {
	var l uint
	for n != nil {
		n = n.next
		l++
	}
	return l
}

// lift removes a call node and its matching return node from the list,
// trying the hypothesis that this call linearizes next.
func lift(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
	ret := n.match
	ret.prev.next = ret.next
	if ret.next != nil {
		ret.next.prev = ret.prev
	}
}

// unlift reverses lift exactly, restoring both nodes to the list.
func unlift(n *node) {
	ret := n.match
	ret.prev.next = ret
	if ret.next != nil {
		ret.next.prev = ret
	}
	n.prev.next = n
	n.next.prev = n
}

// pending records a choice point the search can backtrack to: the call node
// that was tentatively linearized, and the per-key state before it was.
type pending struct {
	node  *node
	state string
}

// cacheEntry memoizes a (set of already-linearized calls, resulting state)
// pair the search has already explored, so it never re-walks the same
// sub-search twice.
type cacheEntry struct {
	linearized seenSet
	state      string
}

func cacheContains(cache map[uint64][]cacheEntry, e cacheEntry) bool {
	for _, c := range cache[e.linearized.fingerprint()] {
		if e.linearized.sameAs(c.linearized) && e.state == c.state {
			return true
		}
	}
	return false
}

// checkSingle is Wing & Gong's linearizability search specialized to a
// single-key string state: repeatedly try lifting the head-most call out of
// the list and applying it, memoizing dead ends so they are never retried,
// and backtracking to the last choice point whenever every remaining call
// fails to apply. The list is linearizable iff every node is eventually
// lifted out, at which point the sentinel's next pointer goes nil.
func checkSingle(head *node, abort *int32) bool {
	n := length(head) / 2
	linearized := newSeenSet(n)
	cache := make(map[uint64][]cacheEntry)
	var stack []pending

	state := ""
	sentinel := insertBefore(&node{id: ^uint(0)}, head)
	cur := head
	for sentinel.next != nil {
		if atomic.LoadInt32(abort) != 0 {
			return false
		}

		if cur.match != nil { // a call node
			ret := cur.match
			ok, nextState := applyIfLinearizable(state, *cur.op, *ret.result)
			if ok {
				candidate := linearized.copy().mark(cur.id)
				ce := cacheEntry{candidate, nextState}
				if !cacheContains(cache, ce) {
					hash := candidate.fingerprint()
					cache[hash] = append(cache[hash], ce)
					stack = append(stack, pending{cur, state})
					state = nextState
					linearized.mark(cur.id)
					lift(cur)
					cur = sentinel.next
					continue
				}
			}
			cur = cur.next
			continue
		}

		// a return node reached with nothing left to try: backtrack.
		if len(stack) == 0 {
			return false
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cur = top.node
		state = top.state
		linearized.unmark(cur.id)
		unlift(cur)
		cur = cur.next
	}
	return true
}

// CheckHistory reports whether history could have been produced by some
// sequential execution of its calls, partitioned by key so that independent
// keys never constrain each other.
func CheckHistory(history []CallReturn) bool {
	return CheckHistoryTimeout(history, 0)
}

// CheckHistoryTimeout is CheckHistory with an optional deadline. A partition
// that has neither confirmed nor refuted linearizability by the deadline is
// treated as passing — a timeout can produce a false positive but never a
// false negative, since every partition that does finish reports an exact
// result.
func CheckHistoryTimeout(history []CallReturn, timeout time.Duration) bool {
	partitions := partitionByKey(history)
	results := make(chan bool)
	var abort int32
	for _, part := range partitions {
		part := part
		go func() { results <- checkSingle(linkPartition(part), &abort) }()
	}

	var timeoutChan <-chan time.Time
	if timeout > 0 {
		timeoutChan = time.After(timeout)
	}

	ok := true
	count := 0
loop:
	for {
		select {
		case result := <-results:
			ok = ok && result
			if !ok {
				atomic.StoreInt32(&abort, 1)
				break loop
			}
			count++
			if count >= len(partitions) {
				break loop
			}
		case <-timeoutChan:
			break loop // an unfinished partition is assumed to pass
		}
	}
	return ok
}
