// Package raft implements the core of a Raft consensus engine: a pure,
// transport-agnostic state transformer.
//
// Every exported entry point takes the current RaftState (plus a clock
// reading and, where relevant, an inbound message) and returns a new
// RaftState together with a list of outbound messages. The package never
// performs I/O, never blocks, and never reads a global clock or random
// source — callers inject both explicitly. Network transport, wire
// serialization, the host event loop, persistence of current_term/voted_for/
// the log, the consuming state machine, and cluster membership changes are
// all the host's responsibility; see the package-level functions in this
// file's siblings for the exact contract each one assumes.
//
// Before replying to any message, the host must durably persist
// (current_term, voted_for, log[1..]) from the returned RaftState. This
// package does not perform that write.
package raft
