package walcodec

import "sync"

// Persister is the durable store Encode/Decode read and write. It holds only
// the (current_term, voted_for, log) blob; a snapshot/log-compaction half is
// deliberately not implemented (see DESIGN.md).
type Persister struct {
	mu        sync.Mutex
	raftstate []byte
}

// NewPersister returns an empty Persister.
func NewPersister() *Persister {
	return &Persister{}
}

// SaveRaftState overwrites the stored state blob.
func (p *Persister) SaveRaftState(state []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raftstate = state
}

// ReadRaftState returns the currently stored state blob, or nil if none has
// been saved yet.
func (p *Persister) ReadRaftState() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.raftstate
}

// RaftStateSize returns the size in bytes of the stored state blob.
func (p *Persister) RaftStateSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.raftstate)
}
