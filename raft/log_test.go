package raft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastLogIndexAndTermEmpty(t *testing.T) {
	index, term := lastLogIndexAndTerm(nil)
	assert.Zero(t, index)
	assert.Zero(t, term)
}

func TestLastLogIndexAndTermNonEmpty(t *testing.T) {
	log := entries(1, 1, 2)
	index, term := lastLogIndexAndTerm(log)
	assert.Equal(t, uint64(3), index)
	assert.Equal(t, uint64(2), term)
}

func TestEntryAtBounds(t *testing.T) {
	log := entries(1, 1, 2)

	_, ok := entryAt(log, 0)
	assert.False(t, ok, "index 0 is never a valid entry")

	_, ok = entryAt(log, 4)
	assert.False(t, ok, "index beyond the log is absent")

	entry, ok := entryAt(log, 2)
	require.True(t, ok)
	assert.Equal(t, uint64(2), entry.Index)
	assert.Equal(t, uint64(1), entry.Term)
}

func TestTermAtZeroSentinel(t *testing.T) {
	log := entries(1, 2)
	assert.Equal(t, uint64(0), termAt(log, 0))
	assert.Equal(t, uint64(0), termAt(log, 99))
	assert.Equal(t, uint64(2), termAt(log, 2))
}

func TestTailFrom(t *testing.T) {
	log := entries(1, 1, 2, 2)

	tail := tailFrom(log, 2)
	require.Len(t, tail, 2)
	assert.Equal(t, uint64(3), tail[0].Index)
	assert.Equal(t, uint64(4), tail[1].Index)

	assert.Nil(t, tailFrom(log, 4))
	assert.Nil(t, tailFrom(log, 10))
}

func TestTruncateAndAppendKeepsPrefix(t *testing.T) {
	log := entries(1, 1, 2, 2)
	appended := []LogEntry{{Index: 3, Term: 5, Data: []byte("x")}}

	next := truncateAndAppend(log, 2, appended)
	require.Len(t, next, 3)
	assert.Equal(t, uint64(1), next[0].Term)
	assert.Equal(t, uint64(1), next[1].Term)
	assert.Equal(t, uint64(5), next[2].Term)

	// the original log is untouched
	assert.Len(t, log, 4)
}

func TestTruncateAndAppendNoPriorEntries(t *testing.T) {
	appended := []LogEntry{{Index: 1, Term: 1}}
	next := truncateAndAppend(nil, 0, appended)
	require.Len(t, next, 1)
	assert.Equal(t, uint64(1), next[0].Term)
}
