package kvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeOpRoundTrip(t *testing.T) {
	op := Op{Command: Put, ClientID: 42, RequestID: 1, Key: "k", Value: "v"}

	data, err := EncodeOp(op)
	require.NoError(t, err)

	decoded, err := DecodeOp(data)
	require.NoError(t, err)
	assert.Equal(t, op, decoded)
}

func TestDecodeOpRejectsGarbage(t *testing.T) {
	_, err := DecodeOp([]byte("not gob data"))
	assert.Error(t, err)
}

func TestStorePutThenGet(t *testing.T) {
	s := NewStore()
	s.Apply(Op{Command: Put, ClientID: 1, RequestID: 1, Key: "a", Value: "1"})

	result := s.Apply(Op{Command: Get, ClientID: 1, RequestID: 2, Key: "a"})
	assert.True(t, result.Found)
	assert.Equal(t, "1", result.Value)
}

func TestStoreGetMissingKey(t *testing.T) {
	s := NewStore()
	result := s.Apply(Op{Command: Get, ClientID: 1, RequestID: 1, Key: "missing"})
	assert.False(t, result.Found)
	assert.Empty(t, result.Value)
}

func TestStoreAppendConcatenates(t *testing.T) {
	s := NewStore()
	s.Apply(Op{Command: Put, ClientID: 1, RequestID: 1, Key: "a", Value: "x"})
	s.Apply(Op{Command: Append, ClientID: 1, RequestID: 2, Key: "a", Value: "y"})

	result := s.Apply(Op{Command: Get, ClientID: 1, RequestID: 3, Key: "a"})
	assert.Equal(t, "xy", result.Value)
}

func TestStoreDuplicateRequestIsANoop(t *testing.T) {
	s := NewStore()
	s.Apply(Op{Command: Put, ClientID: 1, RequestID: 5, Key: "a", Value: "first"})
	// a retransmitted request with the same (or lower) RequestID must not
	// re-apply the write.
	s.Apply(Op{Command: Put, ClientID: 1, RequestID: 5, Key: "a", Value: "second"})
	s.Apply(Op{Command: Append, ClientID: 1, RequestID: 4, Key: "a", Value: "!"})

	result := s.Apply(Op{Command: Get, ClientID: 1, RequestID: 6, Key: "a"})
	assert.Equal(t, "first", result.Value)
}

func TestStoreDistinctClientsDoNotDeduplicateEachOther(t *testing.T) {
	s := NewStore()
	s.Apply(Op{Command: Put, ClientID: 1, RequestID: 1, Key: "a", Value: "one"})
	s.Apply(Op{Command: Put, ClientID: 2, RequestID: 1, Key: "a", Value: "two"})

	result := s.Apply(Op{Command: Get, ClientID: 1, RequestID: 2, Key: "a"})
	assert.Equal(t, "two", result.Value)
}
