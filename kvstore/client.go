package kvstore

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/vbmithr/raft/simulation"
)

// Client proposes Ops against a simulation.Cluster. There is no
// retry-across-servers loop to find the current leader, since there is no
// RPC layer to retry over (see DESIGN.md); propose simply reports whether a
// Leader was found.
type Client struct {
	cluster   *simulation.Cluster
	clientID  int64
	requestID int64
}

// NewClient returns a Client with a fresh random client id.
func NewClient(cluster *simulation.Cluster) *Client {
	return &Client{cluster: cluster, clientID: randomClientID()}
}

func randomClientID() int64 {
	max := big.NewInt(int64(1) << 62)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return time.Now().UnixNano()
	}
	return n.Int64()
}

// Put proposes a Put Op and returns the log index it was appended at.
func (c *Client) Put(now time.Time, key, value string) (uint64, error) {
	return c.propose(now, Op{Command: Put, ClientID: c.clientID, Key: key, Value: value})
}

// Append proposes an Append Op and returns the log index it was appended at.
func (c *Client) Append(now time.Time, key, value string) (uint64, error) {
	return c.propose(now, Op{Command: Append, ClientID: c.clientID, Key: key, Value: value})
}

// Get proposes a Get Op and returns the log index it was appended at. The
// value itself is only available once the entry commits and a Machine
// drains it (see Machine.Value) — there is no synchronous round trip here,
// since there is no RPC layer to make one over.
func (c *Client) Get(now time.Time, key string) (uint64, error) {
	return c.propose(now, Op{Command: Get, ClientID: c.clientID, Key: key})
}

func (c *Client) propose(now time.Time, op Op) (uint64, error) {
	c.requestID++
	op.RequestID = c.requestID

	data, err := EncodeOp(op)
	if err != nil {
		return 0, err
	}
	index, ok := c.cluster.Propose(now, data)
	if !ok {
		return 0, fmt.Errorf("kvstore: no leader available to propose to")
	}
	return index, nil
}
