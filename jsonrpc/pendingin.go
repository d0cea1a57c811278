package jsonrpc

import (
	"context"
	"sync"
	"sync/atomic"
)

// cancelToken lets the connection and the handler goroutine agree on
// whether $/cancelRequest fired before the handler's result was enqueued,
// which resolves the cancel-vs-Ok race described in spec.md §9: cancellation
// wins if the token fired before the result is enqueued, otherwise Ok wins.
type cancelToken struct {
	fired  atomic.Bool
	cancel context.CancelFunc
}

type pendingInShard struct {
	mu    sync.Mutex
	tasks map[string]*cancelToken
}

// PendingInTable maps inbound request ids to the cancellation handle for
// their in-flight handler. Entries are created on dispatch and removed on
// handler completion or a matching $/cancelRequest.
type PendingInTable struct {
	shards [pendingShardCount]pendingInShard
}

// NewPendingInTable creates an empty table.
func NewPendingInTable() *PendingInTable {
	t := &PendingInTable{}
	for i := range t.shards {
		t.shards[i].tasks = make(map[string]*cancelToken)
	}
	return t
}

func (t *PendingInTable) shardFor(key string) *pendingInShard {
	var h uint32
	for i := 0; i < len(key); i++ {
		h = h*31 + uint32(key[i])
	}
	return &t.shards[h%pendingShardCount]
}

// Register records the cancel func for a newly dispatched request.
func (t *PendingInTable) Register(id ID, cancel context.CancelFunc) *cancelToken {
	key := idKey(id)
	token := &cancelToken{cancel: cancel}
	shard := t.shardFor(key)
	shard.mu.Lock()
	shard.tasks[key] = token
	shard.mu.Unlock()
	return token
}

// Remove deletes the entry for id once its handler has completed.
func (t *PendingInTable) Remove(id ID) {
	key := idKey(id)
	shard := t.shardFor(key)
	shard.mu.Lock()
	delete(shard.tasks, key)
	shard.mu.Unlock()
}

// Cancel fires the cancellation signal for id, if still in flight. A
// duplicate or unknown cancel id is a no-op, reported via the bool return.
func (t *PendingInTable) Cancel(id ID) bool {
	key := idKey(id)
	shard := t.shardFor(key)
	shard.mu.Lock()
	token, ok := shard.tasks[key]
	if ok {
		delete(shard.tasks, key)
	}
	shard.mu.Unlock()
	if !ok {
		return false
	}
	token.fired.Store(true)
	token.cancel()
	return true
}

// CancelAll fires cancellation for every in-flight handler, used when the
// session exits.
func (t *PendingInTable) CancelAll() {
	for i := range t.shards {
		shard := &t.shards[i]
		shard.mu.Lock()
		for _, token := range shard.tasks {
			token.cancel()
		}
		shard.mu.Unlock()
	}
}
