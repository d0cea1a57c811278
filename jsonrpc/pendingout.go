package jsonrpc

import "sync"

const pendingShardCount = 16

// outcome is delivered to a caller awaiting an outbound request's reply:
// either a routed Response or a terminal error (e.g. the connection closed).
type outcome struct {
	resp *Response
	err  error
}

type pendingOutShard struct {
	mu   sync.Mutex
	wait map[string]chan outcome
}

// PendingOutTable maps outbound request ids to one-shot completion slots.
// Entries are created when the client handle issues a request and removed
// when a matching response arrives, the caller's context is done, or the
// session exits (at which point every outstanding slot is failed).
type PendingOutTable struct {
	shards [pendingShardCount]pendingOutShard
}

// NewPendingOutTable creates an empty table.
func NewPendingOutTable() *PendingOutTable {
	t := &PendingOutTable{}
	for i := range t.shards {
		t.shards[i].wait = make(map[string]chan outcome)
	}
	return t
}

func (t *PendingOutTable) shardFor(key string) *pendingOutShard {
	var h uint32
	for i := 0; i < len(key); i++ {
		h = h*31 + uint32(key[i])
	}
	return &t.shards[h%pendingShardCount]
}

// Register creates a completion slot for id and returns the channel that
// will receive exactly one outcome.
func (t *PendingOutTable) Register(id ID) <-chan outcome {
	key := idKey(id)
	ch := make(chan outcome, 1)
	shard := t.shardFor(key)
	shard.mu.Lock()
	shard.wait[key] = ch
	shard.mu.Unlock()
	return ch
}

// Complete routes an inbound response to its waiting caller. It reports
// whether a matching pending entry was found; if not, the response is an
// unknown-id response the caller should log and discard.
func (t *PendingOutTable) Complete(id ID, resp *Response) bool {
	key := idKey(id)
	shard := t.shardFor(key)
	shard.mu.Lock()
	ch, ok := shard.wait[key]
	if ok {
		delete(shard.wait, key)
	}
	shard.mu.Unlock()
	if !ok {
		return false
	}
	ch <- outcome{resp: resp}
	return true
}

// Remove deletes a pending entry without completing it, used when the
// caller gives up waiting (its own context expired) so a late response
// does not leak the channel.
func (t *PendingOutTable) Remove(id ID) {
	key := idKey(id)
	shard := t.shardFor(key)
	shard.mu.Lock()
	delete(shard.wait, key)
	shard.mu.Unlock()
}

// FailAll completes every outstanding slot with err and clears the table.
// Called when the session exits.
func (t *PendingOutTable) FailAll(err error) {
	for i := range t.shards {
		shard := &t.shards[i]
		shard.mu.Lock()
		for key, ch := range shard.wait {
			ch <- outcome{err: err}
			delete(shard.wait, key)
		}
		shard.mu.Unlock()
	}
}
