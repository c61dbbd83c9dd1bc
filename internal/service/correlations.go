package service

import (
	"sync"

	"github.com/stevenleohash/fortune-flow-end/internal/domain/model"
)

// correlationTable maps in-flight task ids to the channel their waiting
// dispatcher is parked on. Keys are job ids, unique per in-flight dispatch,
// so entries never collide. Every Register has exactly one matching Remove
// on the success, failure, or timeout path.
type correlationTable struct {
	mu      sync.Mutex
	pending map[string]chan model.WorkerResult
}

func newCorrelationTable() *correlationTable {
	return &correlationTable{pending: make(map[string]chan model.WorkerResult)}
}

// Register installs a pending correlation and returns the channel the result
// will be delivered on. The channel is buffered so Resolve never blocks.
func (t *correlationTable) Register(taskID string) chan model.WorkerResult {
	ch := make(chan model.WorkerResult, 1)
	t.mu.Lock()
	t.pending[taskID] = ch
	t.mu.Unlock()
	return ch
}

// Resolve delivers a result to the waiter registered for taskID and removes
// the entry. Returns false when no waiter exists, which happens for late or
// duplicate results after the timeout path already claimed the entry.
func (t *correlationTable) Resolve(taskID string, result model.WorkerResult) bool {
	t.mu.Lock()
	ch, ok := t.pending[taskID]
	if ok {
		delete(t.pending, taskID)
	}
	t.mu.Unlock()

	if !ok {
		return false
	}
	ch <- result
	return true
}

// Remove drops the entry for taskID without delivering anything. Used by the
// timeout path; a no-op when Resolve already claimed the entry.
func (t *correlationTable) Remove(taskID string) {
	t.mu.Lock()
	delete(t.pending, taskID)
	t.mu.Unlock()
}

// Len returns the number of in-flight correlations.
func (t *correlationTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
