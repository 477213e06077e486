// Package queue implements the review queue: a concurrency-safe index of
// cases awaiting a human decision. The queue holds no authority over case
// data; it is a derived view over the case store's pending cases.
package queue

import (
	"sort"
	"sync"

	"github.com/verigate/verigate/internal/domain/verification"
)

// Queue indexes pending cases for verifier consumption. All methods are
// safe for concurrent use; listing returns a point-in-time snapshot and
// never blocks a concurrent enqueue or remove for long.
type Queue struct {
	mu    sync.RWMutex
	cases map[string]verification.Case
}

// New creates an empty review queue.
func New() *Queue {
	return &Queue{cases: make(map[string]verification.Case)}
}

// Enqueue adds a pending case to the queue. Non-pending cases are ignored:
// auto-resolved cases must never appear in the review queue.
func (q *Queue) Enqueue(c verification.Case) {
	if c.State != verification.StatePending {
		return
	}
	q.mu.Lock()
	q.cases[c.ID] = c
	q.mu.Unlock()
}

// Remove deletes a case from the queue after its decision. Removing an
// absent ID is a no-op, supporting idempotent cleanup.
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	delete(q.cases, id)
	q.mu.Unlock()
}

// Pending returns an immutable snapshot of the queue in review order:
// error-status cases first, then ascending submission time, with the case
// ID as a deterministic tiebreak.
func (q *Queue) Pending() []verification.Case {
	q.mu.RLock()
	snapshot := make([]verification.Case, 0, len(q.cases))
	for _, c := range q.cases {
		snapshot = append(snapshot, c)
	}
	q.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool {
		a, b := &snapshot[i], &snapshot[j]
		if a.Priority() != b.Priority() {
			return a.Priority()
		}
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return a.ID < b.ID
	})
	return snapshot
}

// Len returns the number of queued cases.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.cases)
}

// Rebuild replaces the queue contents from the store's pending cases.
// Used at startup to rehydrate the derived index.
func (q *Queue) Rebuild(cases []verification.Case) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cases = make(map[string]verification.Case, len(cases))
	for _, c := range cases {
		if c.State == verification.StatePending {
			q.cases[c.ID] = c
		}
	}
}
