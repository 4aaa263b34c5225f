// Package queue implements the two-stage time-tagged queues that
// bridge event producers (network dispatch, AI, scripting) to the
// simulation systems that drain them each tick: a concurrent staging
// map merged by last-write-wins per entity, tagged onto a timestamped
// main store on demand. Command and order queues share the same
// generic TimeQueue[T] shape, differing only in payload type.
package queue

import (
	"sort"
	"sync"

	"github.com/trillek-sim/corebox/store"
)

// EntityID and Timestamp are re-exported from store so callers wiring
// a TimeQueue to the rest of the simulation don't need two import
// paths for the same identifiers.
type (
	EntityID  = store.EntityID
	Timestamp = store.Timestamp
)

// Entry pairs an entity id with the value staged or tagged for it.
type Entry[T any] struct {
	Entity EntityID
	Value  T
}

// TimeQueue is the generic shape behind both the user-command queue
// and the order queue: a lock-protected staging map keyed by entity
// id (last write wins) and a long-lived multimap keyed by timestamp.
type TimeQueue[T any] struct {
	mu      sync.Mutex
	staging map[EntityID]T
	order   []Timestamp
	main    map[Timestamp][]Entry[T]
}

// New builds an empty TimeQueue.
func New[T any]() *TimeQueue[T] {
	return &TimeQueue[T]{
		staging: make(map[EntityID]T),
		main:    make(map[Timestamp][]Entry[T]),
	}
}

// Add stages v for entity e. Concurrent, thread-safe; a second Add for
// the same entity before the next TagFrom overwrites the first.
func (q *TimeQueue[T]) Add(e EntityID, v T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.staging[e] = v
}

// TagFrom moves every staged entry into the main map under timestamp
// t and returns the full set of entries now tagged at t (including any
// tagged there by an earlier call).
func (q *TimeQueue[T]) TagFrom(t Timestamp) []Entry[T] {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.staging) > 0 {
		batch := make([]Entry[T], 0, len(q.staging))
		for e, v := range q.staging {
			batch = append(batch, Entry[T]{Entity: e, Value: v})
		}
		q.staging = make(map[EntityID]T)
		q.insertTimestampLocked(t)
		q.main[t] = append(q.main[t], batch...)
	}

	out := make([]Entry[T], len(q.main[t]))
	copy(out, q.main[t])
	return out
}

func (q *TimeQueue[T]) insertTimestampLocked(t Timestamp) {
	if _, exists := q.main[t]; exists {
		return
	}
	idx := sort.Search(len(q.order), func(i int) bool { return q.order[i] >= t })
	q.order = append(q.order, 0)
	copy(q.order[idx+1:], q.order[idx:])
	q.order[idx] = t
}

// Between returns every entry tagged at a timestamp in the half-open
// range [from, to).
func (q *TimeQueue[T]) Between(from, to Timestamp) map[Timestamp][]Entry[T] {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make(map[Timestamp][]Entry[T])
	for _, t := range q.order {
		if t < from {
			continue
		}
		if t >= to {
			break
		}
		cp := make([]Entry[T], len(q.main[t]))
		copy(cp, q.main[t])
		out[t] = cp
	}
	return out
}

// CleanUntil drops every entry tagged at a timestamp at or before t.
func (q *TimeQueue[T]) CleanUntil(t Timestamp) {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := sort.Search(len(q.order), func(i int) bool { return q.order[i] > t })
	for _, ts := range q.order[:idx] {
		delete(q.main, ts)
	}
	q.order = q.order[idx:]
}
