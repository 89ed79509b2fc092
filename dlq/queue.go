package dlq

import (
	"sync"

	"github.com/xraph/lanes/id"
)

// ListOpts controls pagination and filtering for List.
type ListOpts struct {
	// Limit is the maximum number of entries to return. Zero means no limit.
	Limit int
	// Offset is the number of entries to skip.
	Offset int
	// Type filters by job type. Empty means all types.
	Type string
}

// Queue is a bounded FIFO of dead-letter entries. It is safe for
// concurrent use.
type Queue struct {
	mu       sync.RWMutex
	capacity int
	entries  []*Entry
	index    map[id.JobID]*Entry
}

// New creates a queue holding at most capacity entries.
// A capacity below one is treated as one.
func New(capacity int) *Queue {
	capacity = max(capacity, 1)
	return &Queue{
		capacity: capacity,
		index:    make(map[id.JobID]*Entry),
	}
}

// Push appends e. If the queue is full the oldest entry is evicted and
// returned. Pushing a job that is already queued replaces its entry.
func (q *Queue) Push(e *Entry) (evicted *Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.index[e.Job.ID]; ok {
		q.removeLocked(e.Job.ID)
	}
	if len(q.entries) >= q.capacity {
		evicted = q.entries[0]
		q.entries[0] = nil
		q.entries = q.entries[1:]
		delete(q.index, evicted.Job.ID)
	}
	q.entries = append(q.entries, e)
	q.index[e.Job.ID] = e
	return evicted
}

// Get returns the entry for jobID.
func (q *Queue) Get(jobID id.JobID) (*Entry, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	e, ok := q.index[jobID]
	return e, ok
}

// Remove deletes and returns the entry for jobID.
func (q *Queue) Remove(jobID id.JobID) (*Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(jobID)
}

func (q *Queue) removeLocked(jobID id.JobID) (*Entry, bool) {
	e, ok := q.index[jobID]
	if !ok {
		return nil, false
	}
	delete(q.index, jobID)
	for i, cur := range q.entries {
		if cur == e {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	return e, true
}

// List returns entries oldest first.
func (q *Queue) List(opts ListOpts) []*Entry {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var result []*Entry
	skipped := 0
	for _, e := range q.entries {
		if opts.Type != "" && e.Job.Type != opts.Type {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		result = append(result, e)
		if opts.Limit > 0 && len(result) >= opts.Limit {
			break
		}
	}
	return result
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return q.capacity }
