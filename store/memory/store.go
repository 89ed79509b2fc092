// Package memory provides an in-memory implementation of store.Store.
//
// All records are copied on the way in and out, so callers may mutate what
// they pass and receive. Data is lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/store"
)

// Ensure Store implements store.Store at compile time.
var _ store.Store = (*Store)(nil)

// Store is a fully in-memory implementation of store.Store.
// Safe for concurrent access. Intended for unit testing and development.
type Store struct {
	mu     sync.RWMutex
	jobs   map[id.JobID]*job.Job
	closed bool
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		jobs: make(map[id.JobID]*job.Job),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle: Migrate / Ping / Close
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping fails only after Close.
func (m *Store) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return lanes.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed; later reads and writes fail.
func (m *Store) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// ──────────────────────────────────────────────────
// Job Store
// ──────────────────────────────────────────────────

// Upsert stores a copy of j unless a record with a newer version exists.
func (m *Store) Upsert(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return lanes.ErrStoreClosed
	}
	if cur, ok := m.jobs[j.ID]; ok && cur.Version > j.Version {
		return nil
	}
	m.jobs[j.ID] = j.Clone()
	return nil
}

// QueryByStatus returns copies of every job in the given statuses,
// ordered by ScheduledAt.
func (m *Store) QueryByStatus(_ context.Context, statuses ...job.Status) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, lanes.ErrStoreClosed
	}

	var out []*job.Job
	for _, j := range m.jobs {
		if slices.Contains(statuses, j.Status) {
			out = append(out, j.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *job.Job) int {
		if c := a.ScheduledAt.Compare(b.ScheduledAt); c != 0 {
			return c
		}
		return a.ID.Compare(b.ID)
	})
	return out, nil
}

// GetJob returns a copy of the stored record.
func (m *Store) GetJob(_ context.Context, jobID id.JobID) (*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, lanes.ErrStoreClosed
	}
	j, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", lanes.ErrJobNotFound, jobID)
	}
	return j.Clone(), nil
}

// Len returns the number of stored records.
func (m *Store) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.jobs)
}
