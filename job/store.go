package job

import "context"

// Store is the persistence boundary used by the queue manager.
//
// Upsert must be idempotent and must ignore a write whose Version is older
// than the stored record's, so that out-of-order writes for the same job
// cannot roll its state back.
type Store interface {
	// Upsert inserts or replaces the record for j.ID.
	Upsert(ctx context.Context, j *Job) error

	// QueryByStatus returns every job in any of the given statuses,
	// ordered by ScheduledAt.
	QueryByStatus(ctx context.Context, statuses ...Status) ([]*Job, error)
}
