// Package store defines the persistence interface implemented by every
// backend: the job.Store the queue manager writes through, plus lookup and
// lifecycle operations used by the daemon. Backends: Postgres, SQLite,
// Redis, and Memory.
package store

import (
	"context"

	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
)

// Store is the aggregate persistence interface.
type Store interface {
	job.Store

	// GetJob returns the persisted record for jobID, or an error wrapping
	// lanes.ErrJobNotFound.
	GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error)

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
