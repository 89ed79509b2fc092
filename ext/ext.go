package ext

import (
	"context"
	"time"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/worker"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Job lifecycle hooks
// ──────────────────────────────────────────────────

// JobEnqueued is called after a job is persisted and laned.
type JobEnqueued interface {
	OnJobEnqueued(ctx context.Context, j *job.Job) error
}

// JobStarted is called when a worker claims a job.
type JobStarted interface {
	OnJobStarted(ctx context.Context, j *job.Job) error
}

// JobCompleted is called after a job finishes successfully.
type JobCompleted interface {
	OnJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) error
}

// JobFailed is called for every failed attempt, before the retry decision.
type JobFailed interface {
	OnJobFailed(ctx context.Context, j *job.Job, err error) error
}

// JobRetrying is called when a failed job is scheduled for another attempt.
type JobRetrying interface {
	OnJobRetrying(ctx context.Context, j *job.Job, attempt int, nextRunAt time.Time) error
}

// JobDead is called when a job exhausts its retry budget.
type JobDead interface {
	OnJobDead(ctx context.Context, j *job.Job, err error) error
}

// JobReclaimed is called when a lost worker's job is returned to pending.
type JobReclaimed interface {
	OnJobReclaimed(ctx context.Context, j *job.Job, workerID id.WorkerID) error
}

// JobRequeued is called when a dead job is requeued.
type JobRequeued interface {
	OnJobRequeued(ctx context.Context, j *job.Job) error
}

// ──────────────────────────────────────────────────
// Worker lifecycle hooks
// ──────────────────────────────────────────────────

// WorkerRegistered is called after a worker's dispatch loop starts.
type WorkerRegistered interface {
	OnWorkerRegistered(ctx context.Context, w worker.Info) error
}

// WorkerLost is called when a worker misses too many heartbeats.
type WorkerLost interface {
	OnWorkerLost(ctx context.Context, w worker.Info) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// MetricsComputed is called each time the metrics loop recomputes the
// snapshot.
type MetricsComputed interface {
	OnMetricsComputed(ctx context.Context, m lanes.Metrics) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
