package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/worker"
)

// entry pairs a hook implementation with the extension name captured at
// registration time.
type entry[H any] struct {
	name string
	hook H
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
//
// Register all extensions before the manager starts; emits are not
// synchronized with Register.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	jobEnqueued      []entry[JobEnqueued]
	jobStarted       []entry[JobStarted]
	jobCompleted     []entry[JobCompleted]
	jobFailed        []entry[JobFailed]
	jobRetrying      []entry[JobRetrying]
	jobDead          []entry[JobDead]
	jobReclaimed     []entry[JobReclaimed]
	jobRequeued      []entry[JobRequeued]
	workerRegistered []entry[WorkerRegistered]
	workerLost       []entry[WorkerLost]
	metricsComputed  []entry[MetricsComputed]
	shutdown         []entry[Shutdown]
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

func add[H any](list []entry[H], name string, e Extension) []entry[H] {
	if h, ok := e.(H); ok {
		return append(list, entry[H]{name: name, hook: h})
	}
	return list
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	r.jobEnqueued = add(r.jobEnqueued, name, e)
	r.jobStarted = add(r.jobStarted, name, e)
	r.jobCompleted = add(r.jobCompleted, name, e)
	r.jobFailed = add(r.jobFailed, name, e)
	r.jobRetrying = add(r.jobRetrying, name, e)
	r.jobDead = add(r.jobDead, name, e)
	r.jobReclaimed = add(r.jobReclaimed, name, e)
	r.jobRequeued = add(r.jobRequeued, name, e)
	r.workerRegistered = add(r.workerRegistered, name, e)
	r.workerLost = add(r.workerLost, name, e)
	r.metricsComputed = add(r.metricsComputed, name, e)
	r.shutdown = add(r.shutdown, name, e)
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Job event emitters
// ──────────────────────────────────────────────────

// EmitJobEnqueued notifies all extensions that implement JobEnqueued.
func (r *Registry) EmitJobEnqueued(ctx context.Context, j *job.Job) {
	for _, e := range r.jobEnqueued {
		if err := e.hook.OnJobEnqueued(ctx, j); err != nil {
			r.logHookError("OnJobEnqueued", e.name, err)
		}
	}
}

// EmitJobStarted notifies all extensions that implement JobStarted.
func (r *Registry) EmitJobStarted(ctx context.Context, j *job.Job) {
	for _, e := range r.jobStarted {
		if err := e.hook.OnJobStarted(ctx, j); err != nil {
			r.logHookError("OnJobStarted", e.name, err)
		}
	}
}

// EmitJobCompleted notifies all extensions that implement JobCompleted.
func (r *Registry) EmitJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) {
	for _, e := range r.jobCompleted {
		if err := e.hook.OnJobCompleted(ctx, j, elapsed); err != nil {
			r.logHookError("OnJobCompleted", e.name, err)
		}
	}
}

// EmitJobFailed notifies all extensions that implement JobFailed.
func (r *Registry) EmitJobFailed(ctx context.Context, j *job.Job, jobErr error) {
	for _, e := range r.jobFailed {
		if err := e.hook.OnJobFailed(ctx, j, jobErr); err != nil {
			r.logHookError("OnJobFailed", e.name, err)
		}
	}
}

// EmitJobRetrying notifies all extensions that implement JobRetrying.
func (r *Registry) EmitJobRetrying(ctx context.Context, j *job.Job, attempt int, nextRunAt time.Time) {
	for _, e := range r.jobRetrying {
		if err := e.hook.OnJobRetrying(ctx, j, attempt, nextRunAt); err != nil {
			r.logHookError("OnJobRetrying", e.name, err)
		}
	}
}

// EmitJobDead notifies all extensions that implement JobDead.
func (r *Registry) EmitJobDead(ctx context.Context, j *job.Job, jobErr error) {
	for _, e := range r.jobDead {
		if err := e.hook.OnJobDead(ctx, j, jobErr); err != nil {
			r.logHookError("OnJobDead", e.name, err)
		}
	}
}

// EmitJobReclaimed notifies all extensions that implement JobReclaimed.
func (r *Registry) EmitJobReclaimed(ctx context.Context, j *job.Job, workerID id.WorkerID) {
	for _, e := range r.jobReclaimed {
		if err := e.hook.OnJobReclaimed(ctx, j, workerID); err != nil {
			r.logHookError("OnJobReclaimed", e.name, err)
		}
	}
}

// EmitJobRequeued notifies all extensions that implement JobRequeued.
func (r *Registry) EmitJobRequeued(ctx context.Context, j *job.Job) {
	for _, e := range r.jobRequeued {
		if err := e.hook.OnJobRequeued(ctx, j); err != nil {
			r.logHookError("OnJobRequeued", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Worker event emitters
// ──────────────────────────────────────────────────

// EmitWorkerRegistered notifies all extensions that implement WorkerRegistered.
func (r *Registry) EmitWorkerRegistered(ctx context.Context, w worker.Info) {
	for _, e := range r.workerRegistered {
		if err := e.hook.OnWorkerRegistered(ctx, w); err != nil {
			r.logHookError("OnWorkerRegistered", e.name, err)
		}
	}
}

// EmitWorkerLost notifies all extensions that implement WorkerLost.
func (r *Registry) EmitWorkerLost(ctx context.Context, w worker.Info) {
	for _, e := range r.workerLost {
		if err := e.hook.OnWorkerLost(ctx, w); err != nil {
			r.logHookError("OnWorkerLost", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitMetricsComputed notifies all extensions that implement MetricsComputed.
func (r *Registry) EmitMetricsComputed(ctx context.Context, m lanes.Metrics) {
	for _, e := range r.metricsComputed {
		if err := e.hook.OnMetricsComputed(ctx, m); err != nil {
			r.logHookError("OnMetricsComputed", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Hook errors are never propagated.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
