package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/lanes/ext"
	"github.com/xraph/lanes/handlers"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/worker"
)

// Compile-time interface checks.
var (
	_ ext.Extension        = (*Extension)(nil)
	_ ext.JobEnqueued      = (*Extension)(nil)
	_ ext.JobStarted       = (*Extension)(nil)
	_ ext.JobCompleted     = (*Extension)(nil)
	_ ext.JobFailed        = (*Extension)(nil)
	_ ext.JobRetrying      = (*Extension)(nil)
	_ ext.JobDead          = (*Extension)(nil)
	_ ext.JobReclaimed     = (*Extension)(nil)
	_ ext.JobRequeued      = (*Extension)(nil)
	_ ext.WorkerRegistered = (*Extension)(nil)
	_ ext.WorkerLost       = (*Extension)(nil)
)

// Enqueuer submits jobs. *engine.Manager satisfies it.
type Enqueuer interface {
	AddJob(ctx context.Context, jobType string, payload []byte, opts ...job.Option) (id.JobID, error)
}

// Extension forwards lifecycle events to a webhook endpoint by enqueuing
// webhook.deliver jobs.
type Extension struct {
	queue    Enqueuer
	url      string
	enabled  map[string]bool // nil = all enabled
	payloads map[string]PayloadFunc
	headers  map[string]string
	jobOpts  []job.Option
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an Extension that delivers events to url through q.
func New(q Enqueuer, url string, opts ...Option) *Extension {
	e := &Extension{
		queue:  q,
		url:    url,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "notify" }

// ── Job lifecycle hooks ─────────────────────────────

// OnJobEnqueued implements ext.JobEnqueued.
func (e *Extension) OnJobEnqueued(ctx context.Context, j *job.Job) error {
	return e.sendJob(ctx, EventJobEnqueued, j, newJobPayload(j))
}

// OnJobStarted implements ext.JobStarted.
func (e *Extension) OnJobStarted(ctx context.Context, j *job.Job) error {
	return e.sendJob(ctx, EventJobStarted, j, newJobPayload(j))
}

// OnJobCompleted implements ext.JobCompleted.
func (e *Extension) OnJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) error {
	return e.sendJob(ctx, EventJobCompleted, j, &jobCompletedPayload{
		jobPayload: *newJobPayload(j),
		ElapsedMs:  elapsed.Milliseconds(),
	})
}

// OnJobFailed implements ext.JobFailed.
func (e *Extension) OnJobFailed(ctx context.Context, j *job.Job, jobErr error) error {
	return e.sendJob(ctx, EventJobFailed, j, &jobErrorPayload{
		jobPayload: *newJobPayload(j),
		Error:      jobErr.Error(),
	})
}

// OnJobRetrying implements ext.JobRetrying.
func (e *Extension) OnJobRetrying(ctx context.Context, j *job.Job, attempt int, nextRunAt time.Time) error {
	return e.sendJob(ctx, EventJobRetrying, j, &jobRetryingPayload{
		jobPayload: *newJobPayload(j),
		Attempt:    attempt,
		NextRunAt:  nextRunAt.UTC(),
	})
}

// OnJobDead implements ext.JobDead.
func (e *Extension) OnJobDead(ctx context.Context, j *job.Job, jobErr error) error {
	return e.sendJob(ctx, EventJobDead, j, &jobErrorPayload{
		jobPayload: *newJobPayload(j),
		Error:      jobErr.Error(),
	})
}

// OnJobReclaimed implements ext.JobReclaimed.
func (e *Extension) OnJobReclaimed(ctx context.Context, j *job.Job, workerID id.WorkerID) error {
	return e.sendJob(ctx, EventJobReclaimed, j, &jobReclaimedPayload{
		jobPayload: *newJobPayload(j),
		WorkerID:   workerID.String(),
	})
}

// OnJobRequeued implements ext.JobRequeued.
func (e *Extension) OnJobRequeued(ctx context.Context, j *job.Job) error {
	return e.sendJob(ctx, EventJobRequeued, j, newJobPayload(j))
}

// ── Worker lifecycle hooks ──────────────────────────

// OnWorkerRegistered implements ext.WorkerRegistered.
func (e *Extension) OnWorkerRegistered(ctx context.Context, w worker.Info) error {
	return e.send(ctx, EventWorkerRegistered, newWorkerPayload(w))
}

// OnWorkerLost implements ext.WorkerLost.
func (e *Extension) OnWorkerLost(ctx context.Context, w worker.Info) error {
	return e.send(ctx, EventWorkerLost, newWorkerPayload(w))
}

// ── Internal helpers ────────────────────────────────

// sendJob drops events about delivery jobs so a failing endpoint cannot
// feed itself.
func (e *Extension) sendJob(ctx context.Context, eventType string, j *job.Job, data any) error {
	if j.Type == handlers.WebhookType {
		return nil
	}
	return e.send(ctx, eventType, data)
}

// send enqueues a delivery for eventType if it is enabled.
func (e *Extension) send(ctx context.Context, eventType string, data any) error {
	if e.enabled != nil && !e.enabled[eventType] {
		return nil
	}

	if fn, ok := e.payloads[eventType]; ok {
		custom, err := fn(data)
		if err != nil {
			return fmt.Errorf("notify: build %s payload: %w", eventType, err)
		}
		data = custom
	}

	body, err := json.Marshal(Envelope{Type: eventType, OccurredAt: e.now().UTC(), Data: data})
	if err != nil {
		e.logger.Error("notify: encode event",
			slog.String("event", eventType),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("notify: encode %s: %w", eventType, err)
	}

	payload, err := json.Marshal(handlers.WebhookPayload{
		URL:     e.url,
		Event:   eventType,
		Body:    body,
		Headers: e.headers,
	})
	if err != nil {
		return fmt.Errorf("notify: encode delivery: %w", err)
	}

	if _, err := e.queue.AddJob(ctx, handlers.WebhookType, payload, e.jobOpts...); err != nil {
		return fmt.Errorf("notify: enqueue %s: %w", eventType, err)
	}
	return nil
}
