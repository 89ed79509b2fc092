package notify

import (
	"time"

	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/worker"
)

// Lifecycle event types. Each maps to one ext hook and is sent as the
// X-Lanes-Event header and the envelope's type field.
const (
	EventJobEnqueued      = "lanes.job.enqueued"
	EventJobStarted       = "lanes.job.started"
	EventJobCompleted     = "lanes.job.completed"
	EventJobFailed        = "lanes.job.failed"
	EventJobRetrying      = "lanes.job.retrying"
	EventJobDead          = "lanes.job.dead"
	EventJobReclaimed     = "lanes.job.reclaimed"
	EventJobRequeued      = "lanes.job.requeued"
	EventWorkerRegistered = "lanes.worker.registered"
	EventWorkerLost       = "lanes.worker.lost"
)

// Events returns every event type the extension can emit.
func Events() []string {
	return []string{
		EventJobEnqueued,
		EventJobStarted,
		EventJobCompleted,
		EventJobFailed,
		EventJobRetrying,
		EventJobDead,
		EventJobReclaimed,
		EventJobRequeued,
		EventWorkerRegistered,
		EventWorkerLost,
	}
}

// Envelope is the JSON body of every notification.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// ── Default payload types ───────────────────────────

type jobPayload struct {
	JobID      string   `json:"job_id"`
	JobType    string   `json:"job_type"`
	Priority   string   `json:"priority"`
	Status     string   `json:"status"`
	RetryCount int      `json:"retry_count"`
	Tags       []string `json:"tags,omitempty"`
}

func newJobPayload(j *job.Job) *jobPayload {
	return &jobPayload{
		JobID:      j.ID.String(),
		JobType:    j.Type,
		Priority:   j.Priority.String(),
		Status:     string(j.Status),
		RetryCount: j.RetryCount,
		Tags:       j.Tags,
	}
}

type jobCompletedPayload struct {
	jobPayload
	ElapsedMs int64 `json:"elapsed_ms"`
}

type jobErrorPayload struct {
	jobPayload
	Error string `json:"error"`
}

type jobRetryingPayload struct {
	jobPayload
	Attempt   int       `json:"attempt"`
	NextRunAt time.Time `json:"next_run_at"`
}

type jobReclaimedPayload struct {
	jobPayload
	WorkerID string `json:"worker_id"`
}

type workerPayload struct {
	WorkerID    string   `json:"worker_id"`
	Name        string   `json:"name"`
	Types       []string `json:"types"`
	Concurrency int      `json:"concurrency"`
}

func newWorkerPayload(w worker.Info) *workerPayload {
	return &workerPayload{
		WorkerID:    w.ID.String(),
		Name:        w.Name,
		Types:       w.SupportedTypes,
		Concurrency: w.Concurrency,
	}
}
