package cron

import (
	"encoding/json"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/xraph/lanes/job"
)

// Entry is a scheduled job submission.
type Entry struct {
	Name      string          `json:"name"`
	Schedule  string          `json:"schedule"`
	JobType   string          `json:"job_type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Enabled   bool            `json:"enabled"`
	LastRunAt *time.Time      `json:"last_run_at,omitempty"`
	NextRunAt time.Time       `json:"next_run_at"`
	LastJobID string          `json:"last_job_id,omitempty"`
	LastError string          `json:"last_error,omitempty"`

	opts  []job.Option
	sched cronlib.Schedule
}

// Definition is a typed cron definition. T is the payload type and must
// be JSON-serializable.
type Definition[T any] struct {
	// Name is the unique identifier for this entry.
	Name string

	// Schedule is a cron expression (e.g. "*/5 * * * *" or "@every 30s").
	Schedule string

	// Job is the definition enqueued on each tick.
	Job *job.Definition[T]

	// Payload is enqueued with every run.
	Payload T
}
