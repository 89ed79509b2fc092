package job

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/id"
)

// Status represents the lifecycle state of a job.
type Status string

const (
	// StatusPending means the job is waiting for a worker.
	StatusPending Status = "pending"
	// StatusProcessing means a worker owns and is executing the job.
	StatusProcessing Status = "processing"
	// StatusCompleted means the handler succeeded.
	StatusCompleted Status = "completed"
	// StatusFailed is accepted from external records; the manager never
	// assigns it.
	StatusFailed Status = "failed"
	// StatusRetrying means the last attempt failed and another is scheduled.
	StatusRetrying Status = "retrying"
	// StatusDead means the retry budget is spent.
	StatusDead Status = "dead"
)

// Statuses returns every status.
func Statuses() []Status {
	return []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusRetrying, StatusDead}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return slices.Contains(Statuses(), s)
}

// Terminal reports whether no further transition happens without an
// explicit requeue.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusDead || s == StatusFailed
}

// Job represents a unit of work processed by a worker.
type Job struct {
	ID             id.JobID        `json:"id"`
	Type           string          `json:"type"`
	Priority       Priority        `json:"priority"`
	Status         Status          `json:"status"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Dependencies   []id.JobID      `json:"dependencies,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	ScheduledAt    time.Time       `json:"scheduled_at"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	RetryCount     int             `json:"retry_count"`
	MaxRetries     int             `json:"max_retries"`
	LastError      string          `json:"last_error,omitempty"`
	ProcessingTime time.Duration   `json:"processing_time"`
	Timeout        time.Duration   `json:"timeout,omitempty"`
	OwnerWorkerID  id.WorkerID     `json:"owner_worker_id,omitempty"`
	Version        int64           `json:"version"`
}

// validTransitions lists the allowed status changes.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusRetrying, StatusDead, StatusPending},
	StatusRetrying:   {StatusPending},
	StatusDead:       {StatusPending},
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to Status) bool {
	return slices.Contains(validTransitions[from], to)
}

// TransitionTo moves the job to status s, stamping UpdatedAt and bumping
// Version. It returns lanes.ErrInvalidTransition for a disallowed change
// and leaves the job untouched.
func (j *Job) TransitionTo(s Status, now time.Time) error {
	if !CanTransition(j.Status, s) {
		return fmt.Errorf("%w: %s -> %s for job %s", lanes.ErrInvalidTransition, j.Status, s, j.ID)
	}
	j.Status = s
	j.Touch(now)
	return nil
}

// Touch records a mutation that does not change status.
func (j *Job) Touch(now time.Time) {
	j.UpdatedAt = now
	j.Version++
}

// Ready reports whether the job is waiting in a lane and due at now.
func (j *Job) Ready(now time.Time) bool {
	if j.Status != StatusPending && j.Status != StatusRetrying {
		return false
	}
	return !j.ScheduledAt.After(now)
}

// HasTag reports whether the job carries tag.
func (j *Job) HasTag(tag string) bool {
	return slices.Contains(j.Tags, tag)
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	cp := *j
	if j.Payload != nil {
		cp.Payload = slices.Clone(j.Payload)
	}
	cp.Dependencies = slices.Clone(j.Dependencies)
	cp.Tags = slices.Clone(j.Tags)
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
