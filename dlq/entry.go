package dlq

import (
	"time"

	"github.com/xraph/lanes/job"
)

// Entry is a dead job held for inspection or requeue.
type Entry struct {
	Job      *job.Job  `json:"job"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// NewEntry snapshots j as a dead-letter entry.
func NewEntry(j *job.Job, failedAt time.Time) *Entry {
	return &Entry{
		Job:      j.Clone(),
		Error:    j.LastError,
		FailedAt: failedAt,
	}
}
