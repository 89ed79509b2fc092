// Package stream fans lanes lifecycle events out to in-process
// subscribers. A [Broker] is registered as a manager extension and each
// [Subscriber] receives events on a buffered channel, filtered by topic.
package stream

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of lifecycle event.
type EventType string

const (
	// Job events.
	EventJobEnqueued  EventType = "job.enqueued"
	EventJobStarted   EventType = "job.started"
	EventJobCompleted EventType = "job.completed"
	EventJobFailed    EventType = "job.failed"
	EventJobRetrying  EventType = "job.retrying"
	EventJobDead      EventType = "job.dead"
	EventJobReclaimed EventType = "job.reclaimed"
	EventJobRequeued  EventType = "job.requeued"

	// Worker events.
	EventWorkerRegistered EventType = "worker.registered"
	EventWorkerLost       EventType = "worker.lost"
)

// Event is the envelope delivered to subscribers.
type Event struct {
	// Type identifies the lifecycle event.
	Type EventType `json:"type"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"ts"`

	// JobType is the type of the job the event concerns, if any. It
	// routes the event to the matching type topic.
	JobType string `json:"job_type,omitempty"`

	// Topic is the entity topic of the event, e.g. job:<id>.
	Topic string `json:"topic,omitempty"`

	// Data is the event-specific payload.
	Data json.RawMessage `json:"data"`
}

// JobEventData is the payload for job lifecycle events.
type JobEventData struct {
	JobID      string `json:"job_id"`
	JobType    string `json:"job_type"`
	Priority   string `json:"priority"`
	Status     string `json:"status"`
	RetryCount int    `json:"retry_count"`
	ElapsedMs  int64  `json:"elapsed_ms,omitempty"`
	Error      string `json:"error,omitempty"`
	Attempt    int    `json:"attempt,omitempty"`
	NextRunAt  string `json:"next_run_at,omitempty"`
	WorkerID   string `json:"worker_id,omitempty"`
}

// WorkerEventData is the payload for worker lifecycle events.
type WorkerEventData struct {
	WorkerID    string   `json:"worker_id"`
	Name        string   `json:"name"`
	Types       []string `json:"types"`
	Concurrency int      `json:"concurrency"`
}
