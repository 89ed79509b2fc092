package api

import (
	"encoding/json"
	"time"

	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
)

// SubmitJobRequest is the body of POST /v1/jobs. Zero-valued optional
// fields fall back to the manager defaults.
type SubmitJobRequest struct {
	Type         string          `json:"type"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Priority     *job.Priority   `json:"priority,omitempty"`
	MaxRetries   *int            `json:"max_retries,omitempty"`
	Delay        string          `json:"delay,omitempty"`
	RunAt        *time.Time      `json:"run_at,omitempty"`
	Timeout      string          `json:"timeout,omitempty"`
	Dependencies []id.JobID      `json:"dependencies,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
}

// SubmitJobResponse is returned by POST /v1/jobs.
type SubmitJobResponse struct {
	ID id.JobID `json:"id"`
}

// RegisterWorkerRequest is the body of POST /v1/workers.
type RegisterWorkerRequest struct {
	Name        string   `json:"name"`
	Types       []string `json:"types"`
	Concurrency int      `json:"concurrency"`
}

// RegisterWorkerResponse is returned by POST /v1/workers.
type RegisterWorkerResponse struct {
	ID id.WorkerID `json:"id"`
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
