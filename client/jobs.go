package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/api"
	"github.com/xraph/lanes/dlq"
	"github.com/xraph/lanes/engine"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/worker"
)

// EnqueueOption configures a submission.
type EnqueueOption func(*api.SubmitJobRequest)

// WithPriority sets the job priority.
func WithPriority(p job.Priority) EnqueueOption {
	return func(r *api.SubmitJobRequest) { r.Priority = &p }
}

// WithMaxRetries sets the retry budget.
func WithMaxRetries(n int) EnqueueOption {
	return func(r *api.SubmitJobRequest) { r.MaxRetries = &n }
}

// WithDelay postpones the first attempt.
func WithDelay(d time.Duration) EnqueueOption {
	return func(r *api.SubmitJobRequest) { r.Delay = d.String() }
}

// WithRunAt schedules the first attempt at t.
func WithRunAt(t time.Time) EnqueueOption {
	return func(r *api.SubmitJobRequest) { r.RunAt = &t }
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) EnqueueOption {
	return func(r *api.SubmitJobRequest) { r.Timeout = d.String() }
}

// WithDependencies gates the job on other jobs completing.
func WithDependencies(ids ...id.JobID) EnqueueOption {
	return func(r *api.SubmitJobRequest) { r.Dependencies = append(r.Dependencies, ids...) }
}

// WithTags labels the job.
func WithTags(tags ...string) EnqueueOption {
	return func(r *api.SubmitJobRequest) { r.Tags = append(r.Tags, tags...) }
}

// Enqueue marshals payload to JSON and submits a job of jobType.
func (c *Client) Enqueue(ctx context.Context, jobType string, payload any, opts ...EnqueueOption) (id.JobID, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return id.Nil, fmt.Errorf("lanes/client: marshal payload: %w", err)
	}

	req := api.SubmitJobRequest{Type: jobType, Payload: raw}
	for _, opt := range opts {
		opt(&req)
	}
	return c.Submit(ctx, req)
}

// Submit sends a prepared submission. It is never retried.
func (c *Client) Submit(ctx context.Context, req api.SubmitJobRequest) (id.JobID, error) {
	var resp api.SubmitJobResponse
	if err := c.do(ctx, http.MethodPost, "/v1/jobs", req, &resp); err != nil {
		return id.Nil, err
	}
	return resp.ID, nil
}

// GetJob returns the current record of a job.
func (c *Client) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	var j job.Job
	if err := c.do(ctx, http.MethodGet, "/v1/jobs/"+jobID.String(), nil, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// ListJobs lists jobs in any of statuses, or all jobs.
func (c *Client) ListJobs(ctx context.Context, statuses ...job.Status) ([]*job.Job, error) {
	q := url.Values{}
	for _, s := range statuses {
		q.Add("status", string(s))
	}
	var jobs []*job.Job
	if err := c.do(ctx, http.MethodGet, withQuery("/v1/jobs", q), nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// RegisterWorker adds a worker to the remote manager.
func (c *Client) RegisterWorker(ctx context.Context, name string, types []string, concurrency int) (id.WorkerID, error) {
	var resp api.RegisterWorkerResponse
	err := c.do(ctx, http.MethodPost, "/v1/workers", api.RegisterWorkerRequest{
		Name:        name,
		Types:       types,
		Concurrency: concurrency,
	}, &resp)
	if err != nil {
		return id.Nil, err
	}
	return resp.ID, nil
}

// ListWorkers lists registered workers.
func (c *Client) ListWorkers(ctx context.Context) ([]worker.Info, error) {
	var infos []worker.Info
	if err := c.do(ctx, http.MethodGet, "/v1/workers", nil, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// DeactivateWorker stops a worker from claiming new jobs.
func (c *Client) DeactivateWorker(ctx context.Context, workerID id.WorkerID) error {
	return c.do(ctx, http.MethodDelete, "/v1/workers/"+workerID.String(), nil, nil)
}

// ListDeadLetters lists dead-letter entries.
func (c *Client) ListDeadLetters(ctx context.Context, opts dlq.ListOpts) ([]*dlq.Entry, error) {
	q := url.Values{}
	if opts.Type != "" {
		q.Set("type", opts.Type)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	var entries []*dlq.Entry
	if err := c.do(ctx, http.MethodGet, withQuery("/v1/dlq", q), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// RetryDeadJob requeues a dead job.
func (c *Client) RetryDeadJob(ctx context.Context, jobID id.JobID) error {
	return c.do(ctx, http.MethodPost, "/v1/dlq/"+jobID.String()+"/retry", nil, nil)
}

// Metrics fetches a metrics snapshot.
func (c *Client) Metrics(ctx context.Context) (lanes.Metrics, error) {
	var m lanes.Metrics
	err := c.do(ctx, http.MethodGet, "/v1/metrics", nil, &m)
	return m, err
}

// Reap triggers one cleanup pass.
func (c *Client) Reap(ctx context.Context) (engine.ReapReport, error) {
	var r engine.ReapReport
	err := c.do(ctx, http.MethodPost, "/v1/reap", nil, &r)
	return r, err
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
