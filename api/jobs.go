package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
)

func (a *API) submitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if !decodeBody(w, r, &req) {
		return
	}

	opts, err := req.options()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobID, err := a.m.AddJob(r.Context(), req.Type, req.Payload, opts...)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SubmitJobResponse{ID: jobID})
}

// options converts the request into submission options.
func (req *SubmitJobRequest) options() ([]job.Option, error) {
	var opts []job.Option
	if req.Priority != nil {
		opts = append(opts, job.WithPriority(*req.Priority))
	}
	if req.MaxRetries != nil {
		opts = append(opts, job.WithMaxRetries(*req.MaxRetries))
	}
	if req.Delay != "" {
		d, err := time.ParseDuration(req.Delay)
		if err != nil {
			return nil, fmt.Errorf("invalid delay: %w", err)
		}
		opts = append(opts, job.WithDelay(d))
	}
	if req.RunAt != nil {
		opts = append(opts, job.WithRunAt(*req.RunAt))
	}
	if req.Timeout != "" {
		d, err := time.ParseDuration(req.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout: %w", err)
		}
		opts = append(opts, job.WithTimeout(d))
	}
	if len(req.Dependencies) > 0 {
		opts = append(opts, job.WithDependencies(req.Dependencies...))
	}
	if len(req.Tags) > 0 {
		opts = append(opts, job.WithTags(req.Tags...))
	}
	return opts, nil
}

func (a *API) listJobs(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := page(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit and offset must be non-negative integers")
		return
	}

	var statuses []job.Status
	for _, raw := range r.URL.Query()["status"] {
		s := job.Status(raw)
		if !s.Valid() {
			writeError(w, http.StatusBadRequest, "unknown status "+raw)
			return
		}
		statuses = append(statuses, s)
	}

	writeJSON(w, http.StatusOK, paginate(a.m.ListJobs(statuses...), limit, offset))
}

func (a *API) getJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := id.ParseJobID(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job ID: "+err.Error())
		return
	}

	j, err := a.m.GetJobStatus(jobID)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}
