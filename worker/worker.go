package worker

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/id"
)

// AnyType in a worker's supported types accepts every job type.
const AnyType = "*"

// Worker is the manager's record of a registered worker.
type Worker struct {
	ID            id.WorkerID
	Name          string
	Concurrency   int
	RegisteredAt  time.Time
	LastHeartbeat time.Time
	Active        bool

	Processed         int64
	Failed            int64
	AvgProcessingTime time.Duration

	types  []string
	active map[id.JobID]struct{}
}

// New validates a registration and returns an active worker.
func New(name string, types []string, concurrency int, now time.Time) (*Worker, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", lanes.ErrInvalidWorker)
	case concurrency < 1:
		return nil, fmt.Errorf("%w: concurrency must be at least 1, got %d", lanes.ErrInvalidWorker, concurrency)
	}

	var clean []string
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(clean, t) {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("%w: at least one job type is required", lanes.ErrInvalidWorker)
	}
	slices.Sort(clean)

	return &Worker{
		ID:            id.NewWorkerID(),
		Name:          name,
		Concurrency:   concurrency,
		RegisteredAt:  now,
		LastHeartbeat: now,
		Active:        true,
		types:         clean,
		active:        make(map[id.JobID]struct{}, concurrency),
	}, nil
}

// Supports reports whether the worker accepts jobType.
func (w *Worker) Supports(jobType string) bool {
	_, found := slices.BinarySearch(w.types, jobType)
	if found {
		return true
	}
	_, wildcard := slices.BinarySearch(w.types, AnyType)
	return wildcard
}

// Types returns the supported job types, sorted.
func (w *Worker) Types() []string { return slices.Clone(w.types) }

// HasCapacity reports whether the worker is active with a free slot.
func (w *Worker) HasCapacity() bool {
	return w.Active && len(w.active) < w.Concurrency
}

// Assign adds jobID to the active set.
func (w *Worker) Assign(jobID id.JobID) { w.active[jobID] = struct{}{} }

// Release removes jobID from the active set and reports whether it was
// there.
func (w *Worker) Release(jobID id.JobID) bool {
	if _, ok := w.active[jobID]; !ok {
		return false
	}
	delete(w.active, jobID)
	return true
}

// Owns reports whether jobID is in the active set.
func (w *Worker) Owns(jobID id.JobID) bool {
	_, ok := w.active[jobID]
	return ok
}

// ActiveCount returns the number of jobs the worker is processing.
func (w *Worker) ActiveCount() int { return len(w.active) }

// ActiveJobs returns the active job ids.
func (w *Worker) ActiveJobs() []id.JobID {
	ids := make([]id.JobID, 0, len(w.active))
	for jobID := range w.active {
		ids = append(ids, jobID)
	}
	slices.SortFunc(ids, func(a, b id.JobID) int { return strings.Compare(a.String(), b.String()) })
	return ids
}

// Heartbeat records liveness at now.
func (w *Worker) Heartbeat(now time.Time) { w.LastHeartbeat = now }

// Stale reports whether the last heartbeat is older than after.
func (w *Worker) Stale(now time.Time, after time.Duration) bool {
	return now.Sub(w.LastHeartbeat) > after
}

// RecordSuccess folds elapsed into the processing statistics.
func (w *Worker) RecordSuccess(elapsed time.Duration) {
	w.Processed++
	w.AvgProcessingTime += (elapsed - w.AvgProcessingTime) / time.Duration(w.Processed)
}

// RecordFailure counts a failed attempt.
func (w *Worker) RecordFailure() { w.Failed++ }

// Info is a read-only snapshot of a worker.
type Info struct {
	ID                  id.WorkerID `json:"id"`
	Name                string      `json:"name"`
	Concurrency         int         `json:"concurrency"`
	SupportedTypes      []string    `json:"supported_types"`
	ActiveJobIDs        []id.JobID  `json:"active_job_ids"`
	RegisteredAt        time.Time   `json:"registered_at"`
	LastHeartbeat       time.Time   `json:"last_heartbeat"`
	IsActive            bool        `json:"is_active"`
	Processed           int64       `json:"processed"`
	Failed              int64       `json:"failed"`
	AvgProcessingTimeMs float64     `json:"avg_processing_time_ms"`
}

// Info returns a snapshot of the worker.
func (w *Worker) Info() Info {
	return Info{
		ID:                  w.ID,
		Name:                w.Name,
		Concurrency:         w.Concurrency,
		SupportedTypes:      w.Types(),
		ActiveJobIDs:        w.ActiveJobs(),
		RegisteredAt:        w.RegisteredAt,
		LastHeartbeat:       w.LastHeartbeat,
		IsActive:            w.Active,
		Processed:           w.Processed,
		Failed:              w.Failed,
		AvgProcessingTimeMs: float64(w.AvgProcessingTime) / float64(time.Millisecond),
	}
}
