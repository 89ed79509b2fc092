package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/dlq"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/worker"
)

// GetJobStatus returns a copy of the indexed job.
func (m *Manager) GetJobStatus(jobID id.JobID) (*job.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", lanes.ErrJobNotFound, jobID)
	}
	return j.Clone(), nil
}

// ListJobs returns copies of indexed jobs in any of the given statuses,
// oldest first. No statuses means all jobs.
func (m *Manager) ListJobs(statuses ...job.Status) []*job.Job {
	m.mu.Lock()
	out := make([]*job.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		if len(statuses) == 0 || slices.Contains(statuses, j.Status) {
			out = append(out, j.Clone())
		}
	}
	m.mu.Unlock()

	slices.SortFunc(out, func(a, b *job.Job) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return a.ID.Compare(b.ID)
	})
	return out
}

// ListWorkers returns snapshots of all registered workers, including
// inactive ones, ordered by registration.
func (m *Manager) ListWorkers() []worker.Info {
	m.mu.Lock()
	out := make([]worker.Info, 0, len(m.workers))
	for _, w := range m.workers {
		out = append(out, w.Info())
	}
	m.mu.Unlock()

	slices.SortFunc(out, func(a, b worker.Info) int {
		if c := a.RegisteredAt.Compare(b.RegisteredAt); c != 0 {
			return c
		}
		return a.ID.Compare(b.ID)
	})
	return out
}

// GetWorker returns a snapshot of one worker.
func (m *Manager) GetWorker(workerID id.WorkerID) (worker.Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.workers[workerID]
	if !ok {
		return worker.Info{}, fmt.Errorf("%w: %s", lanes.ErrWorkerNotFound, workerID)
	}
	return w.Info(), nil
}

// ListDeadLetterJobs returns copies of the dead jobs in the dead-letter
// queue, oldest first. Use ListDeadLetters for the failure details.
func (m *Manager) ListDeadLetterJobs() []*job.Job {
	entries := m.dead.List(dlq.ListOpts{})
	out := make([]*job.Job, len(entries))
	for i, e := range entries {
		out[i] = e.Job.Clone()
	}
	return out
}

// ListDeadLetters returns copies of the dead-letter entries matching opts,
// each with the error and time of the final failure.
func (m *Manager) ListDeadLetters(opts dlq.ListOpts) []*dlq.Entry {
	entries := m.dead.List(opts)
	out := make([]*dlq.Entry, len(entries))
	for i, e := range entries {
		cp := *e
		cp.Job = e.Job.Clone()
		out[i] = &cp
	}
	return out
}

// RetryDeadJob requeues a dead job with a fresh retry budget. It reports
// false when jobID is unknown or not dead.
func (m *Manager) RetryDeadJob(ctx context.Context, jobID id.JobID) bool {
	m.mu.Lock()
	j, ok := m.jobs[jobID]
	if !ok || j.Status != job.StatusDead {
		m.mu.Unlock()
		return false
	}

	now := m.now()
	_ = j.TransitionTo(job.StatusPending, now)
	j.RetryCount = 0
	j.LastError = ""
	j.ScheduledAt = now
	j.CompletedAt = nil
	m.dead.Remove(jobID)
	m.lanes.Push(j)
	snap := j.Clone()
	m.wakeLocked()
	m.mu.Unlock()

	m.persist(ctx, snap)

	m.logger.Info("dead job requeued",
		slog.String("job_id", jobID.String()),
		slog.String("job_type", snap.Type),
	)
	m.extensions.EmitJobRequeued(ctx, snap)
	return true
}
