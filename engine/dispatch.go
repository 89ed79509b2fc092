package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/lanes/dlq"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/worker"
)

var _ worker.Source = (*Manager)(nil)

// Heartbeat implements worker.Source.
func (m *Manager) Heartbeat(workerID id.WorkerID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.workers[workerID]
	if !ok || !w.Active {
		return false
	}
	w.Heartbeat(m.now())
	return true
}

// Claim implements worker.Source. The job is taken from its lane, marked
// processing and persisted before it is returned.
func (m *Manager) Claim(ctx context.Context, workerID id.WorkerID) (*job.Job, bool) {
	m.mu.Lock()
	w, ok := m.workers[workerID]
	if !ok || !w.Active || !w.HasCapacity() || m.closing {
		m.mu.Unlock()
		return nil, false
	}

	now := m.now()
	j, ok := m.lanes.Take(now, func(c *job.Job) bool {
		return w.Supports(c.Type) && m.dependenciesMetLocked(c) && m.throttle.Acquire(c.Type)
	})
	if !ok {
		m.mu.Unlock()
		return nil, false
	}

	if err := j.TransitionTo(job.StatusProcessing, now); err != nil {
		// Only pending jobs are laned; anything else is a bookkeeping bug.
		m.throttle.Release(j.Type)
		m.mu.Unlock()
		m.logger.Error("laned job not claimable",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	started := now
	j.StartedAt = &started
	j.OwnerWorkerID = workerID
	w.Assign(j.ID)
	snap := j.Clone()
	m.mu.Unlock()

	m.persist(ctx, snap)

	// The store write runs unlocked. Shutdown may have begun or the worker
	// may have been reclaimed meanwhile; either way the attempt must not
	// start.
	m.mu.Lock()
	owned := j.Status == job.StatusProcessing && j.OwnerWorkerID == workerID
	if m.closing || !owned {
		var reverted *job.Job
		if owned {
			reverted = m.unclaimLocked(w, j, m.now())
		} else {
			w.Release(j.ID)
		}
		m.mu.Unlock()
		if reverted != nil {
			m.persist(ctx, reverted)
		}
		return nil, false
	}
	m.mu.Unlock()

	m.extensions.EmitJobStarted(ctx, snap)

	return snap.Clone(), true
}

// unclaimLocked returns a claimed job that never started to its lane and
// returns a snapshot to persist. m.mu must be held.
func (m *Manager) unclaimLocked(w *worker.Worker, j *job.Job, now time.Time) *job.Job {
	w.Release(j.ID)
	_ = j.TransitionTo(job.StatusPending, now)
	j.StartedAt = nil
	j.OwnerWorkerID = id.WorkerID{}
	m.throttle.Release(j.Type)
	if cur, ok := m.jobs[j.ID]; ok && cur == j {
		m.lanes.Push(j)
	}
	return j.Clone()
}

// dependenciesMetLocked reports whether every dependency of j is completed.
// m.mu must be held.
func (m *Manager) dependenciesMetLocked(j *job.Job) bool {
	for _, dep := range j.Dependencies {
		d, ok := m.jobs[dep]
		if !ok || d.Status != job.StatusCompleted {
			return false
		}
	}
	return true
}

// Finish implements worker.Source. Results for jobs the worker no longer
// owns are discarded.
func (m *Manager) Finish(ctx context.Context, workerID id.WorkerID, attempt *job.Job, elapsed time.Duration, runErr error) {
	m.mu.Lock()
	j, ok := m.jobs[attempt.ID]
	w := m.workers[workerID]
	if !ok || w == nil || !w.Owns(attempt.ID) ||
		j.Status != job.StatusProcessing || j.OwnerWorkerID != workerID {
		if w != nil {
			w.Release(attempt.ID)
		}
		m.mu.Unlock()
		m.logger.Debug("discarding stale job result",
			slog.String("job_id", attempt.ID.String()),
			slog.String("worker_id", workerID.String()),
		)
		return
	}

	now := m.now()
	m.throttle.Release(j.Type)
	j.ProcessingTime = elapsed
	j.OwnerWorkerID = id.WorkerID{}

	if runErr == nil {
		m.completeLocked(ctx, w, j, elapsed, now)
		return
	}
	m.failLocked(ctx, w, j, runErr, now)
}

// completeLocked records a successful attempt and unlocks m.mu.
func (m *Manager) completeLocked(ctx context.Context, w *worker.Worker, j *job.Job, elapsed time.Duration, now time.Time) {
	_ = j.TransitionTo(job.StatusCompleted, now)
	completed := now
	j.CompletedAt = &completed
	w.RecordSuccess(elapsed)
	m.completedTotal++
	snap := j.Clone()
	m.mu.Unlock()

	m.persist(ctx, snap)
	m.release(w.ID, j.ID)

	m.logger.Debug("job completed",
		slog.String("job_id", j.ID.String()),
		slog.String("job_type", j.Type),
		slog.String("worker_id", w.ID.String()),
		slog.Duration("elapsed", elapsed),
	)
	m.extensions.EmitJobCompleted(ctx, snap, elapsed)
}

// failLocked records a failed attempt, schedules a retry or moves the job
// to the dead-letter queue, and unlocks m.mu.
func (m *Manager) failLocked(ctx context.Context, w *worker.Worker, j *job.Job, runErr error, now time.Time) {
	w.RecordFailure()
	m.failedAttempts++
	j.RetryCount++
	j.LastError = runErr.Error()

	if j.RetryCount <= j.MaxRetries {
		delay := m.backoff.Delay(j.RetryCount)
		_ = j.TransitionTo(job.StatusRetrying, now)
		j.ScheduledAt = now.Add(delay)
		retrying := j.Clone()
		_ = j.TransitionTo(job.StatusPending, now)
		pending := j.Clone()
		m.mu.Unlock()

		m.persist(ctx, retrying)
		m.persist(ctx, pending)

		m.mu.Lock()
		w.Release(j.ID)
		if cur, ok := m.jobs[j.ID]; ok && cur == j && j.Status == job.StatusPending {
			m.lanes.Push(j)
		}
		m.wakeLocked()
		m.mu.Unlock()

		m.logger.Warn("job failed, retrying",
			slog.String("job_id", j.ID.String()),
			slog.String("job_type", j.Type),
			slog.Int("attempt", retrying.RetryCount),
			slog.Int("max_retries", retrying.MaxRetries),
			slog.Duration("backoff", delay),
			slog.String("error", runErr.Error()),
		)
		m.extensions.EmitJobFailed(ctx, retrying, runErr)
		m.extensions.EmitJobRetrying(ctx, pending, retrying.RetryCount, pending.ScheduledAt)
		return
	}

	_ = j.TransitionTo(job.StatusDead, now)
	dead := now
	j.CompletedAt = &dead
	snap := j.Clone()
	if evicted := m.dead.Push(dlq.NewEntry(snap, now)); evicted != nil {
		delete(m.jobs, evicted.Job.ID)
		m.logger.Warn("dead-letter queue full, evicted oldest entry",
			slog.String("job_id", evicted.Job.ID.String()),
			slog.String("job_type", evicted.Job.Type),
		)
	}
	m.mu.Unlock()

	m.persist(ctx, snap)
	m.release(w.ID, j.ID)

	m.logger.Error("job exhausted retries, moved to dead-letter queue",
		slog.String("job_id", j.ID.String()),
		slog.String("job_type", j.Type),
		slog.Int("attempts", snap.RetryCount),
		slog.String("error", runErr.Error()),
	)
	m.extensions.EmitJobFailed(ctx, snap, runErr)
	m.extensions.EmitJobDead(ctx, snap, runErr)
}

// release frees the worker slot held for jobID and wakes the loops, since
// a completion may unblock dependents.
func (m *Manager) release(workerID id.WorkerID, jobID id.JobID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.workers[workerID]; ok {
		w.Release(jobID)
	}
	m.wakeLocked()
}
