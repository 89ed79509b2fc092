package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/worker"
)

// ReapReport summarises one cleanup pass.
type ReapReport struct {
	LostWorkers int `json:"lost_workers"`
	Reclaimed   int `json:"reclaimed"`
	Evicted     int `json:"evicted"`
}

type reclaimed struct {
	job      *job.Job
	workerID id.WorkerID
}

// Reap runs one cleanup pass: workers whose last heartbeat is older than
// HeartbeatInterval × HeartbeatMissLimit are deactivated and their
// processing jobs returned to pending without a retry penalty, and
// completed jobs past the retention window are evicted from memory
// unless a job that has not completed still depends on them.
func (m *Manager) Reap(ctx context.Context) ReapReport {
	var (
		report ReapReport
		back   []reclaimed
		lost   []worker.Info
		loops  []*worker.Loop
	)

	m.mu.Lock()
	now := m.now()
	staleAfter := m.cfg.StaleAfter()

	for wid, w := range m.workers {
		if !w.Active || !w.Stale(now, staleAfter) {
			continue
		}
		w.Active = false
		for _, jobID := range w.ActiveJobs() {
			w.Release(jobID)
			j, ok := m.jobs[jobID]
			if !ok || j.Status != job.StatusProcessing || j.OwnerWorkerID != wid {
				continue
			}
			_ = j.TransitionTo(job.StatusPending, now)
			j.OwnerWorkerID = id.WorkerID{}
			m.throttle.Release(j.Type)
			m.lanes.Push(j)
			back = append(back, reclaimed{job: j.Clone(), workerID: wid})
		}
		lost = append(lost, w.Info())
		if l, ok := m.loops[wid]; ok {
			loops = append(loops, l)
			delete(m.loops, wid)
		}
	}

	report.Evicted = m.evictCompletedLocked(now)
	if len(back) > 0 {
		m.wakeLocked()
	}
	m.mu.Unlock()

	for _, l := range loops {
		l.Stop()
	}
	for _, r := range back {
		m.persist(ctx, r.job)
	}

	for _, info := range lost {
		m.logger.Warn("worker lost, missed heartbeats",
			slog.String("worker_id", info.ID.String()),
			slog.String("name", info.Name),
			slog.Time("last_heartbeat", info.LastHeartbeat),
		)
		m.extensions.EmitWorkerLost(ctx, info)
	}
	for _, r := range back {
		m.logger.Info("job reclaimed from lost worker",
			slog.String("job_id", r.job.ID.String()),
			slog.String("job_type", r.job.Type),
			slog.String("worker_id", r.workerID.String()),
		)
		m.extensions.EmitJobReclaimed(ctx, r.job, r.workerID)
	}
	if report.Evicted > 0 {
		m.logger.Debug("evicted completed jobs", slog.Int("count", report.Evicted))
	}

	report.LostWorkers = len(lost)
	report.Reclaimed = len(back)
	return report
}

// evictCompletedLocked drops completed jobs older than the retention
// window. m.mu must be held.
func (m *Manager) evictCompletedLocked(now time.Time) int {
	cutoff := now.Add(-m.cfg.RetentionWindow)

	needed := make(map[id.JobID]struct{}, len(m.pinned))
	for dep := range m.pinned {
		needed[dep] = struct{}{}
	}
	for _, j := range m.jobs {
		if j.Status == job.StatusCompleted {
			continue
		}
		for _, dep := range j.Dependencies {
			needed[dep] = struct{}{}
		}
	}

	evicted := 0
	for jobID, j := range m.jobs {
		if j.Status != job.StatusCompleted || j.CompletedAt == nil || !j.CompletedAt.Before(cutoff) {
			continue
		}
		if _, ok := needed[jobID]; ok {
			continue
		}
		delete(m.jobs, jobID)
		evicted++
	}
	return evicted
}

// runCleanup calls Reap every CleanupInterval until the manager shuts down.
func (m *Manager) runCleanup(ctx context.Context) {
	defer m.bgWG.Done()

	ticker := time.NewTicker(m.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.bgStop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Reap(ctx)
		}
	}
}
