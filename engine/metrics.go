package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/job"
)

// GetMetrics computes a fresh snapshot from the in-memory index.
func (m *Manager) GetMetrics() lanes.Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	windowStart := now.Add(-m.cfg.ThroughputWindow)

	s := lanes.Metrics{
		Submitted:  m.submitted,
		Failed:     m.failedAttempts,
		ComputedAt: now,
	}

	var (
		waitTotal, procTotal time.Duration
		waitN, procN         int
		recent               int
	)
	for _, j := range m.jobs {
		switch j.Status {
		case job.StatusPending:
			s.Pending++
		case job.StatusProcessing:
			s.Processing++
		case job.StatusRetrying:
			s.Retrying++
		case job.StatusCompleted:
			s.Completed++
			procTotal += j.ProcessingTime
			procN++
			if j.CompletedAt != nil && j.CompletedAt.After(windowStart) {
				recent++
			}
		case job.StatusDead:
			s.Dead++
		}
		if j.StartedAt != nil {
			waitTotal += j.StartedAt.Sub(j.CreatedAt)
			waitN++
		}
	}

	for _, w := range m.workers {
		if w.Active {
			s.ActiveWorkers++
		}
	}

	if waitN > 0 {
		s.AvgWaitMs = millis(waitTotal) / float64(waitN)
	}
	if procN > 0 {
		s.AvgProcessingMs = millis(procTotal) / float64(procN)
	}
	s.Throughput = float64(recent) / m.cfg.ThroughputWindow.Seconds()
	if finished := m.completedTotal + m.failedAttempts; finished > 0 {
		s.ErrorRate = float64(m.failedAttempts) / float64(finished)
	}
	return s
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// runMetrics publishes a snapshot to extensions every MetricsInterval.
func (m *Manager) runMetrics(ctx context.Context) {
	defer m.bgWG.Done()

	ticker := time.NewTicker(m.cfg.MetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.bgStop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := m.GetMetrics()
			m.logger.Debug("metrics computed",
				slog.Int("pending", s.Pending),
				slog.Int("processing", s.Processing),
				slog.Int("dead", s.Dead),
				slog.Float64("throughput", s.Throughput),
				slog.Float64("error_rate", s.ErrorRate),
			)
			m.extensions.EmitMetricsComputed(ctx, s)
		}
	}
}
