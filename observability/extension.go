package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/ext"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/worker"
)

// Compile-time interface checks.
var (
	_ ext.Extension       = (*MetricsExtension)(nil)
	_ ext.JobEnqueued     = (*MetricsExtension)(nil)
	_ ext.JobCompleted    = (*MetricsExtension)(nil)
	_ ext.JobFailed       = (*MetricsExtension)(nil)
	_ ext.JobRetrying     = (*MetricsExtension)(nil)
	_ ext.JobDead         = (*MetricsExtension)(nil)
	_ ext.JobReclaimed    = (*MetricsExtension)(nil)
	_ ext.JobRequeued     = (*MetricsExtension)(nil)
	_ ext.WorkerLost      = (*MetricsExtension)(nil)
	_ ext.MetricsComputed = (*MetricsExtension)(nil)
)

const namespace = "lanes"

// MetricsExtension records lifecycle metrics as Prometheus collectors.
// Counters and the duration histogram are partitioned by job type; the
// snapshot gauges are refreshed from OnMetricsComputed.
type MetricsExtension struct {
	JobEnqueued  *prometheus.CounterVec
	JobCompleted *prometheus.CounterVec
	JobFailed    *prometheus.CounterVec
	JobRetried   *prometheus.CounterVec
	JobDead      *prometheus.CounterVec
	JobReclaimed *prometheus.CounterVec
	JobRequeued  *prometheus.CounterVec
	WorkerLost   prometheus.Counter
	JobDuration  *prometheus.HistogramVec

	JobsByStatus   *prometheus.GaugeVec
	ActiveWorkers  prometheus.Gauge
	Throughput     prometheus.Gauge
	ErrorRate      prometheus.Gauge
	AvgWait        prometheus.Gauge
	AvgProcessing  prometheus.Gauge
	SubmittedTotal prometheus.Gauge
	FailedAttempts prometheus.Gauge
}

// NewMetricsExtension creates a MetricsExtension and registers its
// collectors with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewMetricsExtension(reg prometheus.Registerer) *MetricsExtension {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	byType := []string{"job_type"}

	return &MetricsExtension{
		JobEnqueued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "jobs_enqueued_total",
			Help: "Total number of jobs accepted, partitioned by type.",
		}, byType),
		JobCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "jobs_completed_total",
			Help: "Total number of jobs completed successfully.",
		}, byType),
		JobFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "jobs_failed_total",
			Help: "Total number of failed attempts.",
		}, byType),
		JobRetried: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "jobs_retried_total",
			Help: "Total number of retries scheduled.",
		}, byType),
		JobDead: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "jobs_dead_total",
			Help: "Total number of jobs moved to the dead-letter queue.",
		}, byType),
		JobReclaimed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "jobs_reclaimed_total",
			Help: "Total number of jobs reclaimed from lost workers.",
		}, byType),
		JobRequeued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "jobs_requeued_total",
			Help: "Total number of dead jobs requeued.",
		}, byType),
		WorkerLost: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "workers_lost_total",
			Help: "Total number of workers deactivated for missed heartbeats.",
		}),
		JobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "job_duration_seconds",
			Help:    "Handler execution time of completed jobs.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}, byType),

		JobsByStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "jobs",
			Help: "Current number of indexed jobs, partitioned by status.",
		}, []string{"status"}),
		ActiveWorkers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "workers_active",
			Help: "Current number of active workers.",
		}),
		Throughput: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "throughput_per_second",
			Help: "Completions per second over the throughput window.",
		}),
		ErrorRate: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "error_rate",
			Help: "Failed attempts over all finished attempts.",
		}),
		AvgWait: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "avg_wait_seconds",
			Help: "Mean time from creation to first start.",
		}),
		AvgProcessing: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "avg_processing_seconds",
			Help: "Mean handler time of completed jobs.",
		}),
		SubmittedTotal: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "jobs_submitted",
			Help: "Jobs submitted since the manager started.",
		}),
		FailedAttempts: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "failed_attempts",
			Help: "Failed attempts since the manager started.",
		}),
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Job lifecycle hooks ─────────────────────────────

// OnJobEnqueued implements ext.JobEnqueued.
func (m *MetricsExtension) OnJobEnqueued(_ context.Context, j *job.Job) error {
	m.JobEnqueued.WithLabelValues(j.Type).Inc()
	return nil
}

// OnJobCompleted implements ext.JobCompleted.
func (m *MetricsExtension) OnJobCompleted(_ context.Context, j *job.Job, elapsed time.Duration) error {
	m.JobCompleted.WithLabelValues(j.Type).Inc()
	m.JobDuration.WithLabelValues(j.Type).Observe(elapsed.Seconds())
	return nil
}

// OnJobFailed implements ext.JobFailed.
func (m *MetricsExtension) OnJobFailed(_ context.Context, j *job.Job, _ error) error {
	m.JobFailed.WithLabelValues(j.Type).Inc()
	return nil
}

// OnJobRetrying implements ext.JobRetrying.
func (m *MetricsExtension) OnJobRetrying(_ context.Context, j *job.Job, _ int, _ time.Time) error {
	m.JobRetried.WithLabelValues(j.Type).Inc()
	return nil
}

// OnJobDead implements ext.JobDead.
func (m *MetricsExtension) OnJobDead(_ context.Context, j *job.Job, _ error) error {
	m.JobDead.WithLabelValues(j.Type).Inc()
	return nil
}

// OnJobReclaimed implements ext.JobReclaimed.
func (m *MetricsExtension) OnJobReclaimed(_ context.Context, j *job.Job, _ id.WorkerID) error {
	m.JobReclaimed.WithLabelValues(j.Type).Inc()
	return nil
}

// OnJobRequeued implements ext.JobRequeued.
func (m *MetricsExtension) OnJobRequeued(_ context.Context, j *job.Job) error {
	m.JobRequeued.WithLabelValues(j.Type).Inc()
	return nil
}

// ── Worker lifecycle hooks ──────────────────────────

// OnWorkerLost implements ext.WorkerLost.
func (m *MetricsExtension) OnWorkerLost(_ context.Context, _ worker.Info) error {
	m.WorkerLost.Inc()
	return nil
}

// ── Snapshot ────────────────────────────────────────

// OnMetricsComputed implements ext.MetricsComputed.
func (m *MetricsExtension) OnMetricsComputed(_ context.Context, s lanes.Metrics) error {
	m.JobsByStatus.WithLabelValues(string(job.StatusPending)).Set(float64(s.Pending))
	m.JobsByStatus.WithLabelValues(string(job.StatusProcessing)).Set(float64(s.Processing))
	m.JobsByStatus.WithLabelValues(string(job.StatusRetrying)).Set(float64(s.Retrying))
	m.JobsByStatus.WithLabelValues(string(job.StatusCompleted)).Set(float64(s.Completed))
	m.JobsByStatus.WithLabelValues(string(job.StatusDead)).Set(float64(s.Dead))
	m.ActiveWorkers.Set(float64(s.ActiveWorkers))
	m.Throughput.Set(s.Throughput)
	m.ErrorRate.Set(s.ErrorRate)
	m.AvgWait.Set(s.AvgWaitMs / 1000)
	m.AvgProcessing.Set(s.AvgProcessingMs / 1000)
	m.SubmittedTotal.Set(float64(s.Submitted))
	m.FailedAttempts.Set(float64(s.Failed))
	return nil
}
