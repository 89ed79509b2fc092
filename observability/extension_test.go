package observability_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/ext"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/observability"
	"github.com/xraph/lanes/worker"
)

func newTestExtension() *observability.MetricsExtension {
	return observability.NewMetricsExtension(prometheus.NewRegistry())
}

func newTestJob() *job.Job {
	return &job.Job{
		ID:       id.NewJobID(),
		Type:     "email.send",
		Priority: job.PriorityNormal,
	}
}

func TestMetricsExtension_Name(t *testing.T) {
	e := newTestExtension()
	if e.Name() != "observability-metrics" {
		t.Errorf("expected name %q, got %q", "observability-metrics", e.Name())
	}
}

func TestMetricsExtension_JobEnqueued(t *testing.T) {
	e := newTestExtension()
	if err := e.OnJobEnqueued(context.Background(), newTestJob()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := testutil.ToFloat64(e.JobEnqueued.WithLabelValues("email.send")); v != 1 {
		t.Errorf("JobEnqueued: want 1, got %v", v)
	}
}

func TestMetricsExtension_JobCompletedObservesDuration(t *testing.T) {
	e := newTestExtension()
	if err := e.OnJobCompleted(context.Background(), newTestJob(), 100*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := testutil.ToFloat64(e.JobCompleted.WithLabelValues("email.send")); v != 1 {
		t.Errorf("JobCompleted: want 1, got %v", v)
	}
	if n := testutil.CollectAndCount(e.JobDuration); n != 1 {
		t.Errorf("JobDuration: want 1 series, got %d", n)
	}
}

func TestMetricsExtension_CountersPartitionByType(t *testing.T) {
	e := newTestExtension()
	ctx := context.Background()

	other := newTestJob()
	other.Type = "webhook.deliver"

	_ = e.OnJobFailed(ctx, newTestJob(), errors.New("boom"))
	_ = e.OnJobFailed(ctx, newTestJob(), errors.New("boom"))
	_ = e.OnJobFailed(ctx, other, errors.New("boom"))

	if v := testutil.ToFloat64(e.JobFailed.WithLabelValues("email.send")); v != 2 {
		t.Errorf("email.send failures: want 2, got %v", v)
	}
	if v := testutil.ToFloat64(e.JobFailed.WithLabelValues("webhook.deliver")); v != 1 {
		t.Errorf("webhook.deliver failures: want 1, got %v", v)
	}
}

func TestMetricsExtension_MetricsComputedSetsGauges(t *testing.T) {
	e := newTestExtension()
	err := e.OnMetricsComputed(context.Background(), lanes.Metrics{
		Pending:         4,
		Dead:            2,
		ActiveWorkers:   3,
		Throughput:      1.5,
		ErrorRate:       0.25,
		AvgWaitMs:       500,
		AvgProcessingMs: 2000,
		Submitted:       10,
		Failed:          1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"pending", testutil.ToFloat64(e.JobsByStatus.WithLabelValues("pending")), 4},
		{"dead", testutil.ToFloat64(e.JobsByStatus.WithLabelValues("dead")), 2},
		{"workers", testutil.ToFloat64(e.ActiveWorkers), 3},
		{"throughput", testutil.ToFloat64(e.Throughput), 1.5},
		{"error_rate", testutil.ToFloat64(e.ErrorRate), 0.25},
		{"avg_wait", testutil.ToFloat64(e.AvgWait), 0.5},
		{"avg_processing", testutil.ToFloat64(e.AvgProcessing), 2},
		{"submitted", testutil.ToFloat64(e.SubmittedTotal), 10},
		{"failed", testutil.ToFloat64(e.FailedAttempts), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: want %v, got %v", c.name, c.want, c.got)
		}
	}
}

func TestMetricsExtension_ViaRegistry(t *testing.T) {
	e := newTestExtension()

	reg := ext.NewRegistry(slog.Default())
	reg.Register(e)

	ctx := context.Background()
	j := newTestJob()

	reg.EmitJobEnqueued(ctx, j)
	reg.EmitJobCompleted(ctx, j, 50*time.Millisecond)
	reg.EmitJobFailed(ctx, j, errors.New("fail"))
	reg.EmitJobRetrying(ctx, j, 1, time.Now())
	reg.EmitJobDead(ctx, j, errors.New("dead"))
	reg.EmitJobReclaimed(ctx, j, id.NewWorkerID())
	reg.EmitJobRequeued(ctx, j)
	reg.EmitWorkerLost(ctx, worker.Info{Name: "w1"})

	checks := []struct {
		name  string
		value float64
	}{
		{"JobEnqueued", testutil.ToFloat64(e.JobEnqueued.WithLabelValues(j.Type))},
		{"JobCompleted", testutil.ToFloat64(e.JobCompleted.WithLabelValues(j.Type))},
		{"JobFailed", testutil.ToFloat64(e.JobFailed.WithLabelValues(j.Type))},
		{"JobRetried", testutil.ToFloat64(e.JobRetried.WithLabelValues(j.Type))},
		{"JobDead", testutil.ToFloat64(e.JobDead.WithLabelValues(j.Type))},
		{"JobReclaimed", testutil.ToFloat64(e.JobReclaimed.WithLabelValues(j.Type))},
		{"JobRequeued", testutil.ToFloat64(e.JobRequeued.WithLabelValues(j.Type))},
		{"WorkerLost", testutil.ToFloat64(e.WorkerLost)},
	}

	for _, c := range checks {
		if c.value != 1 {
			t.Errorf("%s: want 1, got %v", c.name, c.value)
		}
	}
}
