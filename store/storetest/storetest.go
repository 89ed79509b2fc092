// Package storetest provides a conformance suite for store.Store
// implementations.
package storetest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/store"
)

// Run exercises s against the store.Store contract. s must be empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()

	t.Run("Ping", func(t *testing.T) {
		require.NoError(t, s.Ping(context.Background()))
	})
	t.Run("UpsertAndGetRoundTrip", func(t *testing.T) { testRoundTrip(t, s) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, s) })
	t.Run("OlderVersionIgnored", func(t *testing.T) { testVersioning(t, s) })
	t.Run("QueryByStatus", func(t *testing.T) { testQueryByStatus(t, s) })
}

// NewJob returns a pending job with every optional field populated.
// Times are truncated to microseconds, the coarsest precision any backend
// stores.
func NewJob(jobType string, status job.Status, scheduledAt time.Time) *job.Job {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &job.Job{
		ID:          id.NewJobID(),
		Type:        jobType,
		Priority:    job.PriorityHigh,
		Status:      status,
		Payload:     json.RawMessage(`{"to":"alice@example.com"}`),
		Tags:        []string{"billing", "eu"},
		CreatedAt:   now,
		UpdatedAt:   now,
		ScheduledAt: scheduledAt.UTC().Truncate(time.Microsecond),
		MaxRetries:  3,
		Timeout:     30 * time.Second,
		Version:     1,
	}
}

func testRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()

	dep := id.NewJobID()
	j := NewJob("email.send", job.StatusProcessing, time.Now())
	started := j.CreatedAt.Add(2 * time.Second)
	j.StartedAt = &started
	j.Dependencies = []id.JobID{dep}
	j.RetryCount = 1
	j.LastError = "smtp: connection refused"
	j.ProcessingTime = 1500 * time.Millisecond
	j.OwnerWorkerID = id.NewWorkerID()
	j.Version = 4

	require.NoError(t, s.Upsert(ctx, j))

	got, err := s.GetJob(ctx, j.ID)
	require.NoError(t, err)

	assert.Equal(t, j.ID, got.ID)
	assert.Equal(t, j.Type, got.Type)
	assert.Equal(t, j.Priority, got.Priority)
	assert.Equal(t, j.Status, got.Status)
	assert.JSONEq(t, string(j.Payload), string(got.Payload))
	assert.Equal(t, j.Dependencies, got.Dependencies)
	assert.Equal(t, j.Tags, got.Tags)
	assert.True(t, j.CreatedAt.Equal(got.CreatedAt), "created_at %s != %s", got.CreatedAt, j.CreatedAt)
	assert.True(t, j.ScheduledAt.Equal(got.ScheduledAt), "scheduled_at %s != %s", got.ScheduledAt, j.ScheduledAt)
	require.NotNil(t, got.StartedAt)
	assert.True(t, started.Equal(*got.StartedAt))
	assert.Nil(t, got.CompletedAt)
	assert.Equal(t, j.RetryCount, got.RetryCount)
	assert.Equal(t, j.MaxRetries, got.MaxRetries)
	assert.Equal(t, j.LastError, got.LastError)
	assert.Equal(t, j.ProcessingTime, got.ProcessingTime)
	assert.Equal(t, j.Timeout, got.Timeout)
	assert.Equal(t, j.OwnerWorkerID, got.OwnerWorkerID)
	assert.Equal(t, j.Version, got.Version)
}

func testGetMissing(t *testing.T, s store.Store) {
	_, err := s.GetJob(context.Background(), id.NewJobID())
	require.ErrorIs(t, err, lanes.ErrJobNotFound)
}

func testVersioning(t *testing.T, s store.Store) {
	ctx := context.Background()

	j := NewJob("webhook.deliver", job.StatusPending, time.Now())
	j.Version = 3
	require.NoError(t, s.Upsert(ctx, j))

	stale := j.Clone()
	stale.Status = job.StatusProcessing
	stale.Version = 2
	require.NoError(t, s.Upsert(ctx, stale))

	got, err := s.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusPending, got.Status, "older write must not roll the record back")
	assert.Equal(t, int64(3), got.Version)

	same := j.Clone()
	same.LastError = "rewritten"
	require.NoError(t, s.Upsert(ctx, same))

	newer := j.Clone()
	newer.Status = job.StatusCompleted
	completed := newer.ScheduledAt.Add(time.Second)
	newer.CompletedAt = &completed
	newer.Version = 5
	require.NoError(t, s.Upsert(ctx, newer))

	got, err = s.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, got.Status)
	assert.Equal(t, int64(5), got.Version)
	require.NotNil(t, got.CompletedAt)
}

func testQueryByStatus(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.Now().Add(time.Hour)

	late := NewJob("report.build", job.StatusRetrying, base.Add(2*time.Minute))
	early := NewJob("report.build", job.StatusRetrying, base.Add(time.Minute))
	dead := NewJob("report.build", job.StatusDead, base)
	for _, j := range []*job.Job{late, early, dead} {
		require.NoError(t, s.Upsert(ctx, j))
	}

	got, err := s.QueryByStatus(ctx, job.StatusRetrying)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, early.ID, got[0].ID, "results must be ordered by scheduled_at")
	assert.Equal(t, late.ID, got[1].ID)

	got, err = s.QueryByStatus(ctx, job.StatusDead, job.StatusRetrying)
	require.NoError(t, err)
	ids := make([]id.JobID, 0, len(got))
	for _, j := range got {
		ids = append(ids, j.ID)
	}
	assert.Contains(t, ids, dead.ID)
	assert.Contains(t, ids, early.ID)
	assert.Contains(t, ids, late.ID)

	got, err = s.QueryByStatus(ctx, job.StatusFailed)
	require.NoError(t, err)
	assert.Empty(t, got)
}
