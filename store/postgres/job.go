package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
)

const jobColumns = `
	id, type, priority, status, payload, dependencies, tags,
	created_at, updated_at, scheduled_at, started_at, completed_at,
	retry_count, max_retries, last_error, processing_time, timeout,
	owner_worker_id, version`

// Upsert inserts j or replaces the stored row when j.Version is not older
// than the stored version. Older writes are dropped silently.
func (s *Store) Upsert(ctx context.Context, j *job.Job) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO lanes_jobs (`+jobColumns+`
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17,
			$18, $19
		)
		ON CONFLICT (id) DO UPDATE SET
			type            = EXCLUDED.type,
			priority        = EXCLUDED.priority,
			status          = EXCLUDED.status,
			payload         = EXCLUDED.payload,
			dependencies    = EXCLUDED.dependencies,
			tags            = EXCLUDED.tags,
			created_at      = EXCLUDED.created_at,
			updated_at      = EXCLUDED.updated_at,
			scheduled_at    = EXCLUDED.scheduled_at,
			started_at      = EXCLUDED.started_at,
			completed_at    = EXCLUDED.completed_at,
			retry_count     = EXCLUDED.retry_count,
			max_retries     = EXCLUDED.max_retries,
			last_error      = EXCLUDED.last_error,
			processing_time = EXCLUDED.processing_time,
			timeout         = EXCLUDED.timeout,
			owner_worker_id = EXCLUDED.owner_worker_id,
			version         = EXCLUDED.version
		WHERE lanes_jobs.version <= EXCLUDED.version`,
		j.ID.String(), j.Type, int16(j.Priority), string(j.Status), []byte(j.Payload),
		idStrings(j.Dependencies), nonNil(j.Tags),
		j.CreatedAt, j.UpdatedAt, j.ScheduledAt, j.StartedAt, j.CompletedAt,
		j.RetryCount, j.MaxRetries, j.LastError,
		j.ProcessingTime.Nanoseconds(), j.Timeout.Nanoseconds(),
		ownerValue(j.OwnerWorkerID), j.Version,
	)
	if err != nil {
		return fmt.Errorf("lanes/postgres: upsert job %s: %w", j.ID, err)
	}
	return nil
}

// QueryByStatus returns jobs in any of the given statuses ordered by
// scheduled_at.
func (s *Store) QueryByStatus(ctx context.Context, statuses ...job.Status) ([]*job.Job, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM lanes_jobs
		WHERE status = ANY($1)
		ORDER BY scheduled_at ASC, id ASC`, names)
	if err != nil {
		return nil, fmt.Errorf("lanes/postgres: query jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM lanes_jobs WHERE id = $1`, jobID.String())
	j, err := scanJob(row)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: %s", lanes.ErrJobNotFound, jobID)
		}
		return nil, fmt.Errorf("lanes/postgres: get job: %w", err)
	}
	return j, nil
}

func ownerValue(w id.WorkerID) *string {
	if w.IsNil() {
		return nil
	}
	s := w.String()
	return &s
}

// scanJob scans a single row into a job.Job.
func scanJob(row pgx.Row) (*job.Job, error) {
	var (
		j              job.Job
		idStr          string
		priority       int16
		status         string
		payload        []byte
		deps           []string
		processingTime int64
		timeout        int64
		owner          *string
	)

	err := row.Scan(
		&idStr, &j.Type, &priority, &status, &payload, &deps, &j.Tags,
		&j.CreatedAt, &j.UpdatedAt, &j.ScheduledAt, &j.StartedAt, &j.CompletedAt,
		&j.RetryCount, &j.MaxRetries, &j.LastError, &processingTime, &timeout,
		&owner, &j.Version,
	)
	if err != nil {
		return nil, err
	}

	j.ID, err = id.ParseJobID(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse job id %q: %w", idStr, err)
	}
	j.Dependencies, err = parseJobIDs(deps)
	if err != nil {
		return nil, fmt.Errorf("parse dependencies of %s: %w", idStr, err)
	}
	if owner != nil {
		j.OwnerWorkerID, err = id.ParseWorkerID(*owner)
		if err != nil {
			return nil, fmt.Errorf("parse owner of %s: %w", idStr, err)
		}
	}
	if payload != nil {
		j.Payload = payload
	}
	if len(j.Tags) == 0 {
		j.Tags = nil
	}

	j.Priority = job.Priority(priority)
	j.Status = job.Status(status)
	j.ProcessingTime = time.Duration(processingTime)
	j.Timeout = time.Duration(timeout)
	j.CreatedAt = j.CreatedAt.UTC()
	j.UpdatedAt = j.UpdatedAt.UTC()
	j.ScheduledAt = j.ScheduledAt.UTC()
	j.StartedAt = utcPtr(j.StartedAt)
	j.CompletedAt = utcPtr(j.CompletedAt)

	return &j, nil
}

// collectJobs iterates pgx.Rows and scans each into a job.Job.
func collectJobs(rows pgx.Rows) ([]*job.Job, error) {
	var jobs []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("lanes/postgres: scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lanes/postgres: iterate jobs: %w", err)
	}
	return jobs, nil
}
