package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
)

const jobColumns = `id, type, priority, status, payload, dependencies, tags,
	created_at, updated_at, scheduled_at, started_at, completed_at,
	retry_count, max_retries, last_error, processing_time, timeout,
	owner_worker_id, version`

// Upsert inserts j or replaces the stored row when j.Version is not older
// than the stored version.
func (s *Store) Upsert(ctx context.Context, j *job.Job) error {
	r, err := toJobRow(j)
	if err != nil {
		return fmt.Errorf("lanes/sqlite: encode job %s: %w", j.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO lanes_jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			type            = excluded.type,
			priority        = excluded.priority,
			status          = excluded.status,
			payload         = excluded.payload,
			dependencies    = excluded.dependencies,
			tags            = excluded.tags,
			created_at      = excluded.created_at,
			updated_at      = excluded.updated_at,
			scheduled_at    = excluded.scheduled_at,
			started_at      = excluded.started_at,
			completed_at    = excluded.completed_at,
			retry_count     = excluded.retry_count,
			max_retries     = excluded.max_retries,
			last_error      = excluded.last_error,
			processing_time = excluded.processing_time,
			timeout         = excluded.timeout,
			owner_worker_id = excluded.owner_worker_id,
			version         = excluded.version
		WHERE lanes_jobs.version <= excluded.version`,
		r.ID, r.Type, r.Priority, r.Status, r.Payload, r.Dependencies, r.Tags,
		r.CreatedAt, r.UpdatedAt, r.ScheduledAt, r.StartedAt, r.CompletedAt,
		r.RetryCount, r.MaxRetries, r.LastError, r.ProcessingTime, r.Timeout,
		r.OwnerWorkerID, r.Version,
	)
	if err != nil {
		return fmt.Errorf("lanes/sqlite: upsert job %s: %w", j.ID, err)
	}
	return nil
}

// QueryByStatus returns jobs in any of the given statuses ordered by
// scheduled_at.
func (s *Store) QueryByStatus(ctx context.Context, statuses ...job.Status) ([]*job.Job, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, st := range statuses {
		placeholders[i] = "?"
		args[i] = string(st)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM lanes_jobs
		WHERE status IN (%s)
		ORDER BY scheduled_at ASC, id ASC`,
		jobColumns, strings.Join(placeholders, ","),
	), args...)
	if err != nil {
		return nil, fmt.Errorf("lanes/sqlite: query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("lanes/sqlite: scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lanes/sqlite: iterate jobs: %w", err)
	}
	return jobs, nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM lanes_jobs WHERE id = ?`, jobID.String())
	j, err := scanJob(row)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: %s", lanes.ErrJobNotFound, jobID)
		}
		return nil, fmt.Errorf("lanes/sqlite: get job: %w", err)
	}
	return j, nil
}

// jobRow is the column-level encoding of a job. Times are unix
// nanoseconds; dependency and tag lists are JSON arrays.
type jobRow struct {
	ID             string
	Type           string
	Priority       int
	Status         string
	Payload        []byte
	Dependencies   string
	Tags           string
	CreatedAt      int64
	UpdatedAt      int64
	ScheduledAt    int64
	StartedAt      sql.NullInt64
	CompletedAt    sql.NullInt64
	RetryCount     int
	MaxRetries     int
	LastError      string
	ProcessingTime int64
	Timeout        int64
	OwnerWorkerID  sql.NullString
	Version        int64
}

func toJobRow(j *job.Job) (*jobRow, error) {
	deps := make([]string, len(j.Dependencies))
	for i, d := range j.Dependencies {
		deps[i] = d.String()
	}
	depsJSON, err := json.Marshal(deps)
	if err != nil {
		return nil, err
	}
	tags := j.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}

	r := &jobRow{
		ID:             j.ID.String(),
		Type:           j.Type,
		Priority:       int(j.Priority),
		Status:         string(j.Status),
		Payload:        j.Payload,
		Dependencies:   string(depsJSON),
		Tags:           string(tagsJSON),
		CreatedAt:      j.CreatedAt.UnixNano(),
		UpdatedAt:      j.UpdatedAt.UnixNano(),
		ScheduledAt:    j.ScheduledAt.UnixNano(),
		StartedAt:      nullTime(j.StartedAt),
		CompletedAt:    nullTime(j.CompletedAt),
		RetryCount:     j.RetryCount,
		MaxRetries:     j.MaxRetries,
		LastError:      j.LastError,
		ProcessingTime: j.ProcessingTime.Nanoseconds(),
		Timeout:        j.Timeout.Nanoseconds(),
		Version:        j.Version,
	}
	if !j.OwnerWorkerID.IsNil() {
		r.OwnerWorkerID = sql.NullString{String: j.OwnerWorkerID.String(), Valid: true}
	}
	return r, nil
}

func (r *jobRow) toJob() (*job.Job, error) {
	jobID, err := id.ParseJobID(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse job id %q: %w", r.ID, err)
	}

	var deps, tags []string
	if err := json.Unmarshal([]byte(r.Dependencies), &deps); err != nil {
		return nil, fmt.Errorf("decode dependencies of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.Tags), &tags); err != nil {
		return nil, fmt.Errorf("decode tags of %s: %w", r.ID, err)
	}

	j := &job.Job{
		ID:             jobID,
		Type:           r.Type,
		Priority:       job.Priority(r.Priority),
		Status:         job.Status(r.Status),
		CreatedAt:      fromNanos(r.CreatedAt),
		UpdatedAt:      fromNanos(r.UpdatedAt),
		ScheduledAt:    fromNanos(r.ScheduledAt),
		StartedAt:      timePtr(r.StartedAt),
		CompletedAt:    timePtr(r.CompletedAt),
		RetryCount:     r.RetryCount,
		MaxRetries:     r.MaxRetries,
		LastError:      r.LastError,
		ProcessingTime: time.Duration(r.ProcessingTime),
		Timeout:        time.Duration(r.Timeout),
		Version:        r.Version,
	}
	if len(r.Payload) > 0 {
		j.Payload = r.Payload
	}
	if len(tags) > 0 {
		j.Tags = tags
	}
	for _, d := range deps {
		depID, err := id.ParseJobID(d)
		if err != nil {
			return nil, fmt.Errorf("parse dependency of %s: %w", r.ID, err)
		}
		j.Dependencies = append(j.Dependencies, depID)
	}
	if r.OwnerWorkerID.Valid {
		j.OwnerWorkerID, err = id.ParseWorkerID(r.OwnerWorkerID.String)
		if err != nil {
			return nil, fmt.Errorf("parse owner of %s: %w", r.ID, err)
		}
	}
	return j, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(sc scanner) (*job.Job, error) {
	var r jobRow
	err := sc.Scan(
		&r.ID, &r.Type, &r.Priority, &r.Status, &r.Payload, &r.Dependencies, &r.Tags,
		&r.CreatedAt, &r.UpdatedAt, &r.ScheduledAt, &r.StartedAt, &r.CompletedAt,
		&r.RetryCount, &r.MaxRetries, &r.LastError, &r.ProcessingTime, &r.Timeout,
		&r.OwnerWorkerID, &r.Version,
	)
	if err != nil {
		return nil, err
	}
	return r.toJob()
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromNanos(n.Int64)
	return &t
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
