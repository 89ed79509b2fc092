package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
)

// upsertScript writes the job hash and moves its id between status sets,
// unless the stored version is newer.
//
// KEYS[1] job hash
// ARGV[1] job id, ARGV[2] version, ARGV[3] JSON, ARGV[4] status,
// ARGV[5] status key prefix, ARGV[6] score
var upsertScript = goredis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'version')
if cur and tonumber(cur) > tonumber(ARGV[2]) then
	return 0
end
local old = redis.call('HGET', KEYS[1], 'status')
if old then
	redis.call('ZREM', ARGV[5] .. old, ARGV[1])
end
redis.call('HSET', KEYS[1], 'data', ARGV[3], 'version', ARGV[2], 'status', ARGV[4])
redis.call('ZADD', ARGV[5] .. ARGV[4], ARGV[6], ARGV[1])
return 1
`)

// Upsert stores j unless a newer version is already stored.
func (s *Store) Upsert(ctx context.Context, j *job.Job) error {
	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("lanes/redis: encode job %s: %w", j.ID, err)
	}

	jID := j.ID.String()
	err = upsertScript.Run(ctx, s.client, []string{jobKey(jID)},
		jID,
		strconv.FormatInt(j.Version, 10),
		data,
		string(j.Status),
		statusKeyPrefix,
		scheduleScore(j),
	).Err()
	if err != nil {
		return fmt.Errorf("lanes/redis: upsert job %s: %w", jID, err)
	}
	return nil
}

// QueryByStatus reads each status set concurrently and merges the results
// by scheduled time.
func (s *Store) QueryByStatus(ctx context.Context, statuses ...job.Status) ([]*job.Job, error) {
	parts := make([][]*job.Job, len(statuses))

	g, gctx := errgroup.WithContext(ctx)
	for i, st := range statuses {
		g.Go(func() error {
			jobs, err := s.jobsInStatus(gctx, st)
			if err != nil {
				return err
			}
			parts[i] = jobs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []*job.Job
	for _, p := range parts {
		out = append(out, p...)
	}
	slices.SortStableFunc(out, func(a, b *job.Job) int {
		if c := a.ScheduledAt.Compare(b.ScheduledAt); c != 0 {
			return c
		}
		return a.ID.Compare(b.ID)
	})
	return out, nil
}

func (s *Store) jobsInStatus(ctx context.Context, st job.Status) ([]*job.Job, error) {
	ids, err := s.client.ZRange(ctx, statusKey(string(st)), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lanes/redis: list %s: %w", st, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*goredis.SliceCmd, len(ids))
	for i, jID := range ids {
		cmds[i] = pipe.HMGet(ctx, jobKey(jID), "data", "status")
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("lanes/redis: load %s jobs: %w", st, err)
	}

	jobs := make([]*job.Job, 0, len(ids))
	for i, cmd := range cmds {
		vals := cmd.Val()
		data, _ := vals[0].(string)
		status, _ := vals[1].(string)
		// Moved to another status between ZRANGE and HMGET.
		if data == "" || status != string(st) {
			continue
		}
		j, err := decodeJob(data)
		if err != nil {
			return nil, fmt.Errorf("lanes/redis: decode job %s: %w", ids[i], err)
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	data, err := s.client.HGet(ctx, jobKey(jobID.String()), "data").Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("%w: %s", lanes.ErrJobNotFound, jobID)
		}
		return nil, fmt.Errorf("lanes/redis: get job: %w", err)
	}
	j, err := decodeJob(data)
	if err != nil {
		return nil, fmt.Errorf("lanes/redis: decode job %s: %w", jobID, err)
	}
	return j, nil
}

func decodeJob(data string) (*job.Job, error) {
	var j job.Job
	if err := json.Unmarshal([]byte(data), &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// scheduleScore orders a status set by scheduled time in microseconds,
// which a float64 score represents exactly.
func scheduleScore(j *job.Job) string {
	return strconv.FormatInt(j.ScheduledAt.UnixMicro(), 10)
}
