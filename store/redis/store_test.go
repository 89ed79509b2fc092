//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/xraph/lanes/job"
	redisstore "github.com/xraph/lanes/store/redis"
	"github.com/xraph/lanes/store/storetest"
)

func setupTestStore(t *testing.T) *redisstore.Store {
	t.Helper()

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "start redis container")
	t.Cleanup(func() {
		if termErr := container.Terminate(ctx); termErr != nil {
			t.Logf("terminate container: %v", termErr)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := goredis.ParseURL(uri)
	require.NoError(t, err)

	client := goredis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	return redisstore.New(client)
}

func TestConformance(t *testing.T) {
	storetest.Run(t, setupTestStore(t))
}

func TestStatusIndexFollowsUpserts(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	j := storetest.NewJob("email.send", job.StatusPending, time.Now())
	require.NoError(t, s.Upsert(ctx, j))

	j.Status = job.StatusProcessing
	j.Version++
	require.NoError(t, s.Upsert(ctx, j))

	pending, err := s.QueryByStatus(ctx, job.StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	processing, err := s.QueryByStatus(ctx, job.StatusProcessing)
	require.NoError(t, err)
	require.Len(t, processing, 1)
	assert.Equal(t, j.ID, processing[0].ID)
}
