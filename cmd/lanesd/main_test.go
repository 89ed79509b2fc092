package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/lanes/config"
	"github.com/xraph/lanes/store/memory"
	"github.com/xraph/lanes/store/sqlite"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	logger := newLogger(&bytes.Buffer{}, &config.Config{LogLevel: "info", LogFormat: "text"})

	t.Run("memory", func(t *testing.T) {
		st, closeFn, err := openStore(ctx, &config.Config{Store: config.StoreMemory}, logger)
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, st)
		require.NoError(t, closeFn())
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := &config.Config{Store: config.StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "lanes.db")}
		st, closeFn, err := openStore(ctx, cfg, logger)
		require.NoError(t, err)
		assert.IsType(t, &sqlite.Store{}, st)
		require.NoError(t, st.Migrate(ctx))
		require.NoError(t, st.Ping(ctx))
		require.NoError(t, closeFn())
	})

	t.Run("bad redis url", func(t *testing.T) {
		_, _, err := openStore(ctx, &config.Config{Store: config.StoreRedis, RedisURL: "::nope"}, logger)
		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Config{LogLevel: "warn", LogFormat: "json"})

	logger.Info("hidden")
	logger.Warn("shown", "job_id", "job_1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "job_1", line["job_id"])
}

func TestEnqueueFlags(t *testing.T) {
	f := enqueueFlags{priority: "high", maxRetries: -1, tags: []string{"a"}}
	opts, err := f.options()
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	f = enqueueFlags{priority: "urgent", maxRetries: -1}
	_, err = f.options()
	assert.Error(t, err)

	f = enqueueFlags{maxRetries: -1, dependsOn: []string{"not-an-id"}}
	_, err = f.options()
	assert.Error(t, err)
}
