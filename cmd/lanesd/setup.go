package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/lanes/config"
	"github.com/xraph/lanes/store"
	"github.com/xraph/lanes/store/memory"
	"github.com/xraph/lanes/store/postgres"
	redisstore "github.com/xraph/lanes/store/redis"
	"github.com/xraph/lanes/store/sqlite"
)

// newLogger builds the process logger from config.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	lvl, _ := cfg.Level()
	opts := &slog.HandlerOptions{Level: lvl}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// openStore connects the configured backend. The returned close func
// releases everything openStore acquired.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func() error, error) {
	switch cfg.Store {
	case config.StorePostgres:
		s, err := postgres.New(ctx, cfg.DatabaseURL, postgres.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.SQLitePath, sqlite.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case config.StoreRedis:
		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := goredis.NewClient(opts)
		return redisstore.New(client, redisstore.WithLogger(logger)), client.Close, nil

	default:
		s := memory.New()
		return s, s.Close, nil
	}
}
