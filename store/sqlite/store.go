package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3" // register the sqlite3 driver

	"github.com/xraph/lanes/store"
)

var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of store.Store.
type Store struct {
	db     *sql.DB
	owned  bool
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New wraps a caller-owned database handle. Close leaves db open.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens the database file at path in WAL mode. The returned store owns
// the handle and closes it on Close.
func Open(path string, opts ...Option) (*Store, error) {
	dsn := "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("lanes/sqlite: open %s: %w", path, err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	s := New(db, opts...)
	s.owned = true
	return s, nil
}

// DB returns the underlying handle for advanced usage.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate applies the migrations that have not run yet, in order.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS lanes_migrations (
			name       TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("lanes/sqlite: create migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM lanes_migrations WHERE name = ?`, m.name,
		).Scan(&exists)
		if err == nil {
			continue
		}
		if !isNoRows(err) {
			return fmt.Errorf("lanes/sqlite: check migration %s: %w", m.name, err)
		}

		if err := s.apply(ctx, m); err != nil {
			return fmt.Errorf("lanes/sqlite: migration %s: %w", m.name, err)
		}
		s.logger.Info("applied migration", slog.String("name", m.name))
	}
	return nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO lanes_migrations (name, applied_at) VALUES (?, strftime('%s', 'now'))`, m.name,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the handle when the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// isNoRows returns true when err indicates no rows were found.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
