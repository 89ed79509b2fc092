// Package sqlite implements store.Store on SQLite through database/sql and
// github.com/mattn/go-sqlite3. Suitable for single-node deployments and
// CLI tools.
//
// Open a file-backed store with Open, or pass a caller-owned handle to New:
//
//	db, _ := sql.Open("sqlite3", "file:lanes.db?_journal_mode=WAL")
//	s := sqlite.New(db)
//	_ = s.Migrate(ctx)
//
// A caller-owned *sql.DB is never closed by the store.
package sqlite
