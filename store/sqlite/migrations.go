package sqlite

type migration struct {
	name       string
	statements []string
}

var migrations = []migration{
	{
		name: "001_create_jobs",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS lanes_jobs (
				id              TEXT PRIMARY KEY,
				type            TEXT NOT NULL,
				priority        INTEGER NOT NULL,
				status          TEXT NOT NULL,
				payload         BLOB,
				dependencies    TEXT NOT NULL DEFAULT '[]',
				tags            TEXT NOT NULL DEFAULT '[]',
				created_at      INTEGER NOT NULL,
				updated_at      INTEGER NOT NULL,
				scheduled_at    INTEGER NOT NULL,
				started_at      INTEGER,
				completed_at    INTEGER,
				retry_count     INTEGER NOT NULL DEFAULT 0,
				max_retries     INTEGER NOT NULL DEFAULT 0,
				last_error      TEXT NOT NULL DEFAULT '',
				processing_time INTEGER NOT NULL DEFAULT 0,
				timeout         INTEGER NOT NULL DEFAULT 0,
				owner_worker_id TEXT,
				version         INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_lanes_jobs_status_scheduled
				ON lanes_jobs (status, scheduled_at, id)`,
		},
	},
}
