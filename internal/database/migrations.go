package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "run history",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    snapshot_path TEXT NOT NULL,
    updated_at TEXT,
    status TEXT NOT NULL CHECK(status IN ('published', 'failed')),
    error TEXT,
    feeds_total INTEGER DEFAULT 0,
    feeds_ok INTEGER DEFAULT 0,
    feeds_failed INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS feed_results (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    source_name TEXT,
    topic TEXT,
    rss_url TEXT NOT NULL,
    ok INTEGER NOT NULL,
    article_count INTEGER DEFAULT 0,
    error TEXT,
    duration_ms INTEGER DEFAULT 0,
    PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "feed result http status",
		Up: func(tx *sql.Tx) error {
			var exists int
			if err := tx.QueryRow(
				`SELECT COUNT(*) FROM pragma_table_info('feed_results') WHERE name = 'http_status'`,
			).Scan(&exists); err != nil {
				return err
			}
			if exists == 0 {
				if _, err := tx.Exec(`ALTER TABLE feed_results ADD COLUMN http_status INTEGER`); err != nil {
					return err
				}
			}
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_feed_results_url ON feed_results(rss_url)`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
