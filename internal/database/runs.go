package database

import (
	"database/sql"
)

const runColumns = `id, started_at, finished_at, snapshot_path, updated_at, status, error,
	feeds_total, feeds_ok, feeds_failed`

const resultColumns = `run_id, position, source_name, topic, rss_url, ok, article_count,
	error, http_status, duration_ms`

// InsertRun stores a run and its feed results.
func (db *DB) InsertRun(r *Run) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt, r.FinishedAt, r.SnapshotPath, r.UpdatedAt, r.Status, r.Error,
		r.FeedsTotal, r.FeedsOK, r.FeedsFailed,
	); err != nil {
		return err
	}

	for _, fr := range r.Results {
		if _, err := tx.Exec(
			`INSERT INTO feed_results (`+resultColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, fr.Position, fr.SourceName, fr.Topic, fr.RSSURL, boolToInt(fr.OK),
			fr.ArticleCount, fr.Error, fr.HTTPStatus, fr.DurationMS,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetRun returns a run with its feed results, or nil if it does not exist.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.conn.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.Results, err = db.GetFeedResults(id)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetLatestRun returns the most recent run with its feed results, or nil.
func (db *DB) GetLatestRun() (*Run, error) {
	var id string
	err := db.conn.QueryRow(
		`SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return db.GetRun(id)
}

// GetRecentRuns returns up to limit runs, newest first, without results.
func (db *DB) GetRecentRuns(limit int) ([]Run, error) {
	rows, err := db.conn.Query(
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetFeedResults returns a run's feed results in snapshot order.
func (db *DB) GetFeedResults(runID string) ([]FeedResult, error) {
	rows, err := db.conn.Query(
		`SELECT `+resultColumns+` FROM feed_results WHERE run_id = ? ORDER BY position`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResults(rows)
}

// GetFailingFeeds returns the feeds that failed in the latest run.
func (db *DB) GetFailingFeeds() ([]FailingFeed, error) {
	latest, err := db.GetLatestRun()
	if err != nil || latest == nil {
		return nil, err
	}

	var failing []FailingFeed
	for _, fr := range latest.Results {
		if fr.OK {
			continue
		}
		streak, err := db.failureStreak(fr.RSSURL)
		if err != nil {
			return nil, err
		}
		failing = append(failing, FailingFeed{FeedResult: fr, ConsecutiveFailures: streak})
	}
	return failing, nil
}

// failureStreak counts how many of the most recent results for a feed URL
// failed before the last success.
func (db *DB) failureStreak(rssURL string) (int, error) {
	rows, err := db.conn.Query(
		`SELECT fr.ok FROM feed_results fr JOIN runs r ON r.id = fr.run_id
		WHERE fr.rss_url = ? ORDER BY r.started_at DESC, r.rowid DESC`, rssURL,
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var streak int
	for rows.Next() {
		var ok int
		if err := rows.Scan(&ok); err != nil {
			return 0, err
		}
		if ok != 0 {
			break
		}
		streak++
	}
	return streak, rows.Err()
}

// PruneRuns deletes all but the newest keep runs. Returns the number removed.
func (db *DB) PruneRuns(keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	result, err := db.conn.Exec(
		`DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
		)`, keep,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// GetStats returns aggregate run statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM runs", &s.TotalRuns},
		{"SELECT COUNT(*) FROM runs WHERE status = 'published'", &s.PublishedRuns},
		{"SELECT COUNT(*) FROM runs WHERE status = 'failed'", &s.FailedRuns},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	last, err := db.GetLatestRun()
	if err != nil {
		return nil, err
	}
	s.LastRun = last
	return s, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	if err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.SnapshotPath, &r.UpdatedAt,
		&r.Status, &r.Error, &r.FeedsTotal, &r.FeedsOK, &r.FeedsFailed); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanResults(rows *sql.Rows) ([]FeedResult, error) {
	var results []FeedResult
	for rows.Next() {
		var fr FeedResult
		var ok int
		if err := rows.Scan(&fr.RunID, &fr.Position, &fr.SourceName, &fr.Topic, &fr.RSSURL, &ok,
			&fr.ArticleCount, &fr.Error, &fr.HTTPStatus, &fr.DurationMS); err != nil {
			return nil, err
		}
		fr.OK = ok != 0
		results = append(results, fr)
	}
	return results, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
