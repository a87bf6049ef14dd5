package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sw33tLie/booktrend/pkg/series"
	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05"

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS stat_rows (
  id          INTEGER PRIMARY KEY,
  date        TEXT NOT NULL,
  time_slot   TEXT NOT NULL CHECK (time_slot IN ('morning','afternoon','evening','night')),
  item_name   TEXT NOT NULL,
  web_count   INTEGER NOT NULL DEFAULT 0,
  x_count     INTEGER NOT NULL DEFAULT 0,
  sentiment   REAL NOT NULL DEFAULT 0.5,
  top_links   TEXT NOT NULL DEFAULT '',
  run_id      TEXT NOT NULL,
  updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(date, time_slot, item_name)
);
CREATE INDEX IF NOT EXISTS idx_rows_item ON stat_rows(item_name, date);
CREATE TABLE IF NOT EXISTS runs (
  id           TEXT PRIMARY KEY,
  started_at   DATETIME NOT NULL,
  finished_at  DATETIME NOT NULL,
  item_count   INTEGER NOT NULL DEFAULT 0,
  row_count    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// NewRunID returns a fresh identifier for a pipeline run.
func NewRunID() string {
	return uuid.NewString()
}

// UpsertRows mirrors rows into stat_rows. A row whose (date, slot, item)
// already exists is overwritten, matching the CSV store.
func (d *DB) UpsertRows(ctx context.Context, runID string, rows []series.StatRow) (err error) {
	if runID == "" {
		return errors.New("empty run id")
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO stat_rows(date, time_slot, item_name, web_count, x_count, sentiment, top_links, run_id, updated_at)
VALUES(?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
ON CONFLICT(date, time_slot, item_name) DO UPDATE SET
  web_count = excluded.web_count,
  x_count = excluded.x_count,
  sentiment = excluded.sentiment,
  top_links = excluded.top_links,
  run_id = excluded.run_id,
  updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err = stmt.ExecContext(ctx, r.Date, string(r.TimeSlot), r.ItemName, r.WebCount, r.XCount, r.Sentiment, r.TopLinks, runID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecordRun stores the bookkeeping row of a finished run.
func (d *DB) RecordRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("empty run id")
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO runs(id, started_at, finished_at, item_count, row_count) VALUES(?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET finished_at = excluded.finished_at, item_count = excluded.item_count, row_count = excluded.row_count`,
		run.ID, run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout), run.Items, run.Rows)
	return err
}

// ListRuns returns the most recent runs, newest first.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.sql.QueryContext(ctx, "SELECT id, started_at, finished_at, item_count, row_count FROM runs ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Items, &r.Rows); err != nil {
			return nil, err
		}
		r.StartedAt = parseTimestamp(started)
		r.FinishedAt = parseTimestamp(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListRows returns the mirrored rows of one item, or of every item when
// name is empty, in chronological order.
func (d *DB) ListRows(ctx context.Context, name string) ([]series.StatRow, error) {
	q := "SELECT date, time_slot, item_name, web_count, x_count, sentiment, top_links FROM stat_rows"
	var args []interface{}
	if name != "" {
		q += " WHERE item_name = ?"
		args = append(args, name)
	}
	q += ` ORDER BY date, CASE time_slot WHEN 'morning' THEN 0 WHEN 'afternoon' THEN 1 WHEN 'evening' THEN 2 ELSE 3 END, id`

	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []series.StatRow
	for rows.Next() {
		var r series.StatRow
		var slot string
		if err := rows.Scan(&r.Date, &slot, &r.ItemName, &r.WebCount, &r.XCount, &r.Sentiment, &r.TopLinks); err != nil {
			return nil, err
		}
		r.TimeSlot = series.TimeSlot(slot)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) GetStats(ctx context.Context) ([]ItemStats, error) {
	query := `
		SELECT
			item_name,
			COUNT(*),
			MIN(date),
			MAX(date),
			MAX(web_count),
			MAX(x_count),
			AVG(sentiment)
		FROM
			stat_rows
		GROUP BY
			item_name
		ORDER BY
			item_name;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ItemStats
	for rows.Next() {
		var s ItemStats
		if err := rows.Scan(&s.ItemName, &s.Samples, &s.FirstDate, &s.LastDate, &s.PeakWeb, &s.PeakSocial, &s.AvgSentiment); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

// parseTimestamp accepts the layout written by RecordRun and RFC3339,
// which some sqlite drivers return for DATETIME columns.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
