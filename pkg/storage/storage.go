package storage

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// DB records rating history in SQLite. It is an audit trail of what
// upstream reported over time, not a persistence layer for the
// in-memory summary cache.
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
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS rating_snapshots (
  id           INTEGER PRIMARY KEY,
  place_id     TEXT NOT NULL,
  label        TEXT NOT NULL,
  name         TEXT NOT NULL,
  rating       REAL,
  review_count INTEGER NOT NULL DEFAULT 0,
  fetched_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_snapshots_place ON rating_snapshots(place_id, fetched_at);
CREATE TABLE IF NOT EXISTS fetch_log (
  id          INTEGER PRIMARY KEY,
  place_id    TEXT NOT NULL,
  occurred_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  ok          INTEGER NOT NULL CHECK (ok IN (0,1)),
  detail      TEXT
);
CREATE INDEX IF NOT EXISTS idx_fetch_log_place ON fetch_log(place_id, occurred_at);
    `); err != nil {
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

// RecordSnapshot appends one rating observation.
func (d *DB) RecordSnapshot(ctx context.Context, s Snapshot) error {
	fetchedAt := s.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}
	var rating sql.NullFloat64
	if s.Rating != nil {
		rating = sql.NullFloat64{Float64: *s.Rating, Valid: true}
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO rating_snapshots(place_id, label, name, rating, review_count, fetched_at) VALUES(?,?,?,?,?,?)`,
		s.PlaceID, s.Label, s.Name, rating, s.ReviewCount, fetchedAt)
	return err
}

// RecordFetch appends one fetch-attempt log line.
func (d *DB) RecordFetch(ctx context.Context, e FetchEvent) error {
	occurredAt := e.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO fetch_log(place_id, occurred_at, ok, detail) VALUES(?,?,?,?)`,
		e.PlaceID, occurredAt, boolToInt(e.OK), nullIfEmpty(e.Detail))
	return err
}

// ListSnapshots returns the most recent snapshots for a place,
// newest first.
func (d *DB) ListSnapshots(ctx context.Context, placeID string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.sql.QueryContext(ctx,
		`SELECT place_id, label, name, rating, review_count, fetched_at
		 FROM rating_snapshots WHERE place_id = ?
		 ORDER BY fetched_at DESC, id DESC LIMIT ?`, placeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		var rating sql.NullFloat64
		if err := rows.Scan(&s.PlaceID, &s.Label, &s.Name, &rating, &s.ReviewCount, &s.FetchedAt); err != nil {
			return nil, err
		}
		if rating.Valid {
			v := rating.Float64
			s.Rating = &v
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Stats summarizes recorded history per place.
func (d *DB) Stats(ctx context.Context) ([]PlaceStats, error) {
	// One row per place: its latest snapshot plus a count of all of them.
	rows, err := d.sql.QueryContext(ctx, `
		SELECT s.place_id, s.label, s.rating, s.review_count, s.fetched_at,
		       (SELECT COUNT(*) FROM rating_snapshots WHERE place_id = s.place_id)
		FROM rating_snapshots s
		WHERE s.id = (SELECT id FROM rating_snapshots
		              WHERE place_id = s.place_id
		              ORDER BY fetched_at DESC, id DESC LIMIT 1)
		ORDER BY s.label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlaceStats
	for rows.Next() {
		var ps PlaceStats
		var rating sql.NullFloat64
		var last time.Time
		if err := rows.Scan(&ps.PlaceID, &ps.Label, &rating, &ps.LatestCount, &last, &ps.Snapshots); err != nil {
			return nil, err
		}
		if rating.Valid {
			v := rating.Float64
			ps.LatestRating = &v
		}
		ps.LastFetchedAt = &last
		out = append(out, ps)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
