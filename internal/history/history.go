// SPDX-License-Identifier: MIT

// Package history keeps an append-only journal of save and restore
// events in a local sqlite database. It exists for debugging and for
// the history listing in the bridge API; the engine never reads it on
// the hot path.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver

	"github.com/seekmark/seekmark/internal/clock"
)

// Event is one journal entry.
type Event struct {
	ID      int64   `json:"id"`
	At      int64   `json:"at"` // unix ms
	Kind    string  `json:"kind"`
	VideoID string  `json:"videoId"`
	Time    float64 `json:"time"`
	Detail  string  `json:"detail,omitempty"`
}

// Event kinds.
const (
	KindSave    = "save"
	KindRestore = "restore"
	KindDelete  = "delete"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	at       INTEGER NOT NULL,
	kind     TEXT    NOT NULL,
	video_id TEXT    NOT NULL,
	time     REAL    NOT NULL,
	detail   TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS events_at ON events(at);
`

// Journal is a sqlite-backed event log.
type Journal struct {
	db  *sql.DB
	clk clock.Clock
}

// Open creates or opens the journal database under dataDir. WAL mode
// and busy_timeout are applied through the DSN so they hold for every
// pooled connection.
func Open(dataDir string, clk clock.Clock) (*Journal, error) {
	dbPath := filepath.Join(dataDir, "history.db")
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		dbPath, (5 * time.Second).Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open failed: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: schema failed: %w", err)
	}
	return &Journal{db: db, clk: clk}, nil
}

// Append records one event. The timestamp is stamped here.
func (j *Journal) Append(ctx context.Context, kind, videoID string, seconds float64, detail string) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO events (at, kind, video_id, time, detail) VALUES (?, ?, ?, ?, ?)`,
		j.clk.Now().UnixMilli(), kind, videoID, seconds, detail)
	if err != nil {
		return fmt.Errorf("history: append failed: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, at, kind, video_id, time, detail FROM events ORDER BY at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]Event, 0, limit)
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.At, &e.Kind, &e.VideoID, &e.Time, &e.Detail); err != nil {
			return nil, fmt.Errorf("history: scan failed: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: rows failed: %w", err)
	}
	return events, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
