// Package localstore keeps finished session summaries on the client device.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/2beens/formcheck/internal/formcheck"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("summary not found")

type Entry struct {
	formcheck.Summary
	Coaching string    `json:"coaching,omitempty"`
	SavedAt  time.Time `json:"savedAt"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the SQLite database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between the poller and the final save
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS session_summary (
		session_id TEXT PRIMARY KEY,
		exercise   TEXT NOT NULL,
		ended_at   INTEGER NOT NULL,
		summary    TEXT NOT NULL,
		coaching   TEXT NOT NULL DEFAULT '',
		saved_at   INTEGER NOT NULL
	)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create session_summary table: %w", err)
	}

	return &Store{
		db:  db,
		now: time.Now,
	}, nil
}

// Save stores the summary, replacing an earlier save of the same session.
func (s *Store) Save(ctx context.Context, summary formcheck.Summary, coaching string) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO session_summary (session_id, exercise, ended_at, summary, coaching, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		summary.SessionID,
		summary.Exercise.String(),
		summary.EndedAt.UnixNano(),
		string(summaryJSON),
		coaching,
		s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save summary %s: %w", summary.SessionID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, sessionID string) (*Entry, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT summary, coaching, saved_at FROM session_summary WHERE session_id = ?`,
		sessionID,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return entry, err
}

// List returns up to limit entries, most recently ended first.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT summary, coaching, saved_at FROM session_summary ORDER BY ended_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return entries, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		summaryJSON string
		coaching    string
		savedAt     int64
	)
	if err := row.Scan(&summaryJSON, &coaching, &savedAt); err != nil {
		return nil, err
	}

	entry := &Entry{
		Coaching: coaching,
		SavedAt:  time.Unix(0, savedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(summaryJSON), &entry.Summary); err != nil {
		return nil, fmt.Errorf("unmarshal stored summary: %w", err)
	}
	return entry, nil
}
