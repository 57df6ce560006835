// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// storeSchema is the archive schema. created_at holds Unix nanoseconds.
const storeSchema = `
CREATE TABLE IF NOT EXISTS attempts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL,
    code TEXT NOT NULL,
    success INTEGER NOT NULL,
    outcome TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempts_created_at ON attempts(created_at);
CREATE INDEX IF NOT EXISTS idx_attempts_session_id ON attempts(session_id);
`

// storeWriteTimeout bounds a single archive insert issued through Write.
const storeWriteTimeout = 5 * time.Second

// Store archives attempts in SQLite. It implements Sink.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// ListOptions filters Store.List.
type ListOptions struct {
	// Limit caps the number of rows (0 = no limit).
	Limit int
	// SessionID restricts rows to one session.
	SessionID string
	// FailedOnly restricts rows to unsuccessful attempts.
	FailedOnly bool
}

// OpenStore opens or creates the archive database at path.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

// Write archives e. It satisfies Sink.
func (s *Store) Write(e Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
	defer cancel()
	return s.Insert(ctx, e)
}

// Insert archives e.
func (s *Store) Insert(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (session_id, phone, code, success, outcome, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Phone, e.Code, boolToInt(e.Success), e.Outcome, ts.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to archive attempt: %w", err)
	}
	return nil
}

// List returns archived attempts, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	var (
		where []string
		args  []any
	)
	if opts.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, opts.SessionID)
	}
	if opts.FailedOnly {
		where = append(where, "success = 0")
	}

	query := "SELECT session_id, phone, code, success, outcome, created_at FROM attempts"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			success int
			created int64
		)
		if err := rows.Scan(&e.SessionID, &e.Phone, &e.Code, &success, &e.Outcome, &created); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		e.Success = success != 0
		e.Timestamp = time.Unix(0, created)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	return entries, nil
}

// Count returns the number of archived attempts.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return 0, ErrClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM attempts").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
