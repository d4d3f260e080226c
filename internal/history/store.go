// Package history keeps a local log of the statements issued against browsed
// databases.
package history

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Entry is one logged statement
type Entry struct {
	ID           int64
	SessionID    string
	ConnectionID string
	Statement    string
	ExecutedAt   time.Time
	Duration     time.Duration
	RowCount     int
	Success      bool
	ErrorMessage string
}

// Store persists statement history in a SQLite file
type Store struct {
	db      *sql.DB
	session string
}

// NewStore opens (and creates if needed) the history database at path
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db, session: uuid.NewString()}, nil
}

// SessionID identifies the process run the store records for
func (s *Store) SessionID() string {
	return s.session
}

// Record logs one statement. A non-nil err marks the entry as failed.
func (s *Store) Record(connectionID, statement string, duration time.Duration, rows int, err error) error {
	success := err == nil
	message := ""
	if err != nil {
		message = err.Error()
	}

	_, execErr := s.db.Exec(`
		INSERT INTO statement_history
		(session_id, connection_id, statement, executed_at, duration_ms, row_count, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.session,
		connectionID,
		statement,
		time.Now().UTC().Format(time.RFC3339Nano),
		duration.Milliseconds(),
		rows,
		success,
		message,
	)
	return execErr
}

// Recent retrieves the most recent entries, newest first
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, connection_id, statement, executed_at,
		       duration_ms, row_count, success, error_message
		FROM statement_history
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// Search finds entries whose statement contains text, newest first
func (s *Store) Search(text string, limit int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, connection_id, statement, executed_at,
		       duration_ms, row_count, success, error_message
		FROM statement_history
		WHERE statement LIKE ?
		ORDER BY id DESC
		LIMIT ?`, "%"+text+"%", limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		var executedAt string

		err := rows.Scan(
			&e.ID,
			&e.SessionID,
			&e.ConnectionID,
			&e.Statement,
			&executedAt,
			&durationMs,
			&e.RowCount,
			&e.Success,
			&e.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}

		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.ExecutedAt, _ = time.Parse(time.RFC3339Nano, executedAt)

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close closes the history database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
