// Package history records report runs in a local sqlite database
package history

import (
	"database/sql"
	_ "embed"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

const timeLayout = "2006-01-02 15:04:05"

// Entry is one recorded report run
type Entry struct {
	ID           int
	Report       string
	QueryText    string
	ExecutedAt   time.Time
	Duration     time.Duration
	RowCount     int
	Success      bool
	ErrorMessage string
}

// Store persists report runs
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens or creates the history database at path
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open history database")
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create history schema")
	}

	return &Store{db: db, now: time.Now}, nil
}

// Add records a report run. A zero ExecutedAt means now.
func (s *Store) Add(entry Entry) error {
	executedAt := entry.ExecutedAt
	if executedAt.IsZero() {
		executedAt = s.now()
	}

	_, err := s.db.Exec(`
		INSERT INTO report_history
		(report, query_text, executed_at, duration_ms, row_count, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Report,
		entry.QueryText,
		executedAt.UTC().Format(timeLayout),
		entry.Duration.Milliseconds(),
		entry.RowCount,
		entry.Success,
		entry.ErrorMessage,
	)
	return errors.Wrap(err, "insert history entry")
}

// GetRecent returns the latest runs, newest first
func (s *Store) GetRecent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, report, query_text, executed_at,
		       duration_ms, row_count, success, error_message
		FROM report_history
		ORDER BY executed_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query recent history")
	}
	return scanEntries(rows)
}

// Search returns runs whose report name or query text contains text
func (s *Store) Search(text string, limit int) ([]Entry, error) {
	pattern := "%" + text + "%"
	rows, err := s.db.Query(`
		SELECT id, report, query_text, executed_at,
		       duration_ms, row_count, success, error_message
		FROM report_history
		WHERE query_text LIKE ? OR report LIKE ?
		ORDER BY executed_at DESC, id DESC
		LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, errors.Wrap(err, "search history")
	}
	return scanEntries(rows)
}

// Trim deletes all but the newest keep runs
func (s *Store) Trim(keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := s.db.Exec(`
		DELETE FROM report_history
		WHERE id NOT IN (
			SELECT id FROM report_history
			ORDER BY executed_at DESC, id DESC
			LIMIT ?
		)`, keep)
	return errors.Wrap(err, "trim history")
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		var executedAt string

		if err := rows.Scan(
			&e.ID,
			&e.Report,
			&e.QueryText,
			&executedAt,
			&durationMs,
			&e.RowCount,
			&e.Success,
			&e.ErrorMessage,
		); err != nil {
			return nil, errors.Wrap(err, "scan history entry")
		}

		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.ExecutedAt, _ = time.Parse(timeLayout, executedAt)
		entries = append(entries, e)
	}
	return entries, errors.Wrap(rows.Err(), "iterate history")
}
