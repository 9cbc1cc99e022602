package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// registers the pure-Go "sqlite" driver
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by [Store.Get] for an unknown job id.
var ErrNotFound = errors.New("history entry not found")

const schema = `
CREATE TABLE IF NOT EXISTS uploads (
	job_id      TEXT PRIMARY KEY,
	file_name   TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'PENDING',
	title       TEXT NOT NULL DEFAULT '',
	uploaded_at INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS uploads_status ON uploads(status);
`

// Entry is one row of upload history.
type Entry struct {
	JobID      string
	FileName   string
	Status     string
	Title      string
	UploadedAt time.Time
	UpdatedAt  time.Time
}

// Store is a SQLite-backed upload history. Safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the history database at path.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// one connection keeps ":memory:" databases shared and avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts an entry for jobID, or refreshes an existing one.
// An empty fileName keeps the previously recorded file name.
func (s *Store) Record(ctx context.Context, jobID, fileName string) error {
	now := s.now().UnixMilli()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO uploads (job_id, file_name, uploaded_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(job_id) DO UPDATE SET
	file_name  = CASE WHEN excluded.file_name <> '' THEN excluded.file_name ELSE uploads.file_name END,
	updated_at = excluded.updated_at`,
		jobID, fileName, now, now)
	if err != nil {
		return fmt.Errorf("record upload %s: %w", jobID, err)
	}
	return nil
}

// UpdateStatus stores the latest status and title for jobID.
// An empty title keeps the previous one. Returns [ErrNotFound] when jobID
// was never recorded.
func (s *Store) UpdateStatus(ctx context.Context, jobID, status, title string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE uploads SET
	status     = ?,
	title      = CASE WHEN ? <> '' THEN ? ELSE title END,
	updated_at = ?
WHERE job_id = ?`,
		status, title, title, s.now().UnixMilli(), jobID)
	if err != nil {
		return fmt.Errorf("update status %s: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status %s: %w", jobID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	return nil
}

// Forget deletes the entry for jobID. Forgetting an unknown job is not an error.
func (s *Store) Forget(ctx context.Context, jobID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM uploads WHERE job_id = ?`, jobID); err != nil {
		return fmt.Errorf("forget %s: %w", jobID, err)
	}
	return nil
}

// Get returns the entry for jobID.
func (s *Store) Get(ctx context.Context, jobID string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT job_id, file_name, status, title, uploaded_at, updated_at
FROM uploads WHERE job_id = ?`, jobID)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get %s: %w", jobID, err)
	}
	return e, nil
}

// List returns entries, most recently uploaded first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.query(ctx, `
SELECT job_id, file_name, status, title, uploaded_at, updated_at
FROM uploads ORDER BY uploaded_at DESC, job_id LIMIT ?`, limit)
}

// Pending returns entries whose last known status is not terminal,
// oldest first.
func (s *Store) Pending(ctx context.Context) ([]Entry, error) {
	return s.query(ctx, `
SELECT job_id, file_name, status, title, uploaded_at, updated_at
FROM uploads WHERE status NOT IN ('COMPLETED', 'FAILED')
ORDER BY uploaded_at, job_id`)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e                     Entry
		uploadedAt, updatedAt int64
	)
	if err := sc.Scan(&e.JobID, &e.FileName, &e.Status, &e.Title, &uploadedAt, &updatedAt); err != nil {
		return Entry{}, err
	}
	e.UploadedAt = time.UnixMilli(uploadedAt)
	e.UpdatedAt = time.UnixMilli(updatedAt)
	return e, nil
}
