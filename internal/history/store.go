// Package history records finished full scans in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultLimit is used by Recent when limit <= 0.
const DefaultLimit = 20

// ScanRun is one recorded full scan.
type ScanRun struct {
	ID           string    `json:"id"`
	RootPath     string    `json:"rootPath"`
	Strategy     string    `json:"strategy"`
	MaxDepth     int       `json:"maxDepth"`
	NodeCount    int       `json:"nodeCount"`
	ScannedCount int64     `json:"scannedCount"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
}

// Duration returns how long the scan ran.
func (r *ScanRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store manages the scan history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the database at dbPath and applies
// pending migrations. ":memory:" opens a private in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return store, nil
}

// execWithRetry retries statements that fail with "database is locked",
// backing off exponentially from baseDelay.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts a finished scan.
func (s *Store) Record(ctx context.Context, run *ScanRun) error {
	if run.ID == "" {
		return fmt.Errorf("scan run has no id")
	}
	query := `INSERT INTO scan_runs
		(id, root_path, strategy, max_depth, node_count, scanned_count, success, error_message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.RootPath, run.Strategy, run.MaxDepth, run.NodeCount, run.ScannedCount,
		run.Success, nullString(run.ErrorMessage), run.StartedAt.UTC(), run.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert scan run: %w", err)
	}
	return nil
}

// Recent returns up to limit scans, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*ScanRun, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	query := `SELECT id, root_path, strategy, max_depth, node_count, scanned_count, success,
		COALESCE(error_message, ''), started_at, finished_at
		FROM scan_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query scan runs: %w", err)
	}
	defer rows.Close()

	var runs []*ScanRun
	for rows.Next() {
		r := &ScanRun{}
		if err := rows.Scan(&r.ID, &r.RootPath, &r.Strategy, &r.MaxDepth, &r.NodeCount, &r.ScannedCount,
			&r.Success, &r.ErrorMessage, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan runs: %w", err)
	}
	return runs, nil
}

// Get returns the scan with the given id, or nil when there is none.
func (s *Store) Get(ctx context.Context, id string) (*ScanRun, error) {
	query := `SELECT id, root_path, strategy, max_depth, node_count, scanned_count, success,
		COALESCE(error_message, ''), started_at, finished_at
		FROM scan_runs WHERE id = ?`
	r := &ScanRun{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(&r.ID, &r.RootPath, &r.Strategy, &r.MaxDepth,
		&r.NodeCount, &r.ScannedCount, &r.Success, &r.ErrorMessage, &r.StartedAt, &r.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query scan run: %w", err)
	}
	return r, nil
}

// Prune deletes all but the newest keep scans and returns how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	query := `DELETE FROM scan_runs WHERE id NOT IN
		(SELECT id FROM scan_runs ORDER BY started_at DESC, rowid DESC LIMIT ?)`
	res, err := s.db.ExecContext(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("prune scan runs: %w", err)
	}
	return res.RowsAffected()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
