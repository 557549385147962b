package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteHistory implements HistoryStore using SQLite.
type SQLiteHistory struct {
	db   *sql.DB
	path string
}

// NewSQLiteHistory opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteHistory(dbPath string) (*SQLiteHistory, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteHistory{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS searches (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		params TEXT NOT NULL,
		level INTEGER NOT NULL,
		found INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_searches_created_at ON searches(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Record inserts rec. A zero CreatedAt is set to the current time.
func (h *SQLiteHistory) Record(ctx context.Context, rec *SearchRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("search record has no id")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO searches (id, mode, params, level, found, duration_ms, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Mode, rec.Params, rec.Level, rec.Found, rec.DurationMs, rec.Error, rec.CreatedAt.UnixNano(),
	)
	return err
}

// Recent returns the newest records first.
func (h *SQLiteHistory) Recent(ctx context.Context, limit int) ([]*SearchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, mode, params, level, found, duration_ms, error, created_at
		 FROM searches ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*SearchRecord
	for rows.Next() {
		var rec SearchRecord
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.Mode, &rec.Params, &rec.Level, &rec.Found, &rec.DurationMs, &rec.Error, &createdAt); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.Unix(0, createdAt)
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Prune deletes records older than cutoff.
func (h *SQLiteHistory) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := h.db.ExecContext(ctx, `DELETE FROM searches WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Stats counts records by outcome and sums the database files on disk.
func (h *SQLiteHistory) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN level = 0 AND error = '' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN error != '' THEN 1 ELSE 0 END), 0)
		 FROM searches`,
	).Scan(&stats.Searches, &stats.Exhausted, &stats.Failed)
	if err != nil {
		return nil, err
	}
	stats.DiskBytes, err = DiskUsageBytes(h.path, h.path+"-wal", h.path+"-shm")
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Close closes the database.
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}
