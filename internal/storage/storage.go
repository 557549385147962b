// Package storage keeps a log of served searches for later inspection.
// The log is write-only from the search path; nothing read from it feeds back
// into a search.
package storage

import (
	"context"
	"time"
)

// SearchRecord is one served search.
type SearchRecord struct {
	ID         string    `json:"id"`
	Mode       string    `json:"mode"`
	Params     string    `json:"params"`
	Level      int       `json:"level"`
	Found      int       `json:"found"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryStore persists search records.
type HistoryStore interface {
	Record(ctx context.Context, rec *SearchRecord) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]*SearchRecord, error)
	// Prune deletes records created before cutoff and returns how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// Stats summarizes the history.
type Stats struct {
	Searches  int64 `json:"searches"`
	Exhausted int64 `json:"exhausted"`
	Failed    int64 `json:"failed"`
	DiskBytes int64 `json:"disk_bytes"`
}
