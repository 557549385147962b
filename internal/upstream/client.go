// Package upstream provides clients for the performance-listing source: the KOPIS
// HTTP API and a local bleve-indexed catalog, plus a metrics decorator.
package upstream

import (
	"context"
	"errors"

	"github.com/hyperjump/stagefinder/internal/models"
)

var (
	// ErrUpstreamUnavailable marks transport, status and decode failures.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrNotFound marks a lookup for an event the source does not know.
	ErrNotFound = errors.New("event not found")
)

// DefaultRows is the result cap used when a query does not set one.
const DefaultRows = 100

// ListQuery filters an event listing. Empty strings mean no filter.
// StartDate and EndDate are YYYYMMDD.
type ListQuery struct {
	GenreCode string
	StartDate string
	EndDate   string
	SidoCode  string
	GugunCode string
	Rows      int
}

// BoxOfficeQuery filters the box-office ranking feed.
type BoxOfficeQuery struct {
	GenreCode string
	SidoCode  string
	StartDate string
	EndDate   string
}

// Client is the listing source the relaxation engine queries.
// Implementations return an empty slice, not an error, when nothing matches.
type Client interface {
	ListEvents(ctx context.Context, q ListQuery) ([]*models.Event, error)
	GetEventDetail(ctx context.Context, id string) (*models.EventDetail, error)
	GetBoxOfficeRanking(ctx context.Context, q BoxOfficeQuery) ([]*models.BoxOfficeEntry, error)
}

func rowsOrDefault(rows int) int {
	if rows <= 0 {
		return DefaultRows
	}
	return rows
}
