package models

import (
	"errors"
	"fmt"
)

// ErrInvalidParams marks a search request rejected before any upstream call.
var ErrInvalidParams = errors.New("invalid search params")

// SearchMode selects the priority scheme and relaxation policy of a search.
type SearchMode string

const (
	// ModeByLocation is the default location-oriented search.
	ModeByLocation SearchMode = "by-location"
	// ModeFreeEvents searches for free performances in the coming month.
	ModeFreeEvents SearchMode = "free-events"
	// ModeTrending searches the box-office ranking feed.
	ModeTrending SearchMode = "trending"
)

// ParseSearchMode returns the SearchMode named by s.
func ParseSearchMode(s string) (SearchMode, error) {
	switch m := SearchMode(s); m {
	case ModeByLocation, ModeFreeEvents, ModeTrending:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown search mode %q", ErrInvalidParams, s)
	}
}

// SearchParams are the raw caller-supplied search parameters.
type SearchParams struct {
	GenreCode string `json:"genre_code,omitempty" yaml:"genre_code"`
	StartDate string `json:"start_date,omitempty" yaml:"start_date"`
	EndDate   string `json:"end_date,omitempty" yaml:"end_date"`
	SidoCode  string `json:"sido_code,omitempty" yaml:"sido_code"`
	GugunCode string `json:"gugun_code,omitempty" yaml:"gugun_code"`
	Limit     int    `json:"limit,omitempty" yaml:"limit"`
}

// Validate checks params for the given mode. Errors wrap ErrInvalidParams.
func (p *SearchParams) Validate(mode SearchMode) error {
	if mode != ModeTrending && p.GenreCode == "" {
		return fmt.Errorf("%w: genre_code is required for %s search", ErrInvalidParams, mode)
	}
	if p.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", ErrInvalidParams)
	}
	var err error
	if p.StartDate != "" {
		if _, err = ParseDate(p.StartDate); err != nil {
			return fmt.Errorf("%w: start_date: %v", ErrInvalidParams, err)
		}
	}
	if p.EndDate != "" {
		if _, err = ParseDate(p.EndDate); err != nil {
			return fmt.Errorf("%w: end_date: %v", ErrInvalidParams, err)
		}
	}
	if p.StartDate != "" && p.EndDate != "" && p.EndDate < p.StartDate {
		return fmt.Errorf("%w: end_date %s is before start_date %s", ErrInvalidParams, p.EndDate, p.StartDate)
	}
	if p.SidoCode != "" && !isDigits(p.SidoCode, 2) {
		return fmt.Errorf("%w: sido_code must be 2 digits, got %q", ErrInvalidParams, p.SidoCode)
	}
	if p.GugunCode != "" && !isDigits(p.GugunCode, 4) {
		return fmt.Errorf("%w: gugun_code must be 4 digits, got %q", ErrInvalidParams, p.GugunCode)
	}
	return nil
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
