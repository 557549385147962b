// Package models defines core data structures for events, search requests, and search results.
package models

import (
	"fmt"
	"time"
)

// DateLayout is the compact date format used by the listing API and search params.
const DateLayout = "20060102"

// Event is a performance record returned by the upstream listing API.
// Only the named fields are read by ranking; Extra carries everything else through.
type Event struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	StartDate     string            `json:"start_date"`
	EndDate       string            `json:"end_date"`
	Venue         string            `json:"venue,omitempty"`
	Area          string            `json:"area,omitempty"`
	Genre         string            `json:"genre,omitempty"`
	Status        string            `json:"status,omitempty"`
	Poster        string            `json:"poster,omitempty"`
	PriceGuidance string            `json:"price_guidance,omitempty"`
	Popularity    *float64          `json:"popularity,omitempty"`
	Rank          int               `json:"rank,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// Span parses the event's start and end dates. A missing end date is treated as the start date.
func (e *Event) Span() (start, end time.Time, err error) {
	start, err = ParseDate(e.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("event %s start date: %w", e.ID, err)
	}
	if e.EndDate == "" {
		return start, start, nil
	}
	end, err = ParseDate(e.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("event %s end date: %w", e.ID, err)
	}
	return start, end, nil
}

// EventDetail is the full record for a single performance.
type EventDetail struct {
	Event
	Cast      string   `json:"cast,omitempty"`
	Crew      string   `json:"crew,omitempty"`
	Runtime   string   `json:"runtime,omitempty"`
	AgeLimit  string   `json:"age_limit,omitempty"`
	Producer  string   `json:"producer,omitempty"`
	Schedule  string   `json:"schedule,omitempty"`
	Synopsis  string   `json:"synopsis,omitempty"`
	ImageURLs []string `json:"image_urls,omitempty"`
}

// BoxOfficeEntry is one row of the box-office ranking feed.
type BoxOfficeEntry struct {
	EventID   string `json:"event_id"`
	Rank      int    `json:"rank"`
	Name      string `json:"name"`
	Genre     string `json:"genre,omitempty"`
	Area      string `json:"area,omitempty"`
	Venue     string `json:"venue,omitempty"`
	Period    string `json:"period,omitempty"`
	Poster    string `json:"poster,omitempty"`
	SeatCount int    `json:"seat_count,omitempty"`
}

// ParseDate parses a YYYYMMDD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYYMMDD", s)
	}
	return t, nil
}

// FormatDate formats t as YYYYMMDD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the calendar-day difference b - a, ignoring time of day.
func DaysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
