// Package ranking provides query analysis and priority-weighted scoring of events.
package ranking

import (
	"time"

	"github.com/hyperjump/stagefinder/internal/models"
)

// SearchPriority names a ranking dimension.
type SearchPriority string

const (
	// PriorityPrice ranks cheaper (and free) events higher.
	PriorityPrice SearchPriority = "price"
	// PriorityDate ranks events closer to the target dates higher.
	PriorityDate SearchPriority = "date"
	// PriorityGenre ranks events matching the target genre higher.
	PriorityGenre SearchPriority = "genre"
	// PriorityLocation ranks events in the target region higher.
	PriorityLocation SearchPriority = "location"
	// PriorityCount has no per-event score; it is realized as the minimum result count.
	PriorityCount SearchPriority = "count"
	// PriorityPopularity ranks events by externally supplied popularity.
	PriorityPopularity SearchPriority = "popularity"
)

// Slot weights, highest priority first.
const (
	FirstWeight  = 0.40
	SecondWeight = 0.30
	ThirdWeight  = 0.20
	FourthWeight = 0.10
)

// PriorityWeights assigns up to four distinct priorities to the fixed 40/30/20/10 weights.
// A nil Fourth attributes its weight to PriorityCount.
type PriorityWeights struct {
	First  SearchPriority  `json:"first"`
	Second SearchPriority  `json:"second"`
	Third  SearchPriority  `json:"third"`
	Fourth *SearchPriority `json:"fourth,omitempty"`
}

// WeightedSlot is one priority and its weight.
type WeightedSlot struct {
	Priority SearchPriority
	Weight   float64
}

// Slots returns the four weighted slots in rank order.
func (w PriorityWeights) Slots() [4]WeightedSlot {
	fourth := PriorityCount
	if w.Fourth != nil {
		fourth = *w.Fourth
	}
	return [4]WeightedSlot{
		{Priority: w.First, Weight: FirstWeight},
		{Priority: w.Second, Weight: SecondWeight},
		{Priority: w.Third, Weight: ThirdWeight},
		{Priority: fourth, Weight: FourthWeight},
	}
}

// Keywords are the intent flags derived from a request.
type Keywords struct {
	IsFree          bool `json:"is_free"`
	IsTrending      bool `json:"is_trending"`
	HasDateKeyword  bool `json:"has_date_keyword"`
	HasCountKeyword bool `json:"has_count_keyword"`
}

// ParsedParams are the normalized request parameters. Empty strings mean absent.
type ParsedParams struct {
	GenreCode string `json:"genre_code,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	SidoCode  string `json:"sido_code,omitempty"`
	GugunCode string `json:"gugun_code,omitempty"`
	MinCount  int    `json:"min_count"`
}

// QueryAnalysis is the immutable analysis of one search request.
type QueryAnalysis struct {
	Mode       models.SearchMode `json:"mode"`
	Priorities PriorityWeights   `json:"priorities"`
	Keywords   Keywords          `json:"keywords"`
	Params     ParsedParams      `json:"params"`
}

// Criteria are the scoring targets. Zero values mean "no target" for that dimension.
type Criteria struct {
	StartDate    time.Time
	EndDate      time.Time
	LocationCode string
	GenreCode    string
	IsFree       bool
}

// HasDateTarget reports whether a target date range is set.
func (c *Criteria) HasDateTarget() bool {
	return c != nil && !c.StartDate.IsZero()
}

// CriteriaFor builds scoring criteria from an analysis: parsed dates, the district
// code if present else the province code, and the requested genre.
func CriteriaFor(a *QueryAnalysis) *Criteria {
	c := &Criteria{
		GenreCode: a.Params.GenreCode,
		IsFree:    a.Mode == models.ModeFreeEvents,
	}
	if a.Params.StartDate != "" {
		if start, err := models.ParseDate(a.Params.StartDate); err == nil {
			c.StartDate = start
			c.EndDate = start
		}
	}
	if a.Params.EndDate != "" && !c.StartDate.IsZero() {
		if end, err := models.ParseDate(a.Params.EndDate); err == nil {
			c.EndDate = end
		}
	}
	c.LocationCode = a.Params.GugunCode
	if c.LocationCode == "" {
		c.LocationCode = a.Params.SidoCode
	}
	return c
}

// ScoringContext provides everything a Scorer needs for one event.
type ScoringContext struct {
	Event    *models.Event
	Criteria *Criteria
}

// Scorer computes one dimension score in [0, 100].
type Scorer interface {
	// Score calculates the dimension score for the event in ctx.
	Score(ctx *ScoringContext) float64
	// Name returns the scorer name for debugging/logging.
	Name() string
}
