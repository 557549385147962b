package ranking

import "github.com/hyperjump/stagefinder/internal/models"

const (
	neutralScore       = 50
	containedDateScore = 100
	overlapDateScore   = 70
)

// dateTier maps a maximum distance in days between start dates to a score.
type dateTier struct {
	maxDays int
	score   float64
}

var dateTiers = []dateTier{
	{maxDays: 7, score: 50},
	{maxDays: 14, score: 30},
	{maxDays: 30, score: 10},
}

// DateScorer scores events by how well their run matches the target dates.
type DateScorer struct{}

// NewDateScorer creates a new DateScorer.
func NewDateScorer() *DateScorer {
	return &DateScorer{}
}

// Name returns the scorer name.
func (s *DateScorer) Name() string {
	return "date"
}

// Score returns 100 when the event runs entirely inside the target range, 70 on
// any overlap, and otherwise decays with the distance between start dates.
func (s *DateScorer) Score(ctx *ScoringContext) float64 {
	if ctx == nil || !ctx.Criteria.HasDateTarget() {
		return neutralScore
	}
	if ctx.Event == nil {
		return 0
	}
	start, end, err := ctx.Event.Span()
	if err != nil {
		return 0
	}
	target := ctx.Criteria

	if !start.Before(target.StartDate) && !end.After(target.EndDate) {
		return containedDateScore
	}
	if !start.After(target.EndDate) && !end.Before(target.StartDate) {
		return overlapDateScore
	}

	diff := models.DaysBetween(target.StartDate, start)
	if diff < 0 {
		diff = -diff
	}
	for _, tier := range dateTiers {
		if diff <= tier.maxDays {
			return tier.score
		}
	}
	return 0
}
