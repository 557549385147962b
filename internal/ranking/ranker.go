package ranking

import (
	"sort"

	"github.com/hyperjump/stagefinder/internal/models"
)

// Ranker combines the per-dimension scorers to rank events.
type Ranker struct {
	priceScorer      *PriceScorer
	dateScorer       *DateScorer
	genreScorer      *GenreScorer
	locationScorer   *LocationScorer
	popularityScorer *PopularityScorer
}

// NewRanker creates a new Ranker.
func NewRanker() *Ranker {
	return &Ranker{
		priceScorer:      NewPriceScorer(),
		dateScorer:       NewDateScorer(),
		genreScorer:      NewGenreScorer(),
		locationScorer:   NewLocationScorer(),
		popularityScorer: NewPopularityScorer(),
	}
}

// Breakdown computes all five dimension scores for one event.
func (r *Ranker) Breakdown(event *models.Event, criteria *Criteria) models.ScoreBreakdown {
	ctx := &ScoringContext{Event: event, Criteria: criteria}
	return models.ScoreBreakdown{
		PriceScore:      r.priceScorer.Score(ctx),
		DateScore:       r.dateScorer.Score(ctx),
		GenreScore:      r.genreScorer.Score(ctx),
		LocationScore:   r.locationScorer.Score(ctx),
		PopularityScore: r.popularityScorer.Score(ctx),
	}
}

// ScoreEvent computes the weighted total and breakdown for one event.
func (r *Ranker) ScoreEvent(event *models.Event, priorities PriorityWeights, criteria *Criteria) *models.EventScore {
	breakdown := r.Breakdown(event, criteria)
	return &models.EventScore{
		Event:      event,
		TotalScore: WeightedTotal(priorities, breakdown),
		Breakdown:  breakdown,
	}
}

// ScoreAndSort scores every event and sorts by total descending.
// Equal totals keep their input order.
func (r *Ranker) ScoreAndSort(events []*models.Event, priorities PriorityWeights, criteria *Criteria) []*models.EventScore {
	scores := make([]*models.EventScore, 0, len(events))
	for _, event := range events {
		scores = append(scores, r.ScoreEvent(event, priorities, criteria))
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalScore > scores[j].TotalScore
	})

	return scores
}

// WeightedTotal sums slot weight times the score of the dimension each slot names.
// Weights sum to 1, so the total stays within [0, 100].
func WeightedTotal(priorities PriorityWeights, breakdown models.ScoreBreakdown) float64 {
	total := 0.0
	for _, slot := range priorities.Slots() {
		total += slot.Weight * dimensionScore(slot.Priority, breakdown)
	}
	return total
}

// dimensionScore selects the breakdown entry for a priority.
func dimensionScore(p SearchPriority, b models.ScoreBreakdown) float64 {
	switch p {
	case PriorityPrice:
		return b.PriceScore
	case PriorityDate:
		return b.DateScore
	case PriorityGenre:
		return b.GenreScore
	case PriorityLocation:
		return b.LocationScore
	case PriorityPopularity:
		return b.PopularityScore
	case PriorityCount:
		// count is enforced as the minimum result size, not scored per event
		return 0
	default:
		return 0
	}
}

// TopN returns the first n scores.
func TopN(scores []*models.EventScore, n int) []*models.EventScore {
	if n < 0 {
		n = 0
	}
	if n >= len(scores) {
		return scores
	}
	return scores[:n]
}

// Events unwraps the events of a score list, preserving order.
func Events(scores []*models.EventScore) []*models.Event {
	events := make([]*models.Event, 0, len(scores))
	for _, s := range scores {
		events = append(events, s.Event)
	}
	return events
}
