package ranking

import "github.com/hyperjump/stagefinder/pkg/utils"

// PopularityScorer passes through the externally supplied popularity value.
type PopularityScorer struct{}

// NewPopularityScorer creates a new PopularityScorer.
func NewPopularityScorer() *PopularityScorer {
	return &PopularityScorer{}
}

// Name returns the scorer name.
func (s *PopularityScorer) Name() string {
	return "popularity"
}

// Score returns the event's popularity clamped to [0, 100], or 50 when absent.
func (s *PopularityScorer) Score(ctx *ScoringContext) float64 {
	if ctx == nil || ctx.Event == nil || ctx.Event.Popularity == nil {
		return neutralScore
	}
	return utils.Clamp(*ctx.Event.Popularity, 0, 100)
}

// PopularityFromRank converts a 1-based box-office rank into a popularity score.
func PopularityFromRank(rank int) float64 {
	if rank < 1 {
		return 0
	}
	return utils.Clamp(100-2*float64(rank-1), 0, 100)
}
