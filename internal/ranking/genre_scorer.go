package ranking

import (
	"strings"

	"github.com/hyperjump/stagefinder/internal/codes"
)

const (
	exactGenreScore     = 100
	substringGenreScore = 90
	similarGenreScore   = 60
)

// GenreScorer scores events by how closely their genre matches the target genre.
type GenreScorer struct{}

// NewGenreScorer creates a new GenreScorer.
func NewGenreScorer() *GenreScorer {
	return &GenreScorer{}
}

// Name returns the scorer name.
func (s *GenreScorer) Name() string {
	return "genre"
}

// Score compares genre display names: exact, substring, then similar-pair match.
func (s *GenreScorer) Score(ctx *ScoringContext) float64 {
	if ctx == nil || ctx.Criteria == nil || ctx.Criteria.GenreCode == "" {
		return neutralScore
	}
	if ctx.Event == nil {
		return 0
	}
	eventGenre := strings.TrimSpace(ctx.Event.Genre)
	if eventGenre == "" {
		return 0
	}
	target := codes.GenreLabel(ctx.Criteria.GenreCode)

	if eventGenre == target {
		return exactGenreScore
	}
	if strings.Contains(eventGenre, target) || strings.Contains(target, eventGenre) {
		return substringGenreScore
	}
	if codes.SimilarGenreNames(target, eventGenre) {
		return similarGenreScore
	}
	return 0
}
