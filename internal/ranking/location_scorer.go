package ranking

import (
	"strings"

	"github.com/hyperjump/stagefinder/internal/codes"
)

const (
	districtMatchScore = 100
	provinceMatchScore = 60
)

// LocationScorer scores events by whether their area text names the target region.
type LocationScorer struct{}

// NewLocationScorer creates a new LocationScorer.
func NewLocationScorer() *LocationScorer {
	return &LocationScorer{}
}

// Name returns the scorer name.
func (s *LocationScorer) Name() string {
	return "location"
}

// Score returns 100 for a district match, 60 for a province match, and 0 otherwise.
func (s *LocationScorer) Score(ctx *ScoringContext) float64 {
	if ctx == nil || ctx.Criteria == nil || ctx.Criteria.LocationCode == "" {
		return neutralScore
	}
	if ctx.Event == nil {
		return 0
	}
	area := ctx.Event.Area
	code := ctx.Criteria.LocationCode

	if len(code) == 4 {
		if district, ok := codes.DistrictName(code); ok && strings.Contains(area, district) {
			return districtMatchScore
		}
	}
	if province, ok := codes.ProvinceName(codes.ProvinceOf(code)); ok && strings.Contains(area, province) {
		return provinceMatchScore
	}
	return 0
}
