package ranking

import (
	"github.com/hyperjump/stagefinder/internal/models"
)

// DefaultMinCount is the minimum result count when the caller gives no limit.
const DefaultMinCount = 3

// narrowWindowDays is the widest date span still treated as a specific window.
const narrowWindowDays = 7

// QueryAnalyzer maps a search mode and raw params to a QueryAnalysis.
type QueryAnalyzer struct {
	defaultMinCount int
}

// NewQueryAnalyzer creates a QueryAnalyzer. A non-positive defaultMinCount uses DefaultMinCount.
func NewQueryAnalyzer(defaultMinCount int) *QueryAnalyzer {
	if defaultMinCount <= 0 {
		defaultMinCount = DefaultMinCount
	}
	return &QueryAnalyzer{defaultMinCount: defaultMinCount}
}

// Analyze returns the fixed priority scheme and normalized params for a request.
// It performs no I/O and never fails; nil params are treated as empty.
func (qa *QueryAnalyzer) Analyze(mode models.SearchMode, params *models.SearchParams) *QueryAnalysis {
	if params == nil {
		params = &models.SearchParams{}
	}
	result := &QueryAnalysis{
		Mode: mode,
		Params: ParsedParams{
			GenreCode: params.GenreCode,
			StartDate: params.StartDate,
			EndDate:   params.EndDate,
			SidoCode:  params.SidoCode,
			GugunCode: params.GugunCode,
			MinCount:  qa.defaultMinCount,
		},
	}
	if params.Limit > 0 {
		result.Params.MinCount = params.Limit
		result.Keywords.HasCountKeyword = true
	}

	switch {
	case mode == models.ModeFreeEvents:
		result.Keywords.IsFree = true
		result.Priorities = weights(PriorityPrice, PriorityDate, PriorityGenre, PriorityLocation)
	case mode == models.ModeTrending:
		result.Keywords.IsTrending = true
		result.Priorities = weights(PriorityPopularity, PriorityCount, PriorityGenre, PriorityDate)
	case isNarrowWindow(params.StartDate, params.EndDate):
		result.Keywords.HasDateKeyword = true
		result.Priorities = weights(PriorityDate, PriorityCount, PriorityGenre, PriorityLocation)
	default:
		result.Priorities = weights(PriorityDate, PriorityLocation, PriorityGenre, PriorityCount)
	}
	return result
}

func weights(first, second, third, fourth SearchPriority) PriorityWeights {
	return PriorityWeights{First: first, Second: second, Third: third, Fourth: &fourth}
}

// isNarrowWindow reports whether both dates parse and span at most a week.
func isNarrowWindow(startDate, endDate string) bool {
	if startDate == "" || endDate == "" {
		return false
	}
	start, err := models.ParseDate(startDate)
	if err != nil {
		return false
	}
	end, err := models.ParseDate(endDate)
	if err != nil {
		return false
	}
	span := models.DaysBetween(start, end)
	return span >= 0 && span <= narrowWindowDays
}
