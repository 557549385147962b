package models

// ScoreBreakdown holds the per-dimension scores of one event, each in [0, 100].
type ScoreBreakdown struct {
	PriceScore      float64 `json:"price_score"`
	DateScore       float64 `json:"date_score"`
	GenreScore      float64 `json:"genre_score"`
	LocationScore   float64 `json:"location_score"`
	PopularityScore float64 `json:"popularity_score"`
}

// EventScore is an event with its weighted total and breakdown.
type EventScore struct {
	Event      *Event         `json:"event"`
	TotalScore float64        `json:"total_score"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
}

// SmartSearchResult is the terminal result of one relaxed search.
// Level is the relaxation level (1-4) that satisfied the minimum count, or 0 if none did.
type SmartSearchResult struct {
	Events            []*Event      `json:"events"`
	Level             int           `json:"level"`
	RelaxedConditions []string      `json:"relaxed_conditions"`
	Message           string        `json:"message"`
	Scores            []*EventScore `json:"scores,omitempty"`
}
