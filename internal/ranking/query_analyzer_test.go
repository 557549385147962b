package ranking

import (
	"testing"

	"github.com/hyperjump/stagefinder/internal/models"
)

func TestQueryAnalyzer_Analyze(t *testing.T) {
	qa := NewQueryAnalyzer(0)

	tests := []struct {
		name       string
		mode       models.SearchMode
		params     *models.SearchParams
		wantOrder  [4]SearchPriority
		wantDateKW bool
	}{
		{
			name:      "free events",
			mode:      models.ModeFreeEvents,
			params:    &models.SearchParams{GenreCode: "AAAA"},
			wantOrder: [4]SearchPriority{PriorityPrice, PriorityDate, PriorityGenre, PriorityLocation},
		},
		{
			name:      "trending",
			mode:      models.ModeTrending,
			params:    &models.SearchParams{},
			wantOrder: [4]SearchPriority{PriorityPopularity, PriorityCount, PriorityGenre, PriorityDate},
		},
		{
			name:       "five day window",
			mode:       models.ModeByLocation,
			params:     &models.SearchParams{GenreCode: "GGGA", StartDate: "20250101", EndDate: "20250106"},
			wantOrder:  [4]SearchPriority{PriorityDate, PriorityCount, PriorityGenre, PriorityLocation},
			wantDateKW: true,
		},
		{
			name:       "exactly seven days",
			mode:       models.ModeByLocation,
			params:     &models.SearchParams{GenreCode: "GGGA", StartDate: "20250101", EndDate: "20250108"},
			wantOrder:  [4]SearchPriority{PriorityDate, PriorityCount, PriorityGenre, PriorityLocation},
			wantDateKW: true,
		},
		{
			name:      "month window",
			mode:      models.ModeByLocation,
			params:    &models.SearchParams{GenreCode: "GGGA", StartDate: "20250101", EndDate: "20250131"},
			wantOrder: [4]SearchPriority{PriorityDate, PriorityLocation, PriorityGenre, PriorityCount},
		},
		{
			name:      "no dates",
			mode:      models.ModeByLocation,
			params:    &models.SearchParams{GenreCode: "GGGA", SidoCode: "11"},
			wantOrder: [4]SearchPriority{PriorityDate, PriorityLocation, PriorityGenre, PriorityCount},
		},
		{
			name:      "free wins over narrow window",
			mode:      models.ModeFreeEvents,
			params:    &models.SearchParams{GenreCode: "AAAA", StartDate: "20250101", EndDate: "20250102"},
			wantOrder: [4]SearchPriority{PriorityPrice, PriorityDate, PriorityGenre, PriorityLocation},
		},
		{
			name:      "nil params",
			mode:      models.ModeByLocation,
			params:    nil,
			wantOrder: [4]SearchPriority{PriorityDate, PriorityLocation, PriorityGenre, PriorityCount},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := qa.Analyze(tt.mode, tt.params)
			slots := result.Priorities.Slots()
			for i, want := range tt.wantOrder {
				if slots[i].Priority != want {
					t.Errorf("slot %d: expected %s, got %s", i, want, slots[i].Priority)
				}
			}
			if result.Keywords.HasDateKeyword != tt.wantDateKW {
				t.Errorf("Expected HasDateKeyword=%v, got %v", tt.wantDateKW, result.Keywords.HasDateKeyword)
			}
		})
	}
}

func TestQueryAnalyzer_FiveDaySpanPutsDateFirst(t *testing.T) {
	qa := NewQueryAnalyzer(0)
	result := qa.Analyze(models.ModeByLocation, &models.SearchParams{
		GenreCode: "AAAA",
		StartDate: "20250310",
		EndDate:   "20250315",
		SidoCode:  "11",
	})

	if result.Priorities.First != PriorityDate {
		t.Errorf("Expected first priority date, got %s", result.Priorities.First)
	}
	if !result.Keywords.HasDateKeyword {
		t.Error("Expected HasDateKeyword to be set")
	}
}

func TestQueryAnalyzer_MinCount(t *testing.T) {
	tests := []struct {
		name         string
		defaultCount int
		limit        int
		want         int
		wantCountKW  bool
	}{
		{"default", 0, 0, DefaultMinCount, false},
		{"caller limit", 0, 7, 7, true},
		{"configured default", 5, 0, 5, false},
		{"negative default falls back", -1, 0, DefaultMinCount, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qa := NewQueryAnalyzer(tt.defaultCount)
			result := qa.Analyze(models.ModeByLocation, &models.SearchParams{GenreCode: "AAAA", Limit: tt.limit})
			if result.Params.MinCount != tt.want {
				t.Errorf("Expected MinCount %d, got %d", tt.want, result.Params.MinCount)
			}
			if result.Keywords.HasCountKeyword != tt.wantCountKW {
				t.Errorf("Expected HasCountKeyword=%v, got %v", tt.wantCountKW, result.Keywords.HasCountKeyword)
			}
		})
	}
}

func TestQueryAnalyzer_CopiesParams(t *testing.T) {
	qa := NewQueryAnalyzer(0)
	params := &models.SearchParams{
		GenreCode: "CCCA",
		StartDate: "20250101",
		EndDate:   "20250301",
		SidoCode:  "26",
		GugunCode: "2611",
	}
	result := qa.Analyze(models.ModeByLocation, params)

	got := result.Params
	if got.GenreCode != "CCCA" || got.StartDate != "20250101" || got.EndDate != "20250301" ||
		got.SidoCode != "26" || got.GugunCode != "2611" {
		t.Errorf("Params not copied verbatim: %+v", got)
	}
}

func TestCriteriaFor(t *testing.T) {
	qa := NewQueryAnalyzer(0)

	t.Run("district preferred over province", func(t *testing.T) {
		a := qa.Analyze(models.ModeByLocation, &models.SearchParams{GenreCode: "AAAA", SidoCode: "11", GugunCode: "1168"})
		c := CriteriaFor(a)
		if c.LocationCode != "1168" {
			t.Errorf("Expected location 1168, got %s", c.LocationCode)
		}
		if c.HasDateTarget() {
			t.Error("Expected no date target")
		}
	})

	t.Run("end defaults to start", func(t *testing.T) {
		a := qa.Analyze(models.ModeByLocation, &models.SearchParams{GenreCode: "AAAA", StartDate: "20250105"})
		c := CriteriaFor(a)
		if !c.HasDateTarget() {
			t.Fatal("Expected date target")
		}
		if !c.EndDate.Equal(c.StartDate) {
			t.Errorf("Expected end == start, got %v and %v", c.StartDate, c.EndDate)
		}
	})

	t.Run("free mode", func(t *testing.T) {
		a := qa.Analyze(models.ModeFreeEvents, &models.SearchParams{GenreCode: "AAAA", SidoCode: "11"})
		c := CriteriaFor(a)
		if !c.IsFree {
			t.Error("Expected IsFree")
		}
		if c.LocationCode != "11" {
			t.Errorf("Expected location 11, got %s", c.LocationCode)
		}
	})
}
