package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/stagefinder/internal/models"
)

func sampleResult() *models.SmartSearchResult {
	event := &models.Event{
		ID:        "PF1",
		Name:      "햄릿",
		StartDate: "20250101",
		EndDate:   "20250131",
		Venue:     "예술의전당",
		Area:      "서울특별시",
		Genre:     "연극",
	}
	return &models.SmartSearchResult{
		Events:            []*models.Event{event},
		Level:             2,
		RelaxedConditions: []string{"genre: 연극 + one related genre (뮤지컬)"},
		Message:           "Found 1 events after relaxing search conditions (level 2): genre: 연극 + one related genre (뮤지컬)",
		Scores: []*models.EventScore{{
			Event:      event,
			TotalScore: 87.5,
			Breakdown:  models.ScoreBreakdown{PriceScore: 50, DateScore: 100, GenreScore: 100, LocationScore: 60, PopularityScore: 50},
		}},
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"compact", OutputCompact, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteSearchResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResult(&buf, sampleResult(), OutputJSON); err != nil {
		t.Fatalf("WriteSearchResult(json): %v", err)
	}
	var decoded models.SmartSearchResult
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Level != 2 || len(decoded.Events) != 1 || decoded.Events[0].ID != "PF1" {
		t.Errorf("decoded: got %+v", decoded)
	}
	if len(decoded.Scores) != 1 || decoded.Scores[0].TotalScore != 87.5 {
		t.Errorf("decoded scores: got %+v", decoded.Scores)
	}
}

func TestWriteSearchResult_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResult(&buf, sampleResult(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Relaxation level: 2",
		"  - genre: 연극 + one related genre (뮤지컬)",
		"#1 햄릿  [PF1]",
		"Score: 87.5 (price 50, date 100, genre 100, location 60, popularity 50)",
		"Period: 20250101~20250131",
		"Venue: 예술의전당",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Price:") {
		t.Error("empty price should be omitted")
	}
}

func TestWriteSearchResult_TextExhausted(t *testing.T) {
	result := &models.SmartSearchResult{Level: 0, Message: "Only found 0 events after maximum relaxation (minimum requested: 3)."}
	var buf bytes.Buffer
	if err := WriteSearchResult(&buf, result, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Relaxation level: exhausted") {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteSearchResult_Compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResult(&buf, sampleResult(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want header plus one line, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "# level=2 ") {
		t.Errorf("header: got %q", lines[0])
	}
	if lines[1] != "PF1\t20250101~20250131\t서울특별시\t햄릿" {
		t.Errorf("line: got %q", lines[1])
	}
}

func TestWriteEventDetail(t *testing.T) {
	detail := &models.EventDetail{
		Event:    models.Event{ID: "PF1", Name: "햄릿", StartDate: "20250105", EndDate: "20250105", PriceGuidance: "무료"},
		Runtime:  "2시간",
		Synopsis: strings.Repeat("가", 500),
	}
	var buf bytes.Buffer
	if err := WriteEventDetail(&buf, detail, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"햄릿  [PF1]", "Period: 20250105\n", "Price: 무료", "Runtime: 2시간", "..."} {
		if !strings.Contains(out, want) {
			t.Errorf("detail output missing %q", want)
		}
	}

	buf.Reset()
	if err := WriteEventDetail(&buf, detail, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.EventDetail
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Runtime != "2시간" {
		t.Errorf("runtime: got %q", decoded.Runtime)
	}
}
