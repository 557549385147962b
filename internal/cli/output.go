// Package cli provides output formatting for the stagefinder command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/stagefinder/internal/models"
	"github.com/hyperjump/stagefinder/pkg/utils"
)

// OutputFormat is the format for search result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one line per event.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat returns the OutputFormat named by s. Empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

// WriteSearchResult writes a search result to w in the given format.
func WriteSearchResult(w io.Writer, result *models.SmartSearchResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, result)
	case OutputCompact:
		writeSearchCompact(w, result)
		return nil
	default:
		writeSearchText(w, result)
		return nil
	}
}

// WriteEventDetail writes one event detail record to w.
func WriteEventDetail(w io.Writer, detail *models.EventDetail, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, detail)
	}
	fmt.Fprintf(w, "%s  [%s]\n", detail.Name, detail.ID)
	writeField(w, "Period", period(&detail.Event))
	writeField(w, "Venue", detail.Venue)
	writeField(w, "Area", detail.Area)
	writeField(w, "Genre", detail.Genre)
	writeField(w, "Status", detail.Status)
	writeField(w, "Price", detail.PriceGuidance)
	writeField(w, "Runtime", detail.Runtime)
	writeField(w, "Age", detail.AgeLimit)
	writeField(w, "Cast", detail.Cast)
	writeField(w, "Schedule", detail.Schedule)
	if detail.Synopsis != "" {
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(detail.Synopsis, 400))
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSearchText(w io.Writer, result *models.SmartSearchResult) {
	fmt.Fprintf(w, "\n%s\n", result.Message)
	if result.Level > 0 {
		fmt.Fprintf(w, "Relaxation level: %d\n", result.Level)
	} else {
		fmt.Fprintln(w, "Relaxation level: exhausted")
	}
	for _, cond := range result.RelaxedConditions {
		fmt.Fprintf(w, "  - %s\n", cond)
	}
	fmt.Fprintln(w)

	scores := make(map[string]*models.EventScore, len(result.Scores))
	for _, s := range result.Scores {
		if s.Event != nil {
			scores[s.Event.ID] = s
		}
	}
	for i, event := range result.Events {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "#%d %s  [%s]\n", i+1, utils.Truncate(event.Name, 60), event.ID)
		if s, ok := scores[event.ID]; ok {
			b := s.Breakdown
			fmt.Fprintf(w, "Score: %.1f (price %.0f, date %.0f, genre %.0f, location %.0f, popularity %.0f)\n",
				s.TotalScore, b.PriceScore, b.DateScore, b.GenreScore, b.LocationScore, b.PopularityScore)
		}
		writeField(w, "Period", period(event))
		writeField(w, "Venue", event.Venue)
		writeField(w, "Area", event.Area)
		writeField(w, "Genre", event.Genre)
		writeField(w, "Price", event.PriceGuidance)
		if event.Rank > 0 {
			fmt.Fprintf(w, "Box office rank: %d\n", event.Rank)
		}
	}
	if len(result.Events) > 0 {
		fmt.Fprintln(w)
	}
}

func writeSearchCompact(w io.Writer, result *models.SmartSearchResult) {
	fmt.Fprintf(w, "# level=%d %s\n", result.Level, result.Message)
	for _, event := range result.Events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", event.ID, period(event), event.Area, utils.Truncate(event.Name, 40))
	}
}

func writeField(w io.Writer, label, value string) {
	if value != "" {
		fmt.Fprintf(w, "%s: %s\n", label, value)
	}
}

func period(e *models.Event) string {
	switch {
	case e.StartDate == "" && e.EndDate == "":
		return ""
	case e.StartDate == e.EndDate || e.EndDate == "":
		return e.StartDate
	default:
		return e.StartDate + "~" + e.EndDate
	}
}
