package relax

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/stagefinder/internal/codes"
	"github.com/hyperjump/stagefinder/internal/models"
	"github.com/hyperjump/stagefinder/internal/ranking"
)

// fixedWindowDays is the internal window of free-event and trending searches.
const fixedWindowDays = 30

// plan is the concrete query set for one level. An empty genre means no genre filter.
type plan struct {
	level  int
	genres []string
	sido   string
	gugun  string
	start  string
	end    string
	// relaxed is the human-readable log of what this level widened.
	relaxed []string
}

// buildPlan applies s to the analyzed request. Each level starts from the original
// request, so relaxations never compound across levels except as the policy table says.
func buildPlan(a *ranking.QueryAnalysis, level int, s Strategy, today time.Time) plan {
	p := plan{
		level:   level,
		sido:    a.Params.SidoCode,
		gugun:   a.Params.GugunCode,
		relaxed: []string{},
	}
	p.start, p.end = requestWindow(a.Params, today)

	// the box-office feed filters by province only, so a district narrows to
	// its province at every level
	if a.Mode == models.ModeTrending && p.gugun != "" {
		if p.sido == "" {
			p.sido = codes.ProvinceOf(p.gugun)
		}
		p.gugun = ""
	}

	switch s.Location {
	case LocationProvince, LocationProvinceOrNationwide:
		if p.gugun != "" {
			if p.sido == "" {
				p.sido = codes.ProvinceOf(p.gugun)
			}
			p.relaxed = append(p.relaxed, fmt.Sprintf("location: district %s → full province %s",
				codes.RegionLabel(p.gugun), codes.RegionLabel(p.sido)))
			p.gugun = ""
		} else if p.sido == "" && s.Location == LocationProvinceOrNationwide {
			p.relaxed = append(p.relaxed, "location: nationwide (no region filter)")
		}
	}

	genre := a.Params.GenreCode
	switch s.Genre {
	case GenreNone:
		p.genres = []string{genre}
	case GenreOneRelated, GenreAllRelated:
		p.genres, p.relaxed = expandGenre(genre, s.Genre, p.relaxed)
	case GenreAll:
		p.genres = append([]string(nil), codes.AllGenres...)
		p.relaxed = append(p.relaxed, fmt.Sprintf("genre: all %d genres", len(p.genres)))
	}

	if s.Date == DateMonth {
		if a.Mode == models.ModeByLocation {
			p.start = models.FormatDate(today)
			monthOut := models.FormatDate(today.AddDate(0, 1, 0))
			p.end = monthOut
			if a.Params.EndDate > monthOut {
				p.end = a.Params.EndDate
			}
			p.relaxed = append(p.relaxed, fmt.Sprintf("date: expanded to %s through %s", p.start, p.end))
		} else {
			// the mode's own window is fixed; the note is informational
			p.relaxed = append(p.relaxed, fmt.Sprintf("date: window treated as %d days from today", fixedWindowDays))
		}
	}

	return p
}

// expandGenre adds related genres. A genre with no known relations is dropped
// so the level queries without a genre filter.
func expandGenre(genre string, mode GenreExpansion, relaxed []string) ([]string, []string) {
	if genre == "" {
		return []string{""}, relaxed
	}
	related := codes.RelatedGenres(genre)
	if len(related) == 0 {
		return []string{""}, append(relaxed, fmt.Sprintf("genre: dropped filter %s (no related genres)", codes.GenreLabel(genre)))
	}
	if mode == GenreOneRelated {
		related = related[:1]
		return []string{genre, related[0]}, append(relaxed,
			fmt.Sprintf("genre: %s + one related genre (%s)", codes.GenreLabel(genre), codes.GenreLabel(related[0])))
	}
	names := make([]string, 0, len(related))
	for _, g := range related {
		names = append(names, codes.GenreLabel(g))
	}
	return append([]string{genre}, related...), append(relaxed,
		fmt.Sprintf("genre: %s + all related genres (%s)", codes.GenreLabel(genre), strings.Join(names, ", ")))
}

// requestWindow returns the by-location date window: the caller's dates, with a missing
// start defaulting to today and a missing end to one month after start.
func requestWindow(p ranking.ParsedParams, today time.Time) (string, string) {
	start, end := p.StartDate, p.EndDate
	if start == "" {
		start = models.FormatDate(today)
		if end != "" && end < start {
			start = end
		}
	}
	if end == "" {
		from, err := models.ParseDate(start)
		if err != nil {
			from = today
		}
		end = models.FormatDate(from.AddDate(0, 1, 0))
	}
	return start, end
}

// fixedWindow returns today through fixedWindowDays ahead, for free-event search.
func fixedWindow(today time.Time) (string, string) {
	return models.FormatDate(today), models.FormatDate(today.AddDate(0, 0, fixedWindowDays))
}

// trailingWindow returns fixedWindowDays ago through today, for the box-office feed.
func trailingWindow(today time.Time) (string, string) {
	return models.FormatDate(today.AddDate(0, 0, -fixedWindowDays)), models.FormatDate(today)
}
