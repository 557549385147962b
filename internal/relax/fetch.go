package relax

import (
	"context"
	"strings"
	"time"

	"github.com/hyperjump/stagefinder/internal/models"
	"github.com/hyperjump/stagefinder/internal/ranking"
	"github.com/hyperjump/stagefinder/internal/upstream"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// genreResult is one genre's slot in a fan-out.
type genreResult struct {
	events []*models.Event
	err    error
}

// fetchLevel runs one call per planned genre and merges the results in genre order.
// With tolerant set, failing genres are skipped; otherwise the first failure fails the level.
func (e *Engine) fetchLevel(ctx context.Context, mode models.SearchMode, p plan, today time.Time, tolerant bool, log *zap.Logger) ([]*models.Event, error) {
	results := make([]genreResult, len(p.genres))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.FanOutConcurrency)
	for i, genre := range p.genres {
		g.Go(func() error {
			events, err := e.fetchGenre(gctx, mode, genre, p, today, log)
			results[i] = genreResult{events: events, err: err}
			if err != nil && !tolerant {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batches := make([][]*models.Event, 0, len(results))
	for i, r := range results {
		if r.err != nil {
			log.Warn("skipping genre after upstream failure",
				zap.Int("level", p.level),
				zap.String("genre", p.genres[i]),
				zap.Error(r.err))
			e.metrics.IncGenresSkipped()
			continue
		}
		batches = append(batches, r.events)
	}
	return mergeUnique(batches...), nil
}

// fetchGenre issues the mode-specific call for one genre.
func (e *Engine) fetchGenre(ctx context.Context, mode models.SearchMode, genre string, p plan, today time.Time, log *zap.Logger) ([]*models.Event, error) {
	switch mode {
	case models.ModeFreeEvents:
		return e.fetchFree(ctx, genre, p, today, log)
	case models.ModeTrending:
		return e.fetchTrending(ctx, genre, p, today)
	default:
		return e.client.ListEvents(ctx, upstream.ListQuery{
			GenreCode: genre,
			StartDate: p.start,
			EndDate:   p.end,
			SidoCode:  p.sido,
			GugunCode: p.gugun,
			Rows:      e.config.ResultCap,
		})
	}
}

// fetchFree lists the coming month and keeps events whose detail names a free price.
// Detail lookups are bounded by DetailLimit; a failed lookup drops only that event.
func (e *Engine) fetchFree(ctx context.Context, genre string, p plan, today time.Time, log *zap.Logger) ([]*models.Event, error) {
	start, end := fixedWindow(today)
	listed, err := e.client.ListEvents(ctx, upstream.ListQuery{
		GenreCode: genre,
		StartDate: start,
		EndDate:   end,
		SidoCode:  p.sido,
		GugunCode: p.gugun,
		Rows:      e.config.ResultCap,
	})
	if err != nil {
		return nil, err
	}
	if len(listed) > e.config.DetailLimit {
		listed = listed[:e.config.DetailLimit]
	}

	kept := make([]*models.Event, len(listed))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.FanOutConcurrency)
	for i, event := range listed {
		g.Go(func() error {
			detail, err := e.client.GetEventDetail(gctx, event.ID)
			if err != nil {
				log.Debug("detail lookup failed", zap.String("event_id", event.ID), zap.Error(err))
				return nil
			}
			if !ranking.IsFreePrice(detail.PriceGuidance) {
				return nil
			}
			free := *event
			free.PriceGuidance = detail.PriceGuidance
			kept[i] = &free
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*models.Event, 0, len(kept))
	for _, ev := range kept {
		if ev != nil {
			out = append(out, ev)
		}
	}
	return out, nil
}

// fetchTrending reads the box-office feed of the trailing month and derives popularity from rank.
func (e *Engine) fetchTrending(ctx context.Context, genre string, p plan, today time.Time) ([]*models.Event, error) {
	start, end := trailingWindow(today)
	entries, err := e.client.GetBoxOfficeRanking(ctx, upstream.BoxOfficeQuery{
		GenreCode: genre,
		SidoCode:  p.sido,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return nil, err
	}
	events := make([]*models.Event, 0, len(entries))
	for _, entry := range entries {
		events = append(events, boxOfficeEvent(entry))
	}
	return events, nil
}

func boxOfficeEvent(entry *models.BoxOfficeEntry) *models.Event {
	popularity := ranking.PopularityFromRank(entry.Rank)
	start, end := periodDates(entry.Period)
	return &models.Event{
		ID:         entry.EventID,
		Name:       entry.Name,
		StartDate:  start,
		EndDate:    end,
		Venue:      entry.Venue,
		Area:       entry.Area,
		Genre:      entry.Genre,
		Poster:     entry.Poster,
		Popularity: &popularity,
		Rank:       entry.Rank,
	}
}

// periodDates splits "2025.01.01~2025.03.01" into YYYYMMDD start and end.
func periodDates(period string) (string, string) {
	from, to, found := strings.Cut(period, "~")
	clean := strings.NewReplacer(".", "", "-", "", " ", "")
	start := clean.Replace(from)
	if !found {
		return start, start
	}
	return start, clean.Replace(to)
}

// mergeUnique concatenates batches in order, keeping the first event seen for each id.
func mergeUnique(batches ...[]*models.Event) []*models.Event {
	seen := make(map[string]bool)
	var merged []*models.Event
	for _, batch := range batches {
		for _, event := range batch {
			if event == nil || seen[event.ID] {
				continue
			}
			seen[event.ID] = true
			merged = append(merged, event)
		}
	}
	if merged == nil {
		merged = []*models.Event{}
	}
	return merged
}
