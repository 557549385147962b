package relax

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/stagefinder/internal/config"
	"github.com/hyperjump/stagefinder/internal/metrics"
	"github.com/hyperjump/stagefinder/internal/models"
	"github.com/hyperjump/stagefinder/internal/ranking"
	"github.com/hyperjump/stagefinder/internal/upstream"
	"go.uber.org/zap"
)

// ErrInvalidParams is returned by Search for requests rejected before any upstream call.
var ErrInvalidParams = models.ErrInvalidParams

// Engine runs relaxed searches against an upstream listing client.
// It holds no per-search state and is safe for concurrent use.
type Engine struct {
	client   upstream.Client
	config   config.SearchConfig
	analyzer *ranking.QueryAnalyzer
	ranker   *ranking.Ranker
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used for default and relaxed date windows.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMetrics records search outcomes and skipped genres in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an engine. Zero fields in cfg take the config defaults.
func NewEngine(client upstream.Client, cfg *config.SearchConfig, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		client: client,
		config: searchConfig(cfg),
		ranker: ranking.NewRanker(),
		logger: logger,
		now:    time.Now,
	}
	e.analyzer = ranking.NewQueryAnalyzer(e.config.DefaultMinCount)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func searchConfig(cfg *config.SearchConfig) config.SearchConfig {
	out := config.Default().Search
	if cfg == nil {
		return out
	}
	if cfg.DefaultMinCount > 0 {
		out.DefaultMinCount = cfg.DefaultMinCount
	}
	if cfg.ResultCap > 0 {
		out.ResultCap = cfg.ResultCap
	}
	if cfg.DetailLimit > 0 {
		out.DetailLimit = cfg.DetailLimit
	}
	if cfg.FanOutConcurrency > 0 {
		out.FanOutConcurrency = cfg.FanOutConcurrency
	}
	return out
}

// Search validates the request, then tries levels 1 to 4 in order and returns the
// first level with at least MinCount distinct events, ranked and cut to MinCount.
// If no level suffices the result has Level 0 and every level-4 event.
// Upstream failures never surface as errors; only invalid params or a cancelled ctx do.
func (e *Engine) Search(ctx context.Context, mode models.SearchMode, params *models.SearchParams) (*models.SmartSearchResult, error) {
	if params == nil {
		params = &models.SearchParams{}
	}
	if _, err := models.ParseSearchMode(string(mode)); err != nil {
		return nil, err
	}
	if err := params.Validate(mode); err != nil {
		return nil, err
	}

	started := time.Now()
	log := e.logger.With(zap.String("search_id", uuid.NewString()), zap.String("mode", string(mode)))
	analysis := e.analyzer.Analyze(mode, params)
	criteria := ranking.CriteriaFor(analysis)
	today := dateOnly(e.now())
	minCount := analysis.Params.MinCount

	log.Debug("search analyzed",
		zap.String("first_priority", string(analysis.Priorities.First)),
		zap.Int("min_count", minCount))

	var (
		events []*models.Event
		p      plan
	)
	for level := 1; level <= MaxLevel; level++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p = buildPlan(analysis, level, StrategyFor(mode, level), today)
		log.Debug("trying relaxation level",
			zap.Int("level", level),
			zap.Strings("genres", p.genres),
			zap.String("sido", p.sido),
			zap.String("gugun", p.gugun),
			zap.Strings("relaxed", p.relaxed))

		fetched, err := e.fetchLevel(ctx, mode, p, today, level == MaxLevel, log)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			log.Warn("relaxation level failed, treating as empty", zap.Int("level", level), zap.Error(err))
			fetched = []*models.Event{}
		}
		events = fetched

		if len(events) >= minCount {
			result := e.assemble(analysis, criteria, events, level, p.relaxed)
			e.finish(log, mode, result, started)
			return result, nil
		}
		log.Debug("level below minimum", zap.Int("level", level), zap.Int("found", len(events)))
	}

	scores := e.ranker.ScoreAndSort(events, analysis.Priorities, criteria)
	result := &models.SmartSearchResult{
		Events:            ranking.Events(scores),
		Level:             0,
		RelaxedConditions: p.relaxed,
		Message:           failureMessage(len(events), minCount),
		Scores:            scores,
	}
	e.finish(log, mode, result, started)
	return result, nil
}

// EventDetail returns the upstream detail record for id.
func (e *Engine) EventDetail(ctx context.Context, id string) (*models.EventDetail, error) {
	detail, err := e.client.GetEventDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("event detail %s: %w", id, err)
	}
	return detail, nil
}

func (e *Engine) assemble(a *ranking.QueryAnalysis, criteria *ranking.Criteria, events []*models.Event, level int, relaxed []string) *models.SmartSearchResult {
	scores := ranking.TopN(e.ranker.ScoreAndSort(events, a.Priorities, criteria), a.Params.MinCount)
	message := exactMessage(len(scores))
	if level > 1 {
		message = relaxedMessage(len(scores), level, relaxed)
	}
	return &models.SmartSearchResult{
		Events:            ranking.Events(scores),
		Level:             level,
		RelaxedConditions: relaxed,
		Message:           message,
		Scores:            scores,
	}
}

func (e *Engine) finish(log *zap.Logger, mode models.SearchMode, result *models.SmartSearchResult, started time.Time) {
	elapsed := time.Since(started)
	e.metrics.ObserveSearch(string(mode), result.Level, elapsed.Seconds())
	log.Info("search finished",
		zap.Int("level", result.Level),
		zap.Int("events", len(result.Events)),
		zap.Duration("elapsed", elapsed))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
