package upstream

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/stagefinder/internal/metrics"
	"github.com/hyperjump/stagefinder/internal/models"
)

// Operation labels used for upstream metrics.
const (
	OpListEvents  = "list_events"
	OpEventDetail = "event_detail"
	OpBoxOffice   = "box_office"
)

// Instrumented wraps a Client and records call counts, outcomes and latency.
type Instrumented struct {
	next    Client
	metrics *metrics.Metrics
}

// NewInstrumented wraps next. A nil m leaves next unobserved.
func NewInstrumented(next Client, m *metrics.Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: m}
}

// ListEvents delegates to the wrapped client.
func (c *Instrumented) ListEvents(ctx context.Context, q ListQuery) ([]*models.Event, error) {
	start := time.Now()
	events, err := c.next.ListEvents(ctx, q)
	c.observe(OpListEvents, start, err)
	return events, err
}

// GetEventDetail delegates to the wrapped client.
func (c *Instrumented) GetEventDetail(ctx context.Context, id string) (*models.EventDetail, error) {
	start := time.Now()
	detail, err := c.next.GetEventDetail(ctx, id)
	c.observe(OpEventDetail, start, err)
	return detail, err
}

// GetBoxOfficeRanking delegates to the wrapped client.
func (c *Instrumented) GetBoxOfficeRanking(ctx context.Context, q BoxOfficeQuery) ([]*models.BoxOfficeEntry, error) {
	start := time.Now()
	entries, err := c.next.GetBoxOfficeRanking(ctx, q)
	c.observe(OpBoxOffice, start, err)
	return entries, err
}

func (c *Instrumented) observe(op string, start time.Time, err error) {
	c.metrics.ObserveUpstreamCall(op, outcome(err), time.Since(start).Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
