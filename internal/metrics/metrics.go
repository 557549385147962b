// Package metrics defines the Prometheus collectors for searches and upstream calls.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricSearches             = "stagefinder_searches_total"
	MetricSearchDuration       = "stagefinder_search_duration_seconds"
	MetricRelaxationLevel      = "stagefinder_relaxation_level"
	MetricUpstreamCalls        = "stagefinder_upstream_calls_total"
	MetricUpstreamCallDuration = "stagefinder_upstream_call_duration_seconds"
	MetricFanOutGenresSkipped  = "stagefinder_fanout_genres_skipped_total"
	MetricHistoryWrites        = "stagefinder_history_writes_total"
)

// Upstream call outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	searches             *prometheus.CounterVec
	searchDuration       *prometheus.HistogramVec
	relaxationLevel      *prometheus.HistogramVec
	upstreamCalls        *prometheus.CounterVec
	upstreamCallDuration *prometheus.HistogramVec
	genresSkipped        prometheus.Counter
	historyWrites        *prometheus.CounterVec
}

// NewMetrics creates the collectors without registering them.
func NewMetrics() *Metrics {
	return &Metrics{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSearches,
			Help: "Total number of searches by mode and satisfying relaxation level (0 = none)",
		}, []string{"mode", "level"}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricSearchDuration,
			Help:    "Histogram of end-to-end search latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		relaxationLevel: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricRelaxationLevel,
			Help:    "Distribution of the relaxation level that satisfied a search",
			Buckets: []float64{0, 1, 2, 3, 4},
		}, []string{"mode"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricUpstreamCalls,
			Help: "Total number of upstream listing calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		upstreamCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricUpstreamCallDuration,
			Help:    "Histogram of upstream call latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		genresSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricFanOutGenresSkipped,
			Help: "Total number of genres skipped during all-genre fan-out because the upstream call failed",
		}),
		historyWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHistoryWrites,
			Help: "Total number of search history writes by outcome",
		}, []string{"outcome"}),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.searches,
		m.searchDuration,
		m.relaxationLevel,
		m.upstreamCalls,
		m.upstreamCallDuration,
		m.genresSkipped,
		m.historyWrites,
	}
}

// ObserveSearch records one finished search.
func (m *Metrics) ObserveSearch(mode string, level int, seconds float64) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(mode, strconv.Itoa(level)).Inc()
	m.searchDuration.WithLabelValues(mode).Observe(seconds)
	m.relaxationLevel.WithLabelValues(mode).Observe(float64(level))
}

// ObserveUpstreamCall records one upstream call.
func (m *Metrics) ObserveUpstreamCall(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamCalls.WithLabelValues(operation, outcome).Inc()
	m.upstreamCallDuration.WithLabelValues(operation).Observe(seconds)
}

// IncGenresSkipped counts a genre dropped from an all-genre fan-out.
func (m *Metrics) IncGenresSkipped() {
	if m == nil {
		return
	}
	m.genresSkipped.Inc()
}

// ObserveHistoryWrite records one search history write.
func (m *Metrics) ObserveHistoryWrite(err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.historyWrites.WithLabelValues(outcome).Inc()
}
