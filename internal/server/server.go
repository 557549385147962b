// Package server provides the HTTP API for stagefinder.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/stagefinder/internal/config"
	"github.com/hyperjump/stagefinder/internal/metrics"
	"github.com/hyperjump/stagefinder/internal/models"
	"github.com/hyperjump/stagefinder/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Searcher runs relaxed searches and detail lookups.
type Searcher interface {
	Search(ctx context.Context, mode models.SearchMode, params *models.SearchParams) (*models.SmartSearchResult, error)
	EventDetail(ctx context.Context, id string) (*models.EventDetail, error)
}

// Server is the HTTP server for the stagefinder API.
type Server struct {
	searcher Searcher
	gatherer prometheus.Gatherer
	history  storage.HistoryStore
	metrics  *metrics.Metrics
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithHistory records every served search in store and exposes /api/v1/history.
func WithHistory(store storage.HistoryStore) Option {
	return func(s *Server) { s.history = store }
}

// WithMetrics sets the collectors for history writes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// NewServer creates a server. A nil gatherer disables the /metrics endpoint.
func NewServer(searcher Searcher, gatherer prometheus.Gatherer, cfg *config.ServerConfig, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		searcher: searcher,
		gatherer: gatherer,
		config:   cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/search/{mode}", s.handleSearchQuery)
		r.Get("/events/{id}", s.handleEventDetail)
		r.Get("/genres", s.handleGenres)
		if s.history != nil {
			r.Get("/history", s.handleHistory)
		}
	})
	r.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
