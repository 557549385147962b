package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hyperjump/stagefinder/internal/codes"
	"github.com/hyperjump/stagefinder/internal/models"
	"github.com/hyperjump/stagefinder/internal/storage"
	"github.com/hyperjump/stagefinder/internal/upstream"
	"go.uber.org/zap"
)

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Mode   models.SearchMode    `json:"mode"`
	Params *models.SearchParams `json:"params"`
}

// GenreInfo describes one genre code.
type GenreInfo struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Related []string `json:"related"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Mode == "" {
		req.Mode = models.ModeByLocation
	}
	s.search(w, r, req.Mode, req.Params)
}

// handleSearchQuery serves GET /api/v1/search/{mode} with params in the query string.
func (s *Server) handleSearchQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := &models.SearchParams{
		GenreCode: q.Get("genre_code"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		SidoCode:  q.Get("sido_code"),
		GugunCode: q.Get("gugun_code"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		params.Limit = limit
	}
	s.search(w, r, models.SearchMode(chi.URLParam(r, "mode")), params)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, mode models.SearchMode, params *models.SearchParams) {
	s.logger.Debug("search request", zap.String("mode", string(mode)), zap.Any("params", params))
	start := time.Now()
	result, err := s.searcher.Search(r.Context(), mode, params)
	s.recordSearch(r.Context(), mode, params, result, err, time.Since(start))
	if err != nil {
		s.respondErr(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// recordSearch appends the outcome to the history log, if one is configured.
// Write failures are logged and never reach the caller.
func (s *Server) recordSearch(ctx context.Context, mode models.SearchMode, params *models.SearchParams, result *models.SmartSearchResult, searchErr error, elapsed time.Duration) {
	if s.history == nil {
		return
	}
	rec := &storage.SearchRecord{
		ID:         uuid.New().String(),
		Mode:       string(mode),
		Params:     "{}",
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  time.Now(),
	}
	if params != nil {
		if b, err := json.Marshal(params); err == nil {
			rec.Params = string(b)
		}
	}
	if searchErr != nil {
		rec.Error = searchErr.Error()
	} else if result != nil {
		rec.Level = result.Level
		rec.Found = len(result.Events)
	}

	err := s.history.Record(context.WithoutCancel(ctx), rec)
	s.metrics.ObserveHistoryWrite(err)
	if err != nil {
		s.logger.Warn("failed to record search", zap.String("mode", rec.Mode), zap.Error(err))
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.respondErr(w, "history failed", err)
		return
	}
	if records == nil {
		records = []*storage.SearchRecord{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"searches": records})
}

func (s *Server) handleEventDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	detail, err := s.searcher.EventDetail(r.Context(), id)
	if err != nil {
		s.respondErr(w, "event detail failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	genres := make([]GenreInfo, 0, len(codes.AllGenres))
	for _, code := range codes.AllGenres {
		related := codes.RelatedGenres(code)
		if related == nil {
			related = []string{}
		}
		genres = append(genres, GenreInfo{Code: code, Name: codes.GenreLabel(code), Related: related})
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"genres": genres})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidParams):
		return http.StatusBadRequest
	case errors.Is(err, upstream.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, upstream.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondErr(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, zap.Error(err))
	} else {
		s.logger.Debug(msg, zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
