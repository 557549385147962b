package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/stagefinder/internal/config"
	"github.com/hyperjump/stagefinder/internal/metrics"
	"github.com/hyperjump/stagefinder/internal/models"
	"github.com/hyperjump/stagefinder/internal/relax"
	"github.com/hyperjump/stagefinder/internal/storage"
	"github.com/hyperjump/stagefinder/internal/upstream"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type mockSearcher struct {
	result    *models.SmartSearchResult
	detail    *models.EventDetail
	err       error
	gotMode   models.SearchMode
	gotParams *models.SearchParams
}

func (m *mockSearcher) Search(_ context.Context, mode models.SearchMode, params *models.SearchParams) (*models.SmartSearchResult, error) {
	m.gotMode = mode
	m.gotParams = params
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockSearcher) EventDetail(_ context.Context, id string) (*models.EventDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.detail, nil
}

func newTestServer(s Searcher, g prometheus.Gatherer) http.Handler {
	return NewServer(s, g, &config.ServerConfig{Host: "localhost", Port: 8080}, zap.NewNop()).Handler()
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, target, body)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandleSearch(t *testing.T) {
	mock := &mockSearcher{result: &models.SmartSearchResult{
		Events:            []*models.Event{{ID: "PF1", Name: "햄릿"}},
		Level:             1,
		RelaxedConditions: []string{},
		Message:           "Found 1 events matching your exact conditions.",
	}}
	h := newTestServer(mock, nil)

	body := `{"mode":"free-events","params":{"genre_code":"AAAA","sido_code":"11","limit":1}}`
	w := do(t, h, http.MethodPost, "/api/v1/search", strings.NewReader(body))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	if mock.gotMode != models.ModeFreeEvents {
		t.Errorf("mode: got %q", mock.gotMode)
	}
	if mock.gotParams == nil || mock.gotParams.GenreCode != "AAAA" || mock.gotParams.Limit != 1 {
		t.Errorf("params: got %+v", mock.gotParams)
	}
	var out models.SmartSearchResult
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Level != 1 || len(out.Events) != 1 || out.Events[0].ID != "PF1" {
		t.Errorf("result: got %+v", out)
	}
}

func TestHandleSearch_DefaultMode(t *testing.T) {
	mock := &mockSearcher{result: &models.SmartSearchResult{}}
	h := newTestServer(mock, nil)

	w := do(t, h, http.MethodPost, "/api/v1/search", strings.NewReader(`{"params":{"genre_code":"AAAA"}}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if mock.gotMode != models.ModeByLocation {
		t.Errorf("mode: got %q, want by-location", mock.gotMode)
	}
}

func TestHandleSearch_InvalidBody(t *testing.T) {
	h := newTestServer(&mockSearcher{}, nil)
	w := do(t, h, http.MethodPost, "/api/v1/search", strings.NewReader("{not json"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleSearchQuery(t *testing.T) {
	mock := &mockSearcher{result: &models.SmartSearchResult{}}
	h := newTestServer(mock, nil)

	w := do(t, h, http.MethodGet, "/api/v1/search/trending?genre_code=GGGA&limit=5&start_date=20250101", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if mock.gotMode != models.ModeTrending {
		t.Errorf("mode: got %q", mock.gotMode)
	}
	want := models.SearchParams{GenreCode: "GGGA", StartDate: "20250101", Limit: 5}
	if *mock.gotParams != want {
		t.Errorf("params: got %+v, want %+v", *mock.gotParams, want)
	}

	w = do(t, h, http.MethodGet, "/api/v1/search/trending?limit=many", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status: got %d, want 400", w.Code)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid params", fmt.Errorf("%w: genre_code is required", models.ErrInvalidParams), http.StatusBadRequest},
		{"not found", fmt.Errorf("event detail PF9: %w", upstream.ErrNotFound), http.StatusNotFound},
		{"upstream down", upstream.ErrUpstreamUnavailable, http.StatusBadGateway},
		{"other", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&mockSearcher{err: tt.err}, nil)

			w := do(t, h, http.MethodPost, "/api/v1/search", strings.NewReader(`{"mode":"by-location"}`))
			if w.Code != tt.want {
				t.Errorf("search status: got %d, want %d", w.Code, tt.want)
			}
			w = do(t, h, http.MethodGet, "/api/v1/events/PF9", nil)
			if w.Code != tt.want {
				t.Errorf("detail status: got %d, want %d", w.Code, tt.want)
			}
			var out map[string]string
			if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
				t.Fatal(err)
			}
			if out["error"] == "" {
				t.Error("expected error message in body")
			}
		})
	}
}

func TestHandleEventDetail(t *testing.T) {
	mock := &mockSearcher{detail: &models.EventDetail{
		Event:   models.Event{ID: "PF1", Name: "햄릿"},
		Runtime: "2시간",
	}}
	h := newTestServer(mock, nil)

	w := do(t, h, http.MethodGet, "/api/v1/events/PF1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out models.EventDetail
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.ID != "PF1" || out.Runtime != "2시간" {
		t.Errorf("detail: got %+v", out)
	}
}

func TestHandleGenres(t *testing.T) {
	h := newTestServer(&mockSearcher{}, nil)
	w := do(t, h, http.MethodGet, "/api/v1/genres", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Genres []GenreInfo `json:"genres"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Genres) != 9 {
		t.Fatalf("genres: got %d, want 9", len(out.Genres))
	}
	if out.Genres[0].Code != "AAAA" || out.Genres[0].Name != "연극" || len(out.Genres[0].Related) == 0 {
		t.Errorf("first genre: got %+v", out.Genres[0])
	}
}

func TestHandleHealth(t *testing.T) {
	h := newTestServer(&mockSearcher{}, nil)
	w := do(t, h, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body: got %s", w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(&mockSearcher{}, nil)
	if w := do(t, h, http.MethodGet, "/metrics", nil); w.Code != http.StatusNotFound {
		t.Errorf("metrics without gatherer: got %d, want 404", w.Code)
	}

	m := metrics.NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatal(err)
	}
	m.ObserveSearch(string(models.ModeTrending), 2, 0.05)

	h = newTestServer(&mockSearcher{}, reg)
	w := do(t, h, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), metrics.MetricSearches) {
		t.Errorf("metrics body missing %s", metrics.MetricSearches)
	}
}

// failingHistory rejects every write.
type failingHistory struct {
	storage.HistoryStore
}

func (failingHistory) Record(context.Context, *storage.SearchRecord) error {
	return fmt.Errorf("database is locked")
}

func TestSearchHistory(t *testing.T) {
	history, err := storage.NewSQLiteHistory(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer history.Close()

	mock := &mockSearcher{result: &models.SmartSearchResult{
		Events: []*models.Event{{ID: "PF1"}, {ID: "PF2"}},
		Level:  0,
	}}
	m := metrics.NewMetrics()
	h := NewServer(mock, nil, &config.ServerConfig{}, zap.NewNop(), WithHistory(history), WithMetrics(m)).Handler()

	w := do(t, h, http.MethodPost, "/api/v1/search", strings.NewReader(`{"mode":"free-events","params":{"genre_code":"AAAA","limit":5}}`))
	if w.Code != http.StatusOK {
		t.Fatalf("search status: got %d", w.Code)
	}
	mock.err = fmt.Errorf("%w: genre_code is required", models.ErrInvalidParams)
	w = do(t, h, http.MethodGet, "/api/v1/search/by-location", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("failed search status: got %d", w.Code)
	}

	w = do(t, h, http.MethodGet, "/api/v1/history?limit=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history status: got %d", w.Code)
	}
	var out struct {
		Searches []*storage.SearchRecord `json:"searches"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Searches) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out.Searches))
	}
	byMode := map[string]*storage.SearchRecord{}
	for _, rec := range out.Searches {
		byMode[rec.Mode] = rec
	}
	free := byMode[string(models.ModeFreeEvents)]
	if free == nil || free.Found != 2 || free.Level != 0 || free.Error != "" {
		t.Errorf("free-events record: %+v", free)
	}
	if free != nil && !strings.Contains(free.Params, `"genre_code":"AAAA"`) {
		t.Errorf("params: got %s", free.Params)
	}
	failed := byMode[string(models.ModeByLocation)]
	if failed == nil || !strings.Contains(failed.Error, "genre_code is required") {
		t.Errorf("failed record: %+v", failed)
	}

	if w := do(t, h, http.MethodGet, "/api/v1/history?limit=0", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status: got %d, want 400", w.Code)
	}
}

func TestSearchHistory_WriteFailureDoesNotFailSearch(t *testing.T) {
	mock := &mockSearcher{result: &models.SmartSearchResult{Level: 1}}
	h := NewServer(mock, nil, &config.ServerConfig{}, zap.NewNop(), WithHistory(failingHistory{})).Handler()

	w := do(t, h, http.MethodPost, "/api/v1/search", strings.NewReader(`{"mode":"trending"}`))
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", w.Code)
	}
}

func TestHistoryRouteDisabled(t *testing.T) {
	h := newTestServer(&mockSearcher{}, nil)
	if w := do(t, h, http.MethodGet, "/api/v1/history", nil); w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestSearchOverCatalog(t *testing.T) {
	entry := func(id, genre, gugun string) *upstream.CatalogEntry {
		return &upstream.CatalogEntry{
			EventDetail: models.EventDetail{Event: models.Event{
				ID:        id,
				Name:      "공연 " + id,
				Genre:     "연극",
				StartDate: "20250105",
				EndDate:   "20250120",
			}},
			GenreCode: genre,
			GugunCode: gugun,
		}
	}
	catalog, err := upstream.NewCatalogFromEntries([]*upstream.CatalogEntry{
		entry("PF1", "AAAA", "1168"),
		entry("PF2", "AAAA", "1168"),
		entry("PF3", "AAAA", "1111"),
		entry("PF4", "GGGA", "1168"),
	}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer catalog.Close()

	clock := func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	engine := relax.NewEngine(catalog, nil, zap.NewNop(), relax.WithClock(clock))
	h := newTestServer(engine, nil)

	body, _ := json.Marshal(SearchRequest{
		Mode:   models.ModeByLocation,
		Params: &models.SearchParams{GenreCode: "AAAA", GugunCode: "1168", Limit: 3},
	})
	w := do(t, h, http.MethodPost, "/api/v1/search", bytes.NewReader(body))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var out models.SmartSearchResult
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Level != 2 {
		t.Errorf("level: got %d, want 2", out.Level)
	}
	if len(out.Events) != 3 {
		t.Errorf("events: got %d, want 3", len(out.Events))
	}

	w = do(t, h, http.MethodPost, "/api/v1/search", strings.NewReader(`{"mode":"by-location","params":{}}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing genre status: got %d, want 400", w.Code)
	}
	w = do(t, h, http.MethodGet, "/api/v1/events/PF404", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown event status: got %d, want 404", w.Code)
	}
}
