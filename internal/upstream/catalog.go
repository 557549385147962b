package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/stagefinder/internal/models"
	"go.uber.org/zap"
)

// CatalogEntry is one performance in a local catalog file. The codes drive filtering;
// the embedded detail is what the client returns.
type CatalogEntry struct {
	models.EventDetail
	GenreCode     string `json:"genre_code"`
	SidoCode      string `json:"sido_code,omitempty"`
	GugunCode     string `json:"gugun_code,omitempty"`
	BoxOfficeRank int    `json:"box_office_rank,omitempty"`
	SeatCount     int    `json:"seat_count,omitempty"`
}

// CatalogFile is the on-disk JSON layout of a local catalog.
type CatalogFile struct {
	Events []*CatalogEntry `json:"events"`
}

// Catalog serves listing queries from a JSON file indexed in memory with bleve.
// Results are returned in file order.
type Catalog struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	index   bleve.Index
	entries map[string]*CatalogEntry
}

// NewCatalog loads and indexes the catalog file at path.
func NewCatalog(path string, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{path: path, logger: logger}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewCatalogFromEntries indexes entries without a backing file. Reload is a no-op.
func NewCatalogFromEntries(entries []*CatalogEntry, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{logger: logger}
	index, byID, err := buildCatalogIndex(entries)
	if err != nil {
		return nil, err
	}
	c.index = index
	c.entries = byID
	return c, nil
}

// Path returns the backing file path, empty for in-memory catalogs.
func (c *Catalog) Path() string {
	return c.path
}

// Reload re-reads the catalog file and swaps in a fresh index.
// On error the previous index stays in place.
func (c *Catalog) Reload() error {
	if c.path == "" {
		return nil
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	var file CatalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse catalog %s: %w", c.path, err)
	}
	index, byID, err := buildCatalogIndex(file.Events)
	if err != nil {
		return err
	}

	c.mu.Lock()
	old := c.index
	c.index = index
	c.entries = byID
	c.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	c.logger.Info("catalog loaded", zap.String("path", c.path), zap.Int("events", len(byID)))
	return nil
}

// Close releases the index.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index == nil {
		return nil
	}
	err := c.index.Close()
	c.index = nil
	return err
}

// Len returns the number of indexed events.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func buildCatalogIndex(entries []*CatalogEntry) (bleve.Index, map[string]*CatalogEntry, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	keyword := bleve.NewKeywordFieldMapping()
	numeric := bleve.NewNumericFieldMapping()
	for _, field := range []string{"genre_code", "sido_code", "gugun_code"} {
		docMapping.AddFieldMappingsAt(field, keyword)
	}
	for _, field := range []string{"start", "end", "seq", "box_office_rank"} {
		docMapping.AddFieldMappingsAt(field, numeric)
	}
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, nil, fmt.Errorf("create catalog index: %w", err)
	}

	byID := make(map[string]*CatalogEntry, len(entries))
	batch := index.NewBatch()
	for seq, entry := range entries {
		if entry == nil || entry.ID == "" {
			continue
		}
		if _, dup := byID[entry.ID]; dup {
			continue
		}
		doc, err := catalogDocument(seq, entry)
		if err != nil {
			_ = index.Close()
			return nil, nil, err
		}
		if err := batch.Index(entry.ID, doc); err != nil {
			_ = index.Close()
			return nil, nil, fmt.Errorf("index catalog event %s: %w", entry.ID, err)
		}
		byID[entry.ID] = entry
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, nil, fmt.Errorf("index catalog: %w", err)
	}
	return index, byID, nil
}

func catalogDocument(seq int, entry *CatalogEntry) (map[string]interface{}, error) {
	start, err := dateNumber(entry.StartDate)
	if err != nil {
		return nil, fmt.Errorf("catalog event %s: %w", entry.ID, err)
	}
	end := start
	if entry.EndDate != "" {
		if end, err = dateNumber(entry.EndDate); err != nil {
			return nil, fmt.Errorf("catalog event %s: %w", entry.ID, err)
		}
	}
	sido := entry.SidoCode
	if sido == "" && len(entry.GugunCode) >= 2 {
		sido = entry.GugunCode[:2]
	}
	return map[string]interface{}{
		"genre_code":      entry.GenreCode,
		"sido_code":       sido,
		"gugun_code":      entry.GugunCode,
		"start":           start,
		"end":             end,
		"seq":             float64(seq),
		"box_office_rank": float64(entry.BoxOfficeRank),
	}, nil
}

func dateNumber(s string) (float64, error) {
	if _, err := models.ParseDate(s); err != nil {
		return 0, err
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q", s)
	}
	return n, nil
}

func termQuery(field, value string) blevequery.Query {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}

func rangeQuery(field string, min, max *float64) blevequery.Query {
	inclusive := true
	q := bleve.NewNumericRangeInclusiveQuery(min, max, &inclusive, &inclusive)
	q.SetField(field)
	return q
}

// overlapQuery matches events running at any time between start and end (YYYYMMDD, either may be empty).
func overlapQuery(start, end string) ([]blevequery.Query, error) {
	var queries []blevequery.Query
	if end != "" {
		n, err := dateNumber(end)
		if err != nil {
			return nil, err
		}
		queries = append(queries, rangeQuery("start", nil, &n))
	}
	if start != "" {
		n, err := dateNumber(start)
		if err != nil {
			return nil, err
		}
		queries = append(queries, rangeQuery("end", &n, nil))
	}
	return queries, nil
}

func (c *Catalog) search(ctx context.Context, queries []blevequery.Query, size int, sortField string) ([]*CatalogEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.index == nil {
		return nil, fmt.Errorf("%w: catalog closed", ErrUpstreamUnavailable)
	}

	var q blevequery.Query = bleve.NewMatchAllQuery()
	if len(queries) > 0 {
		q = bleve.NewConjunctionQuery(queries...)
	}
	req := bleve.NewSearchRequestOptions(q, size, 0, false)
	req.SortBy([]string{sortField, "seq"})

	res, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: catalog search: %v", ErrUpstreamUnavailable, err)
	}
	out := make([]*CatalogEntry, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if entry, ok := c.entries[hit.ID]; ok {
			out = append(out, entry)
		}
	}
	return out, nil
}

// ListEvents returns catalog events matching the genre, region and overlapping dates of q.
func (c *Catalog) ListEvents(ctx context.Context, q ListQuery) ([]*models.Event, error) {
	queries, err := overlapQuery(q.StartDate, q.EndDate)
	if err != nil {
		return nil, fmt.Errorf("catalog list: %w", err)
	}
	if q.GenreCode != "" {
		queries = append(queries, termQuery("genre_code", q.GenreCode))
	}
	if q.SidoCode != "" {
		queries = append(queries, termQuery("sido_code", q.SidoCode))
	}
	if q.GugunCode != "" {
		queries = append(queries, termQuery("gugun_code", q.GugunCode))
	}

	entries, err := c.search(ctx, queries, rowsOrDefault(q.Rows), "seq")
	if err != nil {
		return nil, err
	}
	events := make([]*models.Event, 0, len(entries))
	for _, entry := range entries {
		event := entry.Event
		events = append(events, &event)
	}
	return events, nil
}

// GetEventDetail returns a copy of the catalog record for id.
func (c *Catalog) GetEventDetail(ctx context.Context, id string) (*models.EventDetail, error) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	detail := entry.EventDetail
	return &detail, nil
}

// GetBoxOfficeRanking returns ranked catalog events matching q, renumbered from 1.
func (c *Catalog) GetBoxOfficeRanking(ctx context.Context, q BoxOfficeQuery) ([]*models.BoxOfficeEntry, error) {
	queries, err := overlapQuery(q.StartDate, q.EndDate)
	if err != nil {
		return nil, fmt.Errorf("catalog box office: %w", err)
	}
	first := 1.0
	queries = append(queries, rangeQuery("box_office_rank", &first, nil))
	if q.GenreCode != "" {
		queries = append(queries, termQuery("genre_code", q.GenreCode))
	}
	if q.SidoCode != "" {
		queries = append(queries, termQuery("sido_code", q.SidoCode))
	}

	entries, err := c.search(ctx, queries, DefaultRows, "box_office_rank")
	if err != nil {
		return nil, err
	}
	ranking := make([]*models.BoxOfficeEntry, 0, len(entries))
	for i, entry := range entries {
		ranking = append(ranking, &models.BoxOfficeEntry{
			EventID:   entry.ID,
			Rank:      i + 1,
			Name:      entry.Name,
			Genre:     entry.Genre,
			Area:      entry.Area,
			Venue:     entry.Venue,
			Period:    entry.StartDate + "~" + entry.EndDate,
			Poster:    entry.Poster,
			SeatCount: entry.SeatCount,
		})
	}
	return ranking, nil
}
