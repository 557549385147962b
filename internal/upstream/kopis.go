package upstream

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/stagefinder/internal/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultKOPISBaseURL is the public KOPIS open API endpoint.
const DefaultKOPISBaseURL = "http://www.kopis.or.kr/openApi/restful"

const maxErrorBody = 512

// KOPISOptions configures a KOPISClient.
type KOPISOptions struct {
	BaseURL           string
	ServiceKey        string
	Timeout           time.Duration
	RequestsPerSecond float64
	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// KOPISClient queries the KOPIS performance API over HTTP and decodes its XML responses.
// The service key is held per client; nothing is read from process-wide state.
type KOPISClient struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewKOPISClient creates a client. A zero RequestsPerSecond disables rate limiting.
func NewKOPISClient(opts KOPISOptions, logger *zap.Logger) (*KOPISClient, error) {
	if opts.ServiceKey == "" {
		return nil, fmt.Errorf("kopis: service key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultKOPISBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("kopis: invalid base url: %w", err)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return &KOPISClient{
		baseURL:    baseURL,
		serviceKey: opts.ServiceKey,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
	}, nil
}

type kopisListResponse struct {
	XMLName xml.Name        `xml:"dbs"`
	Items   []kopisListItem `xml:"db"`
}

type kopisListItem struct {
	ID         string `xml:"mt20id"`
	Name       string `xml:"prfnm"`
	From       string `xml:"prfpdfrom"`
	To         string `xml:"prfpdto"`
	Venue      string `xml:"fcltynm"`
	Poster     string `xml:"poster"`
	Area       string `xml:"area"`
	Genre      string `xml:"genrenm"`
	OpenRun    string `xml:"openrun"`
	Status     string `xml:"prfstate"`
	ReturnCode string `xml:"returncode"`
	ErrMsg     string `xml:"errmsg"`
}

type kopisDetailResponse struct {
	XMLName xml.Name          `xml:"dbs"`
	Items   []kopisDetailItem `xml:"db"`
}

type kopisDetailItem struct {
	kopisListItem
	Cast      string   `xml:"prfcast"`
	Crew      string   `xml:"prfcrew"`
	Runtime   string   `xml:"prfruntime"`
	AgeLimit  string   `xml:"prfage"`
	Producer  string   `xml:"entrpsnm"`
	Price     string   `xml:"pcseguidance"`
	Synopsis  string   `xml:"sty"`
	Schedule  string   `xml:"dtguidance"`
	ImageURLs []string `xml:"styurls>styurl"`
}

type kopisBoxOfficeResponse struct {
	XMLName xml.Name             `xml:"boxofs"`
	Items   []kopisBoxOfficeItem `xml:"boxof"`
}

type kopisBoxOfficeItem struct {
	ID        string `xml:"mt20id"`
	Rank      string `xml:"rnum"`
	Name      string `xml:"prfnm"`
	Genre     string `xml:"cate"`
	Area      string `xml:"area"`
	Venue     string `xml:"prfplcnm"`
	Period    string `xml:"prfpd"`
	Poster    string `xml:"poster"`
	SeatCount string `xml:"seatcnt"`
}

// ListEvents fetches one page of performances matching q.
func (c *KOPISClient) ListEvents(ctx context.Context, q ListQuery) ([]*models.Event, error) {
	params := url.Values{}
	params.Set("stdate", q.StartDate)
	params.Set("eddate", q.EndDate)
	params.Set("cpage", "1")
	params.Set("rows", strconv.Itoa(rowsOrDefault(q.Rows)))
	if q.GenreCode != "" {
		params.Set("shcate", q.GenreCode)
	}
	if q.SidoCode != "" {
		params.Set("signgucode", q.SidoCode)
	}
	if q.GugunCode != "" {
		params.Set("signgucodesub", q.GugunCode)
	}

	var resp kopisListResponse
	if err := c.get(ctx, "/pblprfr", params, &resp); err != nil {
		return nil, err
	}
	events := make([]*models.Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		if err := item.apiError(); err != nil {
			return nil, err
		}
		if item.ID == "" {
			continue
		}
		events = append(events, item.toEvent())
	}
	return events, nil
}

// GetEventDetail fetches the full record of one performance.
func (c *KOPISClient) GetEventDetail(ctx context.Context, id string) (*models.EventDetail, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	var resp kopisDetailResponse
	if err := c.get(ctx, "/pblprfr/"+url.PathEscape(id), url.Values{}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	item := resp.Items[0]
	if err := item.apiError(); err != nil {
		return nil, err
	}
	if item.ID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	event := item.toEvent()
	event.PriceGuidance = strings.TrimSpace(item.Price)
	return &models.EventDetail{
		Event:     *event,
		Cast:      strings.TrimSpace(item.Cast),
		Crew:      strings.TrimSpace(item.Crew),
		Runtime:   strings.TrimSpace(item.Runtime),
		AgeLimit:  strings.TrimSpace(item.AgeLimit),
		Producer:  strings.TrimSpace(item.Producer),
		Schedule:  strings.TrimSpace(item.Schedule),
		Synopsis:  strings.TrimSpace(item.Synopsis),
		ImageURLs: item.ImageURLs,
	}, nil
}

// GetBoxOfficeRanking fetches the box-office feed, ordered by rank.
func (c *KOPISClient) GetBoxOfficeRanking(ctx context.Context, q BoxOfficeQuery) ([]*models.BoxOfficeEntry, error) {
	params := url.Values{}
	params.Set("stdate", q.StartDate)
	params.Set("eddate", q.EndDate)
	if q.GenreCode != "" {
		params.Set("catecode", q.GenreCode)
	}
	if q.SidoCode != "" {
		params.Set("area", q.SidoCode)
	}

	var resp kopisBoxOfficeResponse
	if err := c.get(ctx, "/boxoffice", params, &resp); err != nil {
		return nil, err
	}
	entries := make([]*models.BoxOfficeEntry, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID == "" {
			continue
		}
		rank, _ := strconv.Atoi(strings.TrimSpace(item.Rank))
		seats, _ := strconv.Atoi(strings.TrimSpace(item.SeatCount))
		entries = append(entries, &models.BoxOfficeEntry{
			EventID:   item.ID,
			Rank:      rank,
			Name:      item.Name,
			Genre:     item.Genre,
			Area:      item.Area,
			Venue:     item.Venue,
			Period:    item.Period,
			Poster:    item.Poster,
			SeatCount: seats,
		})
	}
	return entries, nil
}

// get issues a rate-limited GET and decodes the XML body into out.
func (c *KOPISClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", ErrUpstreamUnavailable, err)
	}
	params.Set("service", c.serviceKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("kopis: build request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("kopis request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s returned %d: %s", ErrUpstreamUnavailable, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: decode %s: %v", ErrUpstreamUnavailable, path, err)
	}
	return nil
}

func (item kopisListItem) apiError() error {
	code := strings.TrimSpace(item.ReturnCode)
	if code == "" || code == "00" {
		return nil
	}
	return fmt.Errorf("%w: kopis error %s: %s", ErrUpstreamUnavailable, code, strings.TrimSpace(item.ErrMsg))
}

func (item kopisListItem) toEvent() *models.Event {
	event := &models.Event{
		ID:        strings.TrimSpace(item.ID),
		Name:      strings.TrimSpace(item.Name),
		StartDate: normalizeDate(item.From),
		EndDate:   normalizeDate(item.To),
		Venue:     strings.TrimSpace(item.Venue),
		Area:      strings.TrimSpace(item.Area),
		Genre:     strings.TrimSpace(item.Genre),
		Status:    strings.TrimSpace(item.Status),
		Poster:    strings.TrimSpace(item.Poster),
	}
	if item.OpenRun != "" {
		event.Extra = map[string]string{"openrun": strings.TrimSpace(item.OpenRun)}
	}
	return event
}

// normalizeDate turns "2025.01.31" into "20250131".
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	return strings.NewReplacer(".", "", "-", "").Replace(s)
}
