// Aggregator API client
//
// Talks to the aggregator endpoint directly or through `clm proxy`.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/clmusic/internal/models"
	"github.com/desertthunder/clmusic/internal/shared"
)

const (
	defaultBaseURL   = "https://music-api.gdstudio.xyz/api.php"
	defaultUserAgent = "clmusic/0.1"
)

var _ Aggregator = (*AggregatorClient)(nil)

// AggregatorClient implements [Aggregator] over HTTP.
type AggregatorClient struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	logger     *log.Logger
}

// ClientOpts configures an [AggregatorClient]. Zero values select defaults.
type ClientOpts struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration // per request, 0 disables
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewAggregatorClient creates a new aggregator client.
func NewAggregatorClient(opts ClientOpts) *AggregatorClient {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	return &AggregatorClient{
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		timeout:    opts.Timeout,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs a GET request with the given query parameters and returns the raw response.
func (c *AggregatorClient) Get(ctx context.Context, params url.Values) (*APIResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	fullURL := c.baseURL
	if encoded := params.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrAPIRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("aggregator request", "types", params.Get("types"), "source", params.Get("source"))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s request: %v", shared.ErrTimeout, params.Get("types"), err)
		}
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// getJSON performs a GET and decodes a 2xx JSON body into result.
func (c *AggregatorClient) getJSON(ctx context.Context, params url.Values, result any) error {
	resp, err := c.Get(ctx, params)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: aggregator %s error: status %d", shared.ErrAPIRequest, params.Get("types"), resp.StatusCode)
	}

	if err := json.Unmarshal(resp.Body, result); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", shared.ErrAPIRequest, params.Get("types"), err)
	}

	return nil
}

// Search calls `types=search`.
func (c *AggregatorClient) Search(ctx context.Context, p SearchParams) ([]models.Track, error) {
	params := url.Values{}
	params.Set("types", "search")
	params.Set("source", p.Source.String())
	params.Set("name", p.Query)
	params.Set("count", strconv.Itoa(p.Count))
	params.Set("pages", strconv.Itoa(p.Pages))

	var tracks []models.Track
	if err := c.getJSON(ctx, params, &tracks); err != nil {
		return nil, err
	}

	for i := range tracks {
		if tracks[i].Source == "" {
			tracks[i].Source = p.Source
		}
	}

	return tracks, nil
}

// Cover calls `types=pic`.
func (c *AggregatorClient) Cover(ctx context.Context, source models.Source, pictureID string, size int) (string, error) {
	params := url.Values{}
	params.Set("types", "pic")
	params.Set("source", source.String())
	params.Set("id", pictureID)
	params.Set("size", strconv.Itoa(size))

	var body struct {
		URL string `json:"url"`
	}
	if err := c.getJSON(ctx, params, &body); err != nil {
		return "", err
	}

	coverURL := shared.StripEscapes(body.URL)
	if coverURL == "" {
		return "", fmt.Errorf("%w: pic %s/%s", shared.ErrEmptyURL, source, pictureID)
	}

	return coverURL, nil
}

// StreamURL calls `types=url`.
func (c *AggregatorClient) StreamURL(ctx context.Context, source models.Source, id string, quality models.Quality) (*StreamInfo, error) {
	params := url.Values{}
	params.Set("types", "url")
	params.Set("source", source.String())
	params.Set("id", id)
	params.Set("br", quality.String())

	var body struct {
		URL  string      `json:"url"`
		Size looseNumber `json:"size"`
		BR   looseNumber `json:"br"`
	}
	if err := c.getJSON(ctx, params, &body); err != nil {
		return nil, err
	}

	streamURL := shared.StripEscapes(body.URL)
	if streamURL == "" {
		return nil, fmt.Errorf("%w: url %s/%s", shared.ErrEmptyURL, source, id)
	}

	return &StreamInfo{
		URL:     streamURL,
		Size:    int64(body.Size),
		Bitrate: int(body.BR),
	}, nil
}

// Lyric calls `types=lyric`.
func (c *AggregatorClient) Lyric(ctx context.Context, source models.Source, lyricID string) (*LyricResult, error) {
	params := url.Values{}
	params.Set("types", "lyric")
	params.Set("source", source.String())
	params.Set("id", lyricID)

	var body struct {
		Lyric  string `json:"lyric"`
		TLyric string `json:"tlyric"`
	}
	if err := c.getJSON(ctx, params, &body); err != nil {
		return nil, err
	}

	return &LyricResult{Lyric: body.Lyric, Translated: body.TLyric}, nil
}

// looseNumber decodes a JSON number or numeric string, leaving zero for anything else.
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		*n = looseNumber(t)
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			*n = looseNumber(f)
		}
	}
	return nil
}
