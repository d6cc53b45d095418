// Package catalog searches the Google Books API for titles to pre-fill library entries.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/bookiebuddy/internal/cache"
	"github.com/lepinkainen/bookiebuddy/internal/errors"
	"github.com/lepinkainen/bookiebuddy/internal/ratelimit"
)

const (
	// DefaultBaseURL is the Google Books API root
	DefaultBaseURL = "https://www.googleapis.com/books/v1"

	// MaxResults is the number of volumes requested per search
	MaxResults = 10

	searchTable = "googlebooks_cache"
	volumeTable = "googlebooks_volume_cache"
)

// Client talks to the Google Books volumes API
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *ratelimit.Limiter
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithBaseURL points the client at a different API root
func WithBaseURL(baseURL string) Option {
	return func(cl *Client) {
		if baseURL != "" {
			cl.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithAPIKey sets the optional API key sent as the key parameter
func WithAPIKey(key string) Option {
	return func(cl *Client) { cl.apiKey = key }
}

// WithRateLimit limits outgoing requests to rps per second
func WithRateLimit(rps float64, burst int) Option {
	return func(cl *Client) {
		if rps <= 0 {
			cl.limiter = nil
			return
		}
		cl.limiter = ratelimit.New("google books", rps, burst)
	}
}

// NewClient creates a Google Books client
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    DefaultBaseURL,
		limiter:    ratelimit.New("google books", 2, 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns up to MaxResults volumes for query. Blank queries return no results
// without a request. Results are cached under the lower-cased query.
func (c *Client) Search(ctx context.Context, query string) ([]Volume, bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Volume{}, false, nil
	}

	cacheKey := strings.ToLower(query)
	volumes, fromCache, err := cache.GetOrFetchWithTTL(searchTable, cacheKey,
		func() ([]Volume, error) {
			return c.fetchSearch(ctx, query)
		},
		cache.SelectNegativeCacheTTL(func(v []Volume) bool { return len(v) == 0 }))
	if err != nil {
		return nil, false, err
	}
	if volumes == nil {
		volumes = []Volume{}
	}
	return volumes, fromCache, nil
}

// Volume fetches a single volume by its Google Books id
func (c *Client) Volume(ctx context.Context, id string) (*Volume, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false, fmt.Errorf("volume id is required")
	}

	return cache.GetOrFetch(volumeTable, id, func() (*Volume, error) {
		var v Volume
		if err := c.get(ctx, "/volumes/"+url.PathEscape(id), nil, &v); err != nil {
			return nil, err
		}
		return &v, nil
	})
}

// ClearCache drops every cached search and volume
func (c *Client) ClearCache() error {
	db, err := cache.GetGlobalCache()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	for _, table := range []string{searchTable, volumeTable} {
		if _, err := db.InvalidateSource(table); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) fetchSearch(ctx context.Context, query string) ([]Volume, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(MaxResults))
	params.Set("printType", "books")

	var resp SearchResponse
	if err := c.get(ctx, "/volumes", params, &resp); err != nil {
		return nil, err
	}

	slog.Debug("Google Books search completed", "query", query, "total_items", resp.TotalItems, "returned", len(resp.Items))
	if resp.Items == nil {
		return []Volume{}, nil
	}
	return resp.Items, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	endpoint := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build google books request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("google books request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.NewRateLimitErrorWithRetry("google books rate limit exceeded", retryAfter(resp.Header.Get("Retry-After")))
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("google books resource not found: %s", path)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("google books returned non-200 status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode google books response: %w", err)
	}
	return nil
}

func retryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
