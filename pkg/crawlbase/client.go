// Package crawlbase is a client for the Crawlbase async scraping API and its
// job storage.
package crawlbase

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

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL = "https://api.crawlbase.com"
	defaultScraper = "linkedin-profile"
)

// Client defines the Crawlbase operations used for profile retrieval.
type Client interface {
	// Submit queues an async scrape of targetURL and returns its request id.
	Submit(ctx context.Context, targetURL string) (string, error)
	// Retrieve returns the stored body for a request id. A job that has not
	// finished yet yields an error for which IsNotFound is true.
	Retrieve(ctx context.Context, rid string) (json.RawMessage, error)
	// ListJobs returns the most recent stored request ids, newest first.
	ListJobs(ctx context.Context, limit int) ([]string, error)
}

// SubmitResponse is the response from the async crawl endpoint.
type SubmitResponse struct {
	RID string `json:"rid"`
}

// ListResponse is the response from GET /storage/rids.
type ListResponse struct {
	RIDs []string `json:"rids"`
}

// APIError is returned when Crawlbase responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crawlbase: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from the storage API, which is how
// Crawlbase signals a job that has not produced a result yet.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithScraper overrides the scraper used for async submissions.
func WithScraper(name string) Option {
	return func(c *httpClient) {
		c.scraper = name
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	token   string
	baseURL string
	scraper string
	http    *http.Client
}

// NewClient creates a new Crawlbase client.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		scraper: defaultScraper,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Submit(ctx context.Context, targetURL string) (string, error) {
	params := url.Values{}
	params.Set("scraper", c.scraper)
	params.Set("async", "true")
	params.Set("url", targetURL)

	data, err := c.get(ctx, "/", params)
	if err != nil {
		return "", eris.Wrap(err, "crawlbase: submit")
	}

	var resp SubmitResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", eris.Wrap(err, "crawlbase: decode submit response")
	}
	if resp.RID == "" {
		return "", eris.New("crawlbase: submit response has no rid")
	}
	return resp.RID, nil
}

func (c *httpClient) Retrieve(ctx context.Context, rid string) (json.RawMessage, error) {
	if rid == "" {
		return nil, eris.New("crawlbase: empty rid")
	}
	params := url.Values{}
	params.Set("rid", rid)

	data, err := c.get(ctx, "/storage", params)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("crawlbase: retrieve %s", rid))
	}
	return json.RawMessage(data), nil
}

func (c *httpClient) ListJobs(ctx context.Context, limit int) ([]string, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	data, err := c.get(ctx, "/storage/rids", params)
	if err != nil {
		return nil, eris.Wrap(err, "crawlbase: list rids")
	}

	var resp ListResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, eris.Wrap(err, "crawlbase: decode rids")
	}
	return resp.RIDs, nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	params.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}
	return data, nil
}
