package hunter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.hunter.io/v2"

// Client performs Hunter.io lookups.
type Client interface {
	FindEmail(ctx context.Context, req EmailFinderRequest) (*EmailFinderResponse, error)
}

// EmailFinderRequest holds the query parameters for GET /email-finder.
type EmailFinderRequest struct {
	Domain    string
	FirstName string
	LastName  string
}

// EmailFinderResponse is the response from GET /email-finder.
type EmailFinderResponse struct {
	Data EmailFinderData `json:"data"`
}

// EmailFinderData is the payload of an email-finder response. Email and
// PhoneNumber are null when Hunter has no match.
type EmailFinderData struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       *string `json:"email"`
	Score       int     `json:"score"`
	Domain      string  `json:"domain"`
	Position    *string `json:"position"`
	PhoneNumber *string `json:"phone_number"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Hunter.io API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) FindEmail(ctx context.Context, req EmailFinderRequest) (*EmailFinderResponse, error) {
	params := url.Values{}
	params.Set("domain", req.Domain)
	params.Set("first_name", req.FirstName)
	params.Set("last_name", req.LastName)
	params.Set("api_key", c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/email-finder?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: create request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("hunter: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result EmailFinderResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "hunter: unmarshal response")
	}

	return &result, nil
}
