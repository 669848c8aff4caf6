// Package serper provides access to the Serper.dev Google search API.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// Default base URL for the Serper API.
const defaultBaseURL = "https://google.serper.dev"

// Usage labels, one per endpoint so quota tracking stays separable.
const (
	LabelMaps   = "serper-maps"
	LabelSearch = "serper-osint"
)

// Client defines the Serper API operations used by the pipeline.
type Client interface {
	Maps(ctx context.Context, req MapsRequest) (*MapsResponse, error)
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// MapsRequest is the body for POST /maps.
type MapsRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num,omitempty"`
	Page  int    `json:"page,omitempty"`
}

// MapsResponse is the response from POST /maps.
type MapsResponse struct {
	Places []Place `json:"places"`
}

// Place is a single Google Maps listing.
type Place struct {
	Title       string  `json:"title"`
	Address     string  `json:"address"`
	PhoneNumber string  `json:"phoneNumber"`
	Website     string  `json:"website"`
	Category    string  `json:"category"`
	Rating      float64 `json:"rating"`
	RatingCount int     `json:"ratingCount"`
}

// SearchRequest is the body for POST /search.
type SearchRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num,omitempty"`
}

// SearchResponse is the response from POST /search.
type SearchResponse struct {
	Organic []OrganicResult `json:"organic"`
}

// OrganicResult is a single web search hit.
type OrganicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// APIError is returned when Serper responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("serper: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// httpClient implements Client using net/http behind the retrying caller.
type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	caller  *resilience.Caller
}

// NewClient creates a new Serper client. Every request is retried and
// recorded by the given caller.
func NewClient(apiKey string, caller *resilience.Caller, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		caller:  caller,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Maps(ctx context.Context, req MapsRequest) (*MapsResponse, error) {
	var resp MapsResponse
	if err := c.post(ctx, LabelMaps, "/maps", req, &resp); err != nil {
		return nil, eris.Wrap(err, "serper: maps search")
	}
	return &resp, nil
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.post(ctx, LabelSearch, "/search", req, &resp); err != nil {
		return nil, eris.Wrap(err, "serper: web search")
	}
	return &resp, nil
}

func (c *httpClient) post(ctx context.Context, label, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	resp, err := c.caller.Do(ctx, label, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-KEY", c.apiKey)
		return c.http.Do(req)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}

	return nil
}
