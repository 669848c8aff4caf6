// Package millionverifier provides access to the MillionVerifier
// single-email verification API.
package millionverifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// Default base URL for the MillionVerifier API.
const defaultBaseURL = "https://api.millionverifier.com"

// Label is the usage-tracking label for all MillionVerifier calls.
const Label = "millionverifier"

// Client defines the MillionVerifier operations used by the pipeline.
type Client interface {
	Verify(ctx context.Context, email string) (*VerifyResponse, error)
}

// VerifyResponse is the response from GET /api/v3.
type VerifyResponse struct {
	Email      string `json:"email"`
	Result     string `json:"result"` // "ok", "catch_all", "unknown", "invalid", "disposable"
	Quality    string `json:"quality"`
	Free       bool   `json:"free"`
	Role       bool   `json:"role"`
	Credits    int    `json:"credits"`
	ResultCode int    `json:"resultcode"`
	Error      string `json:"error,omitempty"`
}

// APIError is returned when MillionVerifier responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("millionverifier: HTTP %d: %s", e.StatusCode, e.Body)
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

// NewClient creates a new MillionVerifier client.
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

func (c *httpClient) Verify(ctx context.Context, email string) (*VerifyResponse, error) {
	q := url.Values{}
	q.Set("api", c.apiKey)
	q.Set("email", email)

	resp, err := c.caller.Do(ctx, Label, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		return c.http.Do(req)
	})
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("millionverifier: verify %s", email))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "millionverifier: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	var out VerifyResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "millionverifier: decode response")
	}
	if out.Error != "" {
		return nil, eris.New(fmt.Sprintf("millionverifier: %s", out.Error))
	}
	return &out, nil
}
