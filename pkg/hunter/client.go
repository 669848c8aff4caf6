// Package hunter provides access to the Hunter.io domain search API.
package hunter

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

// Default base URL for the Hunter v2 API.
const defaultBaseURL = "https://api.hunter.io/v2"

// Label is the usage-tracking label for all Hunter calls.
const Label = "hunter-domain-search"

// Client defines the Hunter API operations used by the pipeline.
type Client interface {
	DomainSearch(ctx context.Context, domain string) (*DomainSearchResponse, error)
}

// DomainSearchResponse is the response from GET /domain-search.
type DomainSearchResponse struct {
	Data DomainData `json:"data"`
}

// DomainData is the payload of a domain search.
type DomainData struct {
	Domain  string  `json:"domain"`
	Pattern string  `json:"pattern"` // e.g. "{first}.{last}"
	Emails  []Email `json:"emails"`
}

// Email is a single address Hunter has observed on the domain.
type Email struct {
	Value      string `json:"value"`
	Type       string `json:"type"` // "personal" or "generic"
	Confidence int    `json:"confidence"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Position   string `json:"position"`
}

// Generic reports whether the address is role-based (info@, contact@).
func (e Email) Generic() bool { return e.Type == "generic" }

// APIError is returned when Hunter responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hunter: HTTP %d: %s", e.StatusCode, e.Body)
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

// NewClient creates a new Hunter client.
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

func (c *httpClient) DomainSearch(ctx context.Context, domain string) (*DomainSearchResponse, error) {
	q := url.Values{}
	q.Set("domain", domain)
	q.Set("api_key", c.apiKey)

	resp, err := c.caller.Do(ctx, Label, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/domain-search?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		return c.http.Do(req)
	})
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("hunter: domain search %s", domain))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	var out DomainSearchResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "hunter: decode response")
	}
	return &out, nil
}
