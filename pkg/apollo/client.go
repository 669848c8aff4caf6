// Package apollo provides access to the Apollo.io people search API.
package apollo

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

// Default base URL for the Apollo API.
const defaultBaseURL = "https://api.apollo.io/api/v1"

// Label is the usage-tracking label for all Apollo calls.
const Label = "apollo-people-search"

// Client defines the Apollo operations used by the pipeline.
type Client interface {
	PeopleSearch(ctx context.Context, req PeopleSearchRequest) (*PeopleSearchResponse, error)
}

// PeopleSearchRequest is the body for POST /mixed_people/search.
type PeopleSearchRequest struct {
	OrganizationDomains []string `json:"q_organization_domains_list,omitempty"`
	OrganizationName    string   `json:"q_organization_name,omitempty"`
	PersonTitles        []string `json:"person_titles,omitempty"`
	PerPage             int      `json:"per_page,omitempty"`
}

// PeopleSearchResponse is the response from POST /mixed_people/search.
type PeopleSearchResponse struct {
	People []Person `json:"people"`
}

// Person is a single people-search hit.
type Person struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Title       string `json:"title"`
	Email       string `json:"email"`
	EmailStatus string `json:"email_status"` // "verified", "guessed", ...
	LinkedInURL string `json:"linkedin_url"`
}

// Usable reports whether the person carries an address worth taking:
// Apollo masks locked addresses behind a placeholder.
func (p Person) Usable() bool {
	return p.Email != "" && p.Email != "email_not_unlocked@domain.com"
}

// APIError is returned when Apollo responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apollo: HTTP %d: %s", e.StatusCode, e.Body)
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

// NewClient creates a new Apollo client.
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

func (c *httpClient) PeopleSearch(ctx context.Context, req PeopleSearchRequest) (*PeopleSearchResponse, error) {
	buf, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "apollo: marshal request")
	}

	resp, err := c.caller.Do(ctx, Label, func(ctx context.Context) (*http.Response, error) {
		hr, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mixed_people/search", bytes.NewReader(buf))
		if err != nil {
			return nil, err
		}
		hr.Header.Set("Content-Type", "application/json")
		hr.Header.Set("X-Api-Key", c.apiKey)
		return c.http.Do(hr)
	})
	if err != nil {
		return nil, eris.Wrap(err, "apollo: people search")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "apollo: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	var out PeopleSearchResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "apollo: decode response")
	}
	return &out, nil
}
