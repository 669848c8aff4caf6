// Package dropcontact provides access to the Dropcontact enrichment API.
//
// Dropcontact is asynchronous: a batch is submitted, then polled until the
// results are ready. The client hides the polling loop behind a single
// Enrich call with a bounded wait budget.
package dropcontact

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

// Default base URL for the Dropcontact API.
const defaultBaseURL = "https://api.dropcontact.com"

// Label is the usage-tracking label for all Dropcontact calls.
const Label = "dropcontact-batch"

// Client defines the Dropcontact operations used by the pipeline.
type Client interface {
	// Enrich submits the contacts and polls until results are ready or
	// the wait budget runs out.
	Enrich(ctx context.Context, contacts []Contact) ([]ContactResult, error)
}

// Contact is one person to enrich.
type Contact struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`
	Website   string `json:"website,omitempty"`
}

// ContactResult is the enriched record for one submitted contact, in
// submission order.
type ContactResult struct {
	Emails []FoundEmail `json:"email"`
}

// BestEmail returns the first address Dropcontact rated deliverable, or "".
func (r ContactResult) BestEmail() string {
	for _, e := range r.Emails {
		if e.Qualification == "correct" || e.Qualification == "nominative@pro" {
			return e.Email
		}
	}
	return ""
}

// FoundEmail is a single address with Dropcontact's qualification tag.
type FoundEmail struct {
	Email         string `json:"email"`
	Qualification string `json:"qualification"`
}

// batchRequest is the body for POST /batch.
type batchRequest struct {
	Data     []Contact `json:"data"`
	Siren    bool      `json:"siren"`
	Language string    `json:"language"`
}

// batchResponse is the response from POST /batch.
type batchResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error,omitempty"`
}

// batchStatusResponse is the response from GET /batch/{id}.
type batchStatusResponse struct {
	Success bool            `json:"success"`
	Reason  string          `json:"reason,omitempty"`
	Data    []ContactResult `json:"data"`
}

// APIError is returned when Dropcontact responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dropcontact: HTTP %d: %s", e.StatusCode, e.Body)
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

// WithPollInterval sets the delay between status polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *httpClient) {
		c.pollInterval = d
	}
}

// WithWaitBudget bounds the total time spent polling one batch.
func WithWaitBudget(d time.Duration) Option {
	return func(c *httpClient) {
		c.waitBudget = d
	}
}

// httpClient implements Client using net/http behind the retrying caller.
type httpClient struct {
	apiKey       string
	baseURL      string
	http         *http.Client
	caller       *resilience.Caller
	pollInterval time.Duration
	waitBudget   time.Duration
}

// NewClient creates a new Dropcontact client.
func NewClient(apiKey string, caller *resilience.Caller, opts ...Option) Client {
	c := &httpClient{
		apiKey:       apiKey,
		baseURL:      defaultBaseURL,
		caller:       caller,
		pollInterval: 5 * time.Second,
		waitBudget:   2 * time.Minute,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Enrich(ctx context.Context, contacts []Contact) ([]ContactResult, error) {
	if len(contacts) == 0 {
		return nil, nil
	}

	var submitted batchResponse
	body := batchRequest{Data: contacts, Language: "en"}
	if err := c.do(ctx, http.MethodPost, "/batch", body, &submitted); err != nil {
		return nil, eris.Wrap(err, "dropcontact: submit batch")
	}
	if submitted.RequestID == "" {
		return nil, eris.New(fmt.Sprintf("dropcontact: batch rejected: %s", submitted.Error))
	}

	deadline := time.Now().Add(c.waitBudget)
	for {
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}

		var status batchStatusResponse
		if err := c.do(ctx, http.MethodGet, "/batch/"+submitted.RequestID, nil, &status); err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("dropcontact: poll batch %s", submitted.RequestID))
		}
		if status.Success {
			return status.Data, nil
		}

		if time.Now().After(deadline) {
			return nil, eris.New(fmt.Sprintf("dropcontact: batch %s not ready after %s", submitted.RequestID, c.waitBudget))
		}
	}
}

func (c *httpClient) do(ctx context.Context, method, path string, body any, out any) error {
	var buf []byte
	if body != nil {
		var err error
		buf, err = json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "marshal request")
		}
	}

	resp, err := c.caller.Do(ctx, Label, func(ctx context.Context) (*http.Response, error) {
		var rd io.Reader
		if buf != nil {
			rd = bytes.NewReader(buf)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Access-Token", c.apiKey)
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

func (c *httpClient) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "dropcontact: wait interrupted")
	case <-t.C:
		return nil
	}
}
