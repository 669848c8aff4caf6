// Package salesforce provides rate-limited CRM access for the sync stage.
package salesforce

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// Label is the usage-tracking label for all Salesforce calls.
const Label = "salesforce-sync"

// maxBatchSize is the Salesforce Collections API limit per request.
const maxBatchSize = 200

// Client defines the Salesforce API operations used by the pipeline.
type Client interface {
	Query(ctx context.Context, soql string, out any) error
	InsertOne(ctx context.Context, sObjectName string, record map[string]any) (string, error)
	UpdateOne(ctx context.Context, sObjectName string, id string, fields map[string]any) error
	InsertCollection(ctx context.Context, sObjectName string, records []map[string]any) ([]CollectionResult, error)
}

// CollectionResult is the outcome of a single record in a collection insert.
type CollectionResult struct {
	ID      string   `json:"id"`
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

// ClientOption configures the Salesforce client.
type ClientOption func(*sfClient)

// WithRateLimit sets a per-second rate limit for SF API calls.
// A burst equal to the integer portion of rps is allowed.
func WithRateLimit(rps float64) ClientOption {
	return func(c *sfClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// sfClient wraps the go-salesforce/v3 Salesforce struct.
//
// NOTE: The underlying go-salesforce/v3 library does not accept context.Context,
// so all methods discard the ctx parameter for the SF call itself. However, the
// ctx is used for rate limiter waiting, so callers can still cancel that wait.
type sfClient struct {
	sf      *salesforce.Salesforce
	caller  *resilience.Caller
	limiter *rate.Limiter
}

// NewClient creates a new Salesforce Client wrapping the given go-salesforce
// instance. Calls are retried and tracked by the caller.
func NewClient(sf *salesforce.Salesforce, caller *resilience.Caller, opts ...ClientOption) Client {
	c := &sfClient{sf: sf, caller: caller}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *sfClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// do runs one SF operation through the rate limiter and the retrying caller.
func (c *sfClient) do(ctx context.Context, fn func() error) error {
	return c.caller.DoSDK(ctx, Label, func(ctx context.Context) error {
		if err := c.wait(ctx); err != nil {
			return eris.Wrap(err, "sf: rate limit")
		}
		return fn()
	}, sfStatus)
}

// sfStatus guesses the HTTP status from a go-salesforce error, which only
// surfaces status codes inside the message text.
func sfStatus(err error) int {
	msg := err.Error()
	for _, code := range []int{
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusBadRequest,
	} {
		if strings.Contains(msg, fmt.Sprintf("%d", code)) {
			return code
		}
	}
	return 0
}

func (c *sfClient) Query(ctx context.Context, soql string, out any) error {
	err := c.do(ctx, func() error {
		return c.sf.Query(soql, out)
	})
	if err != nil {
		return eris.Wrap(err, "sf: query")
	}
	return nil
}

func (c *sfClient) InsertOne(ctx context.Context, sObjectName string, record map[string]any) (string, error) {
	var id string
	err := c.do(ctx, func() error {
		result, err := c.sf.InsertOne(sObjectName, record)
		if err != nil {
			return err
		}
		if !result.Success {
			return eris.New(fmt.Sprintf("insert %s failed: %v", sObjectName, result.Errors))
		}
		id = result.Id
		return nil
	})
	if err != nil {
		return "", eris.Wrap(err, fmt.Sprintf("sf: insert %s", sObjectName))
	}
	return id, nil
}

func (c *sfClient) UpdateOne(ctx context.Context, sObjectName string, id string, fields map[string]any) error {
	err := c.do(ctx, func() error {
		fields["Id"] = id
		return c.sf.UpdateOne(sObjectName, fields)
	})
	if err != nil {
		return eris.Wrap(err, fmt.Sprintf("sf: update %s %s", sObjectName, id))
	}
	return nil
}

func (c *sfClient) InsertCollection(ctx context.Context, sObjectName string, records []map[string]any) ([]CollectionResult, error) {
	var results []CollectionResult
	err := c.do(ctx, func() error {
		sfResults, err := c.sf.InsertCollection(sObjectName, records, maxBatchSize)
		if err != nil {
			return err
		}
		results = make([]CollectionResult, len(sfResults.Results))
		for i, r := range sfResults.Results {
			var errs []string
			for _, e := range r.Errors {
				errs = append(errs, e.Message)
			}
			results[i] = CollectionResult{
				ID:      r.Id,
				Success: r.Success,
				Errors:  errs,
			}
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: insert collection %s", sObjectName))
	}
	return results, nil
}
