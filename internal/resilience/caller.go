package resilience

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/tracker"
)

// Caller executes outbound provider calls with retry, backoff, rate-limit
// awareness, and usage tracking. Every attempt — success or failure — is
// recorded under the provider label before the call returns or retries.
type Caller struct {
	tracker  *tracker.Tracker
	cfg      RetryConfig
	breakers *ProviderBreakers
	warnTo   io.Writer
	now      func() time.Time
}

// CallerOption configures a Caller.
type CallerOption func(*Caller)

// WithBreakers attaches per-provider circuit breakers; a provider whose
// circuit is open fails fast without consuming retry budget.
func WithBreakers(pb *ProviderBreakers) CallerOption {
	return func(c *Caller) { c.breakers = pb }
}

// WithWarnWriter redirects the operator rate-limit warning (for tests).
func WithWarnWriter(w io.Writer) CallerOption {
	return func(c *Caller) { c.warnTo = w }
}

// WithClock overrides the clock used for Retry-After date parsing.
func WithClock(now func() time.Time) CallerOption {
	return func(c *Caller) { c.now = now }
}

// NewCaller creates a Caller reporting to the given tracker.
func NewCaller(tr *tracker.Tracker, cfg RetryConfig, opts ...CallerOption) *Caller {
	c := &Caller{
		tracker: tr,
		cfg:     applyDefaults(cfg),
		warnTo:  os.Stderr,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tracker exposes the underlying tracker so stages can snapshot it.
func (c *Caller) Tracker() *tracker.Tracker {
	return c.tracker
}

// Do executes fn, retrying on transport faults and retryable statuses
// (429, 500, 502, 503, 504) with exponential backoff. A Retry-After header
// overrides the computed delay for that attempt. On exhausting retries with
// a 429, a visible operator warning is emitted before the final response is
// returned. Transport faults that survive all retries propagate as an error.
func (c *Caller) Do(ctx context.Context, label string, fn func(ctx context.Context) (*http.Response, error)) (*http.Response, error) {
	if err := c.allow(label); err != nil {
		return nil, err
	}

	var lastResp *http.Response
	var lastErr error

	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		resp, err := fn(ctx)

		if err != nil {
			c.tracker.Record(label, tracker.StatusNetworkError)
			lastErr = err
			lastResp = nil

			if ctx.Err() != nil || attempt >= c.cfg.MaxAttempts-1 {
				break
			}
			if !c.sleep(ctx, attempt, computeBackoff(attempt, c.cfg), tracker.StatusNetworkError) {
				break
			}
			continue
		}

		c.tracker.Record(label, resp.StatusCode)

		if !RetryableStatus(resp.StatusCode) {
			c.recordBreaker(label, false)
			return resp, nil
		}

		lastResp = resp
		lastErr = nil

		if attempt >= c.cfg.MaxAttempts-1 {
			break
		}

		delay := ParseRetryAfter(resp, c.now())
		if delay <= 0 {
			delay = computeBackoff(attempt, c.cfg)
		}
		drain(resp)
		if !c.sleep(ctx, attempt, delay, resp.StatusCode) {
			break
		}
	}

	c.recordBreaker(label, true)

	if lastErr != nil {
		return nil, eris.Wrapf(lastErr, "%s: call failed after %d attempts", label, c.cfg.MaxAttempts)
	}
	if lastResp != nil && lastResp.StatusCode == http.StatusTooManyRequests {
		WarnRateLimit(c.warnTo, label)
	}
	if lastResp != nil {
		zap.L().Error("call exhausted retries",
			zap.String("provider", label),
			zap.Int("status", lastResp.StatusCode),
			zap.Int("attempts", c.cfg.MaxAttempts),
		)
	}
	return lastResp, nil
}

// DoSDK is the companion variant for library clients that surface failures
// as errors carrying a status code rather than response objects. statusOf
// extracts the status from an error (0 if none — treated as a network
// fault). The same backoff policy applies, keyed off that status.
func (c *Caller) DoSDK(ctx context.Context, label string, fn func(ctx context.Context) error, statusOf func(error) int) error {
	if err := c.allow(label); err != nil {
		return err
	}

	var lastErr error
	var lastStatus int

	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			c.tracker.Record(label, http.StatusOK)
			c.recordBreaker(label, false)
			return nil
		}

		status := statusOf(err)
		if status == 0 {
			status = tracker.StatusNetworkError
		}
		c.tracker.Record(label, status)
		lastErr = err
		lastStatus = status

		retryable := RetryableStatus(status) ||
			(status == tracker.StatusNetworkError && IsTransient(err))
		if !retryable {
			c.recordBreaker(label, true)
			return eris.Wrapf(err, "%s: call failed", label)
		}

		if ctx.Err() != nil || attempt >= c.cfg.MaxAttempts-1 {
			break
		}
		if !c.sleep(ctx, attempt, computeBackoff(attempt, c.cfg), status) {
			break
		}
	}

	c.recordBreaker(label, true)
	if lastStatus == http.StatusTooManyRequests {
		WarnRateLimit(c.warnTo, label)
	}
	return eris.Wrapf(lastErr, "%s: call failed after %d attempts", label, c.cfg.MaxAttempts)
}

func (c *Caller) allow(label string) error {
	if c.breakers == nil {
		return nil
	}
	if err := c.breakers.Get(label).Allow(); err != nil {
		return eris.Wrapf(err, "%s: rejected", label)
	}
	return nil
}

func (c *Caller) recordBreaker(label string, failed bool) {
	if c.breakers != nil {
		c.breakers.Get(label).RecordResult(failed)
	}
}

// sleep blocks for delay or until ctx is done. Returns false on cancellation.
func (c *Caller) sleep(ctx context.Context, attempt int, delay time.Duration, status int) bool {
	if c.cfg.OnRetry != nil {
		c.cfg.OnRetry(attempt+1, delay, status)
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// drain consumes and closes a response body so the connection can be reused
// before the next attempt.
func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
