// Package tracker records per-provider API call outcomes, snapshots them
// across stage processes, and produces the end-of-run diagnostic report.
package tracker

import (
	"sync"
	"time"
)

// StatusNetworkError is the pseudo status code recorded when a call failed
// at the transport level before any HTTP status was received.
const StatusNetworkError = -1

// Counters aggregates call outcomes for one provider label.
type Counters struct {
	Total         int        `json:"total"`
	Success       int        `json:"success"`
	RateLimited   int        `json:"rate_limited"`
	ServerErrors  int        `json:"server_errors"`
	ClientErrors  int        `json:"client_errors"`
	NetworkErrors int        `json:"network_errors"`
	First429At    *time.Time `json:"first_429_at,omitempty"`
	Last429At     *time.Time `json:"last_429_at,omitempty"`
}

func (c *Counters) add(status int, now time.Time) {
	c.Total++
	switch {
	case status == StatusNetworkError:
		c.NetworkErrors++
	case status == 429:
		c.RateLimited++
		if c.First429At == nil {
			t := now
			c.First429At = &t
		}
		t := now
		c.Last429At = &t
	case status >= 500 && status < 600:
		c.ServerErrors++
	case status >= 400 && status < 500:
		c.ClientErrors++
	default:
		c.Success++
	}
}

// HasIssues reports whether this label saw rate limits, server errors, or
// network errors.
func (c Counters) HasIssues() bool {
	return c.RateLimited > 0 || c.ServerErrors > 0 || c.NetworkErrors > 0 || c.ClientErrors > 0
}

// Tracker accumulates counters per provider label. Each stage process owns
// exactly one Tracker; state crosses process boundaries only via snapshots.
type Tracker struct {
	mu    sync.Mutex
	calls map[string]*Counters
	now   func() time.Time
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{
		calls: make(map[string]*Counters),
		now:   time.Now,
	}
}

// WithNow overrides the clock, for deterministic tests.
func (t *Tracker) WithNow(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Record classifies status and bumps the label's counters. O(1), never fails.
func (t *Tracker) Record(label string, status int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.calls[label]
	if !ok {
		c = &Counters{}
		t.calls[label] = c
	}
	c.add(status, t.now())
}

// Counters returns a copy of the counters for every tracked label.
func (t *Tracker) Counters() map[string]Counters {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Counters, len(t.calls))
	for label, c := range t.calls {
		out[label] = *c
	}
	return out
}

// HasIssues reports whether any tracked provider had problems.
func (t *Tracker) HasIssues() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.calls {
		if c.RateLimited > 0 || c.ServerErrors > 0 || c.NetworkErrors > 0 {
			return true
		}
	}
	return false
}
