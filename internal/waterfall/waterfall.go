// Package waterfall implements the cost-ascending email discovery cascade.
// Providers are tried cheapest-first and the cascade stops at the first
// definitive address; partial outputs (a contact identity, a domain address
// pattern) accumulate across rungs so a later step can synthesize an address
// the providers never returned directly.
package waterfall

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Step is one rung of the cascade. A step may return a definitive outcome,
// contribute partial data to the accumulator and return nil, or fail; step
// failures are data-quality events, not pipeline errors, and the cascade
// moves on to the next rung.
type Step interface {
	Name() string
	Run(ctx context.Context, lead *model.Lead, acc *accumulator) (*outcome, error)
}

// outcome is a definitive answer from a single rung.
type outcome struct {
	Email  string
	Source model.EmailSource
}

// Enricher runs the cascade for one lead at a time.
type Enricher struct {
	steps []Step
	delay time.Duration
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithStepDelay sets the minimum pause between successive provider rungs for
// the same lead. This is burst-limit hygiene, separate from retry backoff.
func WithStepDelay(d time.Duration) Option {
	return func(e *Enricher) { e.delay = d }
}

// WithSleeper replaces the inter-step sleep (for tests).
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Enricher) { e.sleep = fn }
}

// NewEnricher builds an enricher over an ordered, cheapest-first step chain.
func NewEnricher(steps []Step, opts ...Option) *Enricher {
	e := &Enricher{
		steps: steps,
		delay: time.Second,
		sleep: ctxSleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich walks the cascade for a single lead. It returns an error only on
// context cancellation; provider failures and empty answers degrade to the
// explicit not_found result.
func (e *Enricher) Enrich(ctx context.Context, lead *model.Lead) (*Result, error) {
	acc := &accumulator{}
	res := &Result{Source: model.EmailSourceNotFound}

	for i, step := range e.steps {
		if i > 0 && e.delay > 0 {
			if err := e.sleep(ctx, e.delay); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "waterfall: cascade interrupted")
		}

		res.Steps++
		out, err := step.Run(ctx, lead, acc)
		if err != nil {
			zap.L().Warn("waterfall: step failed, continuing",
				zap.String("step", step.Name()),
				zap.String("company", lead.Company),
				zap.Error(err),
			)
			continue
		}
		if out != nil && out.Email != "" {
			res.Email = out.Email
			res.Source = out.Source
			res.Identity = acc.identity
			zap.L().Debug("waterfall: resolved",
				zap.String("step", step.Name()),
				zap.String("company", lead.Company),
				zap.String("source", string(out.Source)),
			)
			return res, nil
		}
	}

	res.Identity = acc.identity
	return res, nil
}

// Apply writes a cascade result onto the lead record.
func Apply(lead *model.Lead, res *Result) {
	lead.Email = res.Email
	lead.EmailSource = res.Source
	if name := res.Identity.FullName(); name != "" {
		lead.ContactName = name
	}
	if res.Identity.Title != "" {
		lead.ContactTitle = res.Identity.Title
	}
	if res.Identity.LinkedInURL != "" {
		lead.LinkedInURL = res.Identity.LinkedInURL
	}
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "waterfall: sleep interrupted")
	case <-t.C:
		return nil
	}
}
