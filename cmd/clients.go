package main

import (
	"os"
	"time"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/internal/tracker"
	"github.com/sells-group/leadgen-cli/internal/waterfall"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
	"github.com/sells-group/leadgen-cli/pkg/dropcontact"
	"github.com/sells-group/leadgen-cli/pkg/hunter"
	"github.com/sells-group/leadgen-cli/pkg/serper"
	sfpkg "github.com/sells-group/leadgen-cli/pkg/salesforce"
)

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// newCaller builds the shared retrying executor for one stage process. All
// provider clients in the process route through it so the tracker sees
// every call.
func newCaller(tr *tracker.Tracker) *resilience.Caller {
	retryCfg := resilience.RetryConfig{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialBackoff: secs(cfg.Retry.InitialBackoffSecs),
		MaxBackoff:     secs(cfg.Retry.MaxBackoffSecs),
	}
	breakers := resilience.NewProviderBreakers(resilience.CircuitBreakerConfig{
		FailureThreshold: cfg.Retry.BreakerThreshold,
		ResetTimeout:     secs(cfg.Retry.BreakerResetSecs),
	})
	return resilience.NewCaller(tr, retryCfg, resilience.WithBreakers(breakers))
}

func newSerper(caller *resilience.Caller) serper.Client {
	return serper.NewClient(cfg.Serper.Key, caller, serper.WithBaseURL(cfg.Serper.BaseURL))
}

// buildEnricher assembles the email waterfall from whichever providers have
// credentials configured, cheapest first. The pattern-synthesis and generic
// rungs cost nothing beyond the Hunter lookup, so they are always present.
func buildEnricher(caller *resilience.Caller) (*waterfall.Enricher, error) {
	var steps []waterfall.Step

	if cfg.Serper.Key != "" {
		steps = append(steps, waterfall.NewOSINTStep(waterfall.NewSerperContacts(newSerper(caller))))
	}
	if cfg.Dropcontact.Key != "" {
		client := dropcontact.NewClient(cfg.Dropcontact.Key, caller,
			dropcontact.WithBaseURL(cfg.Dropcontact.BaseURL),
			dropcontact.WithPollInterval(time.Duration(cfg.Dropcontact.PollIntervalSecs)*time.Second),
			dropcontact.WithWaitBudget(time.Duration(cfg.Dropcontact.WaitBudgetSecs)*time.Second),
		)
		steps = append(steps, waterfall.NewDropcontactStep(waterfall.NewDropcontactFinder(client)))
	}
	if cfg.Hunter.Key != "" {
		client := hunter.NewClient(cfg.Hunter.Key, caller, hunter.WithBaseURL(cfg.Hunter.BaseURL))
		steps = append(steps, waterfall.NewPatternStep(waterfall.NewHunterDomains(client)))
	}
	steps = append(steps, waterfall.NewGenericStep())
	if cfg.Apollo.Key != "" {
		client := apollo.NewClient(cfg.Apollo.Key, caller, apollo.WithBaseURL(cfg.Apollo.BaseURL))
		steps = append(steps, waterfall.NewApolloStep(waterfall.NewApolloPeople(client)))
	}

	if len(steps) == 1 {
		return nil, eris.New("enrich: no email providers configured")
	}
	return waterfall.NewEnricher(steps,
		waterfall.WithStepDelay(secs(cfg.Pipeline.StepDelaySecs)),
	), nil
}

func initSalesforce(caller *resilience.Caller) (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (LEADGEN_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf, caller, sfpkg.WithRateLimit(cfg.Salesforce.RPS)), nil
}
