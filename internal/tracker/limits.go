package tracker

// Limit describes a provider's known quota and rate ceiling. The table is
// static configuration used only for human-readable diagnostics — nothing
// here is enforced.
type Limit struct {
	MonthlyQuota  int    // 0 = pay per use, no monthly cap
	RatePerSecond int    // 0 if the provider publishes per-minute rates only
	RatePerMinute int
	CostUnit      string
	FreeTier      bool
	WaitAdvice    string
	IdealBatch    int
	UpgradePrice  string
	UpgradeURL    string
	Note          string
	CriticalNote  string
	Bottleneck    bool
	SharedWith    string
}

// Limits maps a provider label to its known free-tier limits.
var Limits = map[string]Limit{
	"serper-maps": {
		MonthlyQuota:  2500,
		RatePerSecond: 100,
		CostUnit:      "searches",
		FreeTier:      true,
		WaitAdvice:    "no wait needed (100 req/s)",
		IdealBatch:    50,
		UpgradePrice:  "$50/mo for 50,000 searches",
		UpgradeURL:    "https://serper.dev/pricing",
	},
	"serper-osint": {
		MonthlyQuota:  2500,
		RatePerSecond: 100,
		CostUnit:      "searches",
		FreeTier:      true,
		WaitAdvice:    "no wait needed",
		IdealBatch:    50,
		UpgradePrice:  "$50/mo for 50,000 searches (shared with Maps)",
		UpgradeURL:    "https://serper.dev/pricing",
		SharedWith:    "serper-maps",
	},
	"firecrawl-scrape": {
		MonthlyQuota:  500,
		RatePerMinute: 5,
		CostUnit:      "pages scraped",
		FreeTier:      true,
		WaitAdvice:    "12s between calls (5 req/min on the free tier)",
		IdealBatch:    30,
		UpgradePrice:  "$16/mo for 3,000 credits",
		UpgradeURL:    "https://firecrawl.dev/pricing",
		Bottleneck:    true,
	},
	"anthropic-classify": {
		RatePerMinute: 50,
		CostUnit:      "LLM calls",
		WaitAdvice:    "1s between calls is enough",
		IdealBatch:    50,
		UpgradePrice:  "pay-as-you-go, roughly $0.001/call with Haiku",
		UpgradeURL:    "https://console.anthropic.com/settings/plans",
	},
	"anthropic-score": {
		RatePerMinute: 50,
		CostUnit:      "LLM calls",
		WaitAdvice:    "0.5s between calls is enough",
		IdealBatch:    50,
		UpgradePrice:  "pay-as-you-go, roughly $0.001/call with Haiku",
		UpgradeURL:    "https://console.anthropic.com/settings/plans",
	},
	"dropcontact-batch": {
		MonthlyQuota:  1000,
		RatePerMinute: 60,
		CostUnit:      "contacts enriched",
		WaitAdvice:    "async polling: 5s between polls, 60s total budget",
		IdealBatch:    25,
		UpgradePrice:  "24 EUR/mo for 1,000 credits (1 credit = 1 email found)",
		UpgradeURL:    "https://dropcontact.com/pricing",
		Note:          "the API is not available on the free plan",
	},
	"hunter-domain-search": {
		MonthlyQuota:  25,
		RatePerSecond: 15,
		CostUnit:      "domain searches",
		FreeTier:      true,
		WaitAdvice:    "rate is fine, but 25 credits/mo caps you at 25 leads",
		IdealBatch:    20,
		UpgradePrice:  "$49/mo for 500 searches",
		UpgradeURL:    "https://hunter.io/pricing",
		Bottleneck:    true,
		CriticalNote:  "25 free credits/mo is the tightest quota in the pipeline",
	},
	"apollo-people-search": {
		MonthlyQuota:  10000,
		RatePerMinute: 50,
		CostUnit:      "contact lookups",
		FreeTier:      true,
		WaitAdvice:    "1.5s between calls is enough",
		IdealBatch:    50,
		UpgradePrice:  "$49/mo for 5,000 mobile credits + unlimited email",
		UpgradeURL:    "https://apollo.io/pricing",
		Note:          "10,000 credits/mo with a corporate email, 100 without",
	},
	"millionverifier": {
		MonthlyQuota:  100,
		RatePerSecond: 160,
		CostUnit:      "emails verified",
		FreeTier:      true,
		WaitAdvice:    "no wait needed (160 req/s)",
		IdealBatch:    50,
		UpgradePrice:  "$15 for the first credit pack (pay-as-you-go)",
		UpgradeURL:    "https://millionverifier.com/pricing",
		Note:          "100 free verifications/mo; catch-all results are not billed",
	},
	"salesforce-sync": {
		RatePerSecond: 5,
		CostUnit:      "API requests",
		FreeTier:      true,
		WaitAdvice:    "0.5s between leads is enough",
		IdealBatch:    50,
	},
}
