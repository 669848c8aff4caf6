package tracker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Report renders a diagnostic for the given merged counters. The output is a
// pure function of counters and numLeads — no wall clock — so identical
// inputs always produce identical text.
func Report(counters map[string]Counters, numLeads int) string {
	var b strings.Builder
	rule := strings.Repeat("=", 70)

	fmt.Fprintf(&b, "\n%s\n", rule)
	b.WriteString("  API DIAGNOSTIC REPORT — Lead Generation Pipeline\n")
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "  Leads processed: %d\n\n", numLeads)

	b.WriteString("  PROVIDER                    | Calls | OK  | 429 | Err | Status\n")
	b.WriteString("  " + strings.Repeat("-", 66) + "\n")

	labels := make([]string, 0, len(counters))
	for label := range counters {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var problemLabels []string
	type nearQuota struct {
		label string
		used  int
		quota int
	}
	var nearLimits []nearQuota

	for _, label := range labels {
		c := counters[label]
		errCount := c.ServerErrors + c.NetworkErrors + c.ClientErrors

		var status string
		switch {
		case c.RateLimited > 0:
			status = "!! RATE LIMIT"
			problemLabels = append(problemLabels, label)
		case errCount > 0:
			status = "!  ERRORS"
			problemLabels = append(problemLabels, label)
		default:
			status = "OK"
		}

		name := label
		if len(name) > 28 {
			name = name[:28]
		}
		fmt.Fprintf(&b, "  %-28s| %5d | %3d | %3d | %3d | %s\n",
			name, c.Total, c.Success, c.RateLimited, errCount, status)

		if lim, ok := Limits[label]; ok && lim.MonthlyQuota > 0 &&
			c.Success*10 >= lim.MonthlyQuota*7 {
			nearLimits = append(nearLimits, nearQuota{label, c.Success, lim.MonthlyQuota})
		}
	}
	b.WriteString("\n")

	if len(problemLabels) > 0 {
		bang := strings.Repeat("!", 70)
		fmt.Fprintf(&b, "  %s\n  PROVIDERS WITH PROBLEMS:\n  %s\n\n", bang, bang)

		for _, label := range problemLabels {
			c := counters[label]
			lim := Limits[label]
			fmt.Fprintf(&b, "  [%s]\n", label)

			if c.RateLimited > 0 {
				fmt.Fprintf(&b, "    Rate limit (429) hit %d times\n", c.RateLimited)
				if c.First429At != nil {
					fmt.Fprintf(&b, "    First 429 at: %s\n", c.First429At.Format(time.RFC3339))
				}
			}
			if c.ServerErrors > 0 {
				fmt.Fprintf(&b, "    Server errors (5xx): %d\n", c.ServerErrors)
			}
			if c.NetworkErrors > 0 {
				fmt.Fprintf(&b, "    Network errors: %d\n", c.NetworkErrors)
			}
			if c.ClientErrors > 0 {
				fmt.Fprintf(&b, "    Client errors (4xx): %d\n", c.ClientErrors)
			}

			b.WriteString("\n    RECOMMENDATIONS:\n")
			if lim.WaitAdvice != "" {
				fmt.Fprintf(&b, "    - Delay: %s\n", lim.WaitAdvice)
			}
			if lim.IdealBatch > 0 {
				fmt.Fprintf(&b, "    - Ideal batch: %d leads per run\n", lim.IdealBatch)
			}
			if lim.MonthlyQuota > 0 {
				fmt.Fprintf(&b, "    - Monthly quota (free): %d %s\n", lim.MonthlyQuota, lim.CostUnit)
			}
			if lim.UpgradePrice != "" {
				fmt.Fprintf(&b, "    - Upgrade: %s\n", lim.UpgradePrice)
			}
			if lim.UpgradeURL != "" {
				fmt.Fprintf(&b, "    - URL: %s\n", lim.UpgradeURL)
			}
			if lim.CriticalNote != "" {
				fmt.Fprintf(&b, "    - WARNING: %s\n", lim.CriticalNote)
			}
			if lim.Note != "" {
				fmt.Fprintf(&b, "    - Note: %s\n", lim.Note)
			}
			b.WriteString("\n")
		}
	}

	if len(nearLimits) > 0 {
		b.WriteString("  " + strings.Repeat("-", 70) + "\n")
		b.WriteString("  WARNING — QUOTAS NEAR THE LIMIT:\n\n")
		for _, nq := range nearLimits {
			pct := nq.used * 100 / nq.quota
			fmt.Fprintf(&b, "  [%s] %d/%d credits used (%d%%)\n", nq.label, nq.used, nq.quota, pct)
			lim := Limits[nq.label]
			if lim.UpgradePrice != "" {
				fmt.Fprintf(&b, "    Upgrade: %s\n", lim.UpgradePrice)
			}
			if lim.UpgradeURL != "" {
				fmt.Fprintf(&b, "    URL: %s\n", lim.UpgradeURL)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "  %s\n  GENERAL RECOMMENDATIONS:\n  %s\n\n", rule, rule)

	// Find the most constrained tracked provider by monthly quota.
	minQuota := 0
	constraining := ""
	for _, label := range labels {
		lim, ok := Limits[label]
		if !ok || lim.MonthlyQuota == 0 {
			continue
		}
		if constraining == "" || lim.MonthlyQuota < minQuota {
			minQuota = lim.MonthlyQuota
			constraining = label
		}
	}
	if constraining != "" {
		lim := Limits[constraining]
		fmt.Fprintf(&b, "  Most constrained provider: %s\n", constraining)
		fmt.Fprintf(&b, "    Monthly quota: %d %s\n", minQuota, lim.CostUnit)
		if numLeads > 0 {
			remaining := minQuota - counters[constraining].Success
			if remaining < 0 {
				remaining = 0
			}
			fmt.Fprintf(&b, "    Estimated credits remaining: ~%d\n", remaining)
			fmt.Fprintf(&b, "    Leads possible this month: ~%d\n", remaining)
		}
		b.WriteString("\n")
	}

	if numLeads > 30 {
		fmt.Fprintf(&b, "  For %d leads, consider:\n", numLeads)
		b.WriteString("    - Hunter.io: Starter plan ($49/mo, 500 searches)\n")
		b.WriteString("    - Firecrawl: Hobby plan ($16/mo, 3,000 scrapes)\n")
		b.WriteString("    - MillionVerifier: credit pack ($15 for the first credits)\n")
	} else {
		fmt.Fprintf(&b, "  For %d leads, the free tier covers most providers.\n", numLeads)
		b.WriteString("  Only Hunter.io (25 free credits/mo) is likely to be limiting.\n")
	}

	b.WriteString("\n  Suggested wait before re-running a search:\n")
	b.WriteString("    - No 429s: re-run immediately\n")
	b.WriteString("    - 429 on one provider: wait 5-10 minutes\n")
	b.WriteString("    - 429 on several providers: wait 30-60 minutes\n")
	b.WriteString("    - Monthly quotas exhausted: wait for next month or upgrade\n")
	fmt.Fprintf(&b, "\n%s\n", rule)

	return b.String()
}

// SaveReport writes the human-readable report and the machine-readable
// counters to dir. Returns the report text.
func SaveReport(counters map[string]Counters, numLeads int, dir string) (string, error) {
	report := Report(counters, numLeads)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "tracker: mkdir %s", dir)
	}
	if err := os.WriteFile(filepath.Join(dir, "api_diagnostic.txt"), []byte(report), 0o644); err != nil {
		return "", eris.Wrap(err, "tracker: write report")
	}

	raw, err := json.MarshalIndent(struct {
		NumLeads int                 `json:"num_leads"`
		Calls    map[string]Counters `json:"calls"`
	}{numLeads, counters}, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "tracker: marshal counters")
	}
	if err := os.WriteFile(filepath.Join(dir, "api_tracker.json"), raw, 0o644); err != nil {
		return "", eris.Wrap(err, "tracker: write counters")
	}

	return report, nil
}
