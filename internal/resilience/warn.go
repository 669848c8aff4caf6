package resilience

import (
	"fmt"
	"io"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/tracker"
)

// WarnRateLimit prints a visible operator warning when a provider's rate
// limit survives the whole retry budget, including the provider's known
// quota and upgrade guidance from the limits table.
func WarnRateLimit(w io.Writer, label string) {
	lim := tracker.Limits[label]
	bang := strings.Repeat("!", 60)

	fmt.Fprintf(w, "\n%s\n", bang)
	fmt.Fprintf(w, "  RATE LIMIT REACHED: %s\n", label)
	fmt.Fprintf(w, "%s\n", bang)

	if lim.WaitAdvice != "" {
		fmt.Fprintf(w, "  Suggested wait: %s\n", lim.WaitAdvice)
	}
	if lim.MonthlyQuota > 0 {
		fmt.Fprintf(w, "  Monthly quota (free): %d %s\n", lim.MonthlyQuota, lim.CostUnit)
	}
	if lim.IdealBatch > 0 {
		fmt.Fprintf(w, "  Ideal batch: %d leads max per run\n", lim.IdealBatch)
	}
	if lim.CriticalNote != "" {
		fmt.Fprintf(w, "  %s\n", lim.CriticalNote)
	}
	if lim.UpgradePrice != "" {
		fmt.Fprintf(w, "  Upgrade: %s\n", lim.UpgradePrice)
	}
	if lim.UpgradeURL != "" {
		fmt.Fprintf(w, "  URL: %s\n", lim.UpgradeURL)
	}
	fmt.Fprintf(w, "%s\n\n", bang)
}
