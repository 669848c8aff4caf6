package pipeline

import (
	"context"
	"slices"
	"time"

	"github.com/rotisserie/eris"
)

// Stage names in execution order. Discovery, qualification, and enrichment
// are critical: nothing downstream means anything without them. The rest
// degrade gracefully.
const (
	StageDiscover = "discover"
	StageQualify  = "qualify"
	StageEnrich   = "enrich"
	StageVerify   = "verify"
	StageScore    = "score"
	StageExport   = "export"
	StageSync     = "sync"
)

// StageOrder is the fixed stage sequence of a full run.
var StageOrder = []string{
	StageDiscover,
	StageQualify,
	StageEnrich,
	StageVerify,
	StageScore,
	StageExport,
	StageSync,
}

var criticalStages = map[string]bool{
	StageDiscover: true,
	StageQualify:  true,
	StageEnrich:   true,
}

// IsCritical reports whether a stage failure halts the run.
func IsCritical(name string) bool { return criticalStages[name] }

// KnownStage reports whether the name is a real stage.
func KnownStage(name string) bool { return slices.Contains(StageOrder, name) }

// stageSleep is the context-aware inter-lead pause every stage uses to
// stay under per-provider burst limits.
func stageSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "pipeline: sleep interrupted")
	case <-t.C:
		return nil
	}
}
