// Package store persists run history so past pipeline runs can be listed
// and inspected after the fact.
package store

import (
	"context"
	"time"

	"github.com/sells-group/leadgen-cli/internal/pipeline"
)

// Run is one recorded pipeline run.
type Run struct {
	ID        string               `json:"id"`
	Identity  pipeline.RunIdentity `json:"identity"`
	Status    string               `json:"status"` // "completed" or "halted"
	Completed []string             `json:"completed_stages"`
	LeadCount int                  `json:"lead_count"`
	Report    string               `json:"report,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	Status   string
	Industry string
	Limit    int
	Offset   int
}

// Store is the run-history repository.
type Store interface {
	pipeline.RunRecorder
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	GetRun(ctx context.Context, id string) (*Run, error)
	Close() error
}
