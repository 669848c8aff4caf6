// Package pipeline runs the lead generation stages as a checkpointed,
// resumable sequence. Each stage is an isolated unit of work over the
// shared dataset file; the orchestrator persists progress after every
// stage so an interrupted run can pick up where it left off.
package pipeline

import (
	"context"
	"os"
	"os/exec"

	"github.com/rotisserie/eris"
)

// Stage is one unit of pipeline work. A critical stage's failure halts the
// run; a non-critical stage's failure is recorded and the run continues.
type Stage interface {
	Name() string
	Critical() bool
	Run(ctx context.Context) error
}

// FuncStage adapts a function to the Stage interface. Used in tests and
// for in-process stage wiring.
type FuncStage struct {
	StageName  string
	IsCritical bool
	Fn         func(ctx context.Context) error
}

func (s FuncStage) Name() string   { return s.StageName }
func (s FuncStage) Critical() bool { return s.IsCritical }
func (s FuncStage) Run(ctx context.Context) error {
	return s.Fn(ctx)
}

// ExecStage runs a stage as a child process of the same binary. Process
// isolation means a stage crash cannot corrupt the orchestrator, and each
// stage's usage tracker lives and dies with its own process, writing its
// snapshot on the way out.
type ExecStage struct {
	StageName  string
	IsCritical bool
	Binary     string   // path to the pipeline binary itself
	Args       []string // e.g. ["stage", "discover", "--data", ...]
	Env        []string // extra environment, appended to the parent's
}

func (s ExecStage) Name() string   { return s.StageName }
func (s ExecStage) Critical() bool { return s.IsCritical }

func (s ExecStage) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, s.Binary, s.Args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), s.Env...)

	if err := cmd.Run(); err != nil {
		return eris.Wrapf(err, "pipeline: stage %s", s.StageName)
	}
	return nil
}
