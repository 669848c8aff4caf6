package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/tracker"
)

// HaltError is returned when a critical stage fails. The checkpoint and
// usage snapshots are left in place so the run can be resumed; Report
// carries the partial diagnostic built from the stages that did run.
type HaltError struct {
	Stage  string
	Report string
	Err    error
}

func (e *HaltError) Error() string {
	return fmt.Sprintf("pipeline: halted at critical stage %s (resumable): %v", e.Stage, e.Err)
}

func (e *HaltError) Unwrap() error { return e.Err }

// StageFailure records a non-critical stage that failed without stopping
// the run.
type StageFailure struct {
	Stage string
	Err   error
}

// Summary is the outcome of a completed (not halted) run.
type Summary struct {
	LeadCount int
	Failures  []StageFailure
	Report    string
	Counters  map[string]tracker.Counters
}

// RunRecorder persists run history. Implemented by the store.
type RunRecorder interface {
	RecordRun(ctx context.Context, identity RunIdentity, status string, completed []string, leadCount int, report string) error
}

// Orchestrator drives the stage sequence with checkpointing.
type Orchestrator struct {
	identity RunIdentity
	stages   []Stage
	workDir  string
	dataPath string
	resume   bool
	recorder RunRecorder
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithResume enables checkpoint resumption.
func WithResume(resume bool) OrchestratorOption {
	return func(o *Orchestrator) { o.resume = resume }
}

// WithRecorder sets the run-history recorder.
func WithRecorder(r RunRecorder) OrchestratorOption {
	return func(o *Orchestrator) { o.recorder = r }
}

// NewOrchestrator builds an orchestrator for one run. workDir holds the
// checkpoint, usage snapshots, and diagnostic report; dataPath is the
// shared dataset file the stages hand to each other.
func NewOrchestrator(identity RunIdentity, stages []Stage, workDir, dataPath string, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		identity: identity,
		stages:   stages,
		workDir:  workDir,
		dataPath: dataPath,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes all pending stages in order. On a critical stage failure it
// emits a diagnostic report from the snapshots gathered so far, keeps the
// checkpoint and snapshots, and returns a *HaltError; on completion it
// merges the usage snapshots into the diagnostic report, cleans up, and
// deletes the checkpoint. Either way the run ends with a report.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	log := zap.L().With(
		zap.String("industry", o.identity.Industry),
		zap.String("location", o.identity.Location),
	)

	cp, err := o.loadOrStart(log)
	if err != nil {
		return nil, err
	}

	var failures []StageFailure
	for _, stage := range o.stages {
		if cp.Done(stage.Name()) {
			log.Info("pipeline: stage already completed, skipping",
				zap.String("stage", stage.Name()))
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "pipeline: run interrupted")
		}

		log.Info("pipeline: stage starting", zap.String("stage", stage.Name()))
		start := time.Now()
		err := stage.Run(ctx)
		elapsed := time.Since(start)

		if err != nil {
			if stage.Critical() {
				log.Error("pipeline: critical stage failed, halting",
					zap.String("stage", stage.Name()),
					zap.Duration("elapsed", elapsed),
					zap.Error(err),
				)
				return nil, o.halt(ctx, cp, stage.Name(), err)
			}
			log.Warn("pipeline: non-critical stage failed, continuing",
				zap.String("stage", stage.Name()),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
			failures = append(failures, StageFailure{Stage: stage.Name(), Err: err})
			continue
		}

		// Persist progress immediately: a crash after this point cannot
		// lose the stage.
		cp.Completed = append(cp.Completed, stage.Name())
		if err := SaveCheckpoint(o.workDir, cp); err != nil {
			return nil, err
		}
		log.Info("pipeline: stage complete",
			zap.String("stage", stage.Name()),
			zap.Duration("elapsed", elapsed),
		)
	}

	summary, err := o.finish(ctx, cp, failures)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// loadOrStart returns the checkpoint to run under: the saved one when
// resuming the same run identity, a fresh one otherwise.
func (o *Orchestrator) loadOrStart(log *zap.Logger) (*Checkpoint, error) {
	fresh := &Checkpoint{Identity: o.identity}
	if !o.resume {
		return fresh, nil
	}

	cp, err := LoadCheckpoint(o.workDir)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		log.Info("pipeline: no checkpoint found, starting fresh")
		return fresh, nil
	}
	if !cp.Identity.Equal(o.identity) {
		log.Warn("pipeline: checkpoint is for a different run, discarding",
			zap.String("checkpoint_industry", cp.Identity.Industry),
			zap.String("checkpoint_location", cp.Identity.Location),
		)
		return fresh, nil
	}

	log.Info("pipeline: resuming from checkpoint",
		zap.Strings("completed", cp.Completed),
		zap.Time("updated_at", cp.UpdatedAt),
	)
	return cp, nil
}

// halt builds the diagnostic from whatever usage snapshots the stages that
// did run left behind. Unlike finish it deletes nothing: the snapshots
// stay so a resumed run merges them with the remaining stages' usage, and
// the checkpoint stays so the resume knows where to pick up.
func (o *Orchestrator) halt(ctx context.Context, cp *Checkpoint, stageName string, stageErr error) *HaltError {
	leadCount := o.countLeads()

	var report string
	snaps, err := tracker.LoadSnapshots(o.workDir)
	if err != nil {
		zap.L().Warn("pipeline: could not load usage snapshots after halt", zap.Error(err))
	} else if len(snaps) > 0 {
		counters := tracker.Merge(snaps)
		report = tracker.Report(counters, leadCount)
		if _, err := tracker.SaveReport(counters, leadCount, o.workDir); err != nil {
			zap.L().Warn("pipeline: could not save diagnostic report after halt", zap.Error(err))
		}
	}

	o.record(ctx, "halted", cp.Completed, leadCount, report)
	return &HaltError{Stage: stageName, Report: report, Err: stageErr}
}

// finish merges the per-stage usage snapshots, emits the diagnostic
// report, and clears all resumable state.
func (o *Orchestrator) finish(ctx context.Context, cp *Checkpoint, failures []StageFailure) (*Summary, error) {
	leadCount := o.countLeads()

	snaps, err := tracker.LoadSnapshots(o.workDir)
	if err != nil {
		return nil, err
	}
	counters := tracker.Merge(snaps)
	report := tracker.Report(counters, leadCount)

	if _, err := tracker.SaveReport(counters, leadCount, o.workDir); err != nil {
		return nil, err
	}
	if err := tracker.CleanupSnapshots(o.workDir); err != nil {
		zap.L().Warn("pipeline: snapshot cleanup failed", zap.Error(err))
	}
	if err := DeleteCheckpoint(o.workDir); err != nil {
		return nil, err
	}

	o.record(ctx, "completed", cp.Completed, leadCount, report)

	return &Summary{
		LeadCount: leadCount,
		Failures:  failures,
		Report:    report,
		Counters:  counters,
	}, nil
}

// countLeads reads the dataset to report how many leads the run produced.
// A missing or unreadable dataset is reported as zero, not an error: the
// report must still come out after a partially failed run.
func (o *Orchestrator) countLeads() int {
	leads, err := model.ReadDataset(o.dataPath)
	if err != nil {
		zap.L().Warn("pipeline: could not count leads", zap.Error(err))
		return 0
	}
	return len(leads)
}

func (o *Orchestrator) record(ctx context.Context, status string, completed []string, leadCount int, report string) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordRun(ctx, o.identity, status, completed, leadCount, report); err != nil {
		zap.L().Warn("pipeline: failed to record run history", zap.Error(err))
	}
}
