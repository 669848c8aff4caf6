package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/tracker"
)

func testIdentity() RunIdentity {
	return RunIdentity{
		Industry: "plumbing supply",
		Location: "Springfield",
		MaxLeads: 50,
		Stages:   []string{"a", "b", "c"},
	}
}

func namedStage(name string, critical bool, ran *[]string, fail error) Stage {
	return FuncStage{
		StageName:  name,
		IsCritical: critical,
		Fn: func(ctx context.Context) error {
			*ran = append(*ran, name)
			return fail
		},
	}
}

func TestRun_AllStagesCompleteAndCleanUp(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "leads.json")
	require.NoError(t, model.WriteDataset(dataPath, []model.Lead{
		{Company: "Acme", Website: "https://acme.example"},
		{Company: "Globex", Website: "https://globex.example"},
	}))

	// Simulate a stage leaving a usage snapshot behind, as real stage
	// processes do on exit.
	tr := tracker.New()
	tr.Record("serper-maps", 200)
	require.NoError(t, tr.Snapshot(dir, "a"))

	var ran []string
	o := NewOrchestrator(testIdentity(), []Stage{
		namedStage("a", true, &ran, nil),
		namedStage("b", true, &ran, nil),
		namedStage("c", false, &ran, nil),
	}, dir, dataPath)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, ran)
	assert.Equal(t, 2, summary.LeadCount)
	assert.Empty(t, summary.Failures)
	assert.Equal(t, 1, summary.Counters["serper-maps"].Success)
	assert.Contains(t, summary.Report, "serper-maps")

	// A completed run leaves no resumable state behind.
	_, err = os.Stat(CheckpointPath(dir))
	assert.True(t, os.IsNotExist(err), "checkpoint must be deleted")
	snaps, err := tracker.LoadSnapshots(dir)
	require.NoError(t, err)
	assert.Empty(t, snaps, "snapshots must be cleaned up")

	// The diagnostic report stays.
	_, err = os.Stat(filepath.Join(dir, "api_diagnostic.txt"))
	assert.NoError(t, err)
}

func TestRun_CriticalFailureHaltsAndKeepsCheckpoint(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "leads.json")
	require.NoError(t, model.WriteDataset(dataPath, []model.Lead{
		{Company: "Acme", Website: "https://acme.example"},
	}))

	// Stage a left a usage snapshot behind before stage b blew up.
	tr := tracker.New()
	tr.Record("serper-maps", 200)
	tr.Record("serper-maps", 429)
	require.NoError(t, tr.Snapshot(dir, "a"))

	rec := &memRecorder{}
	var ran []string
	boom := errors.New("no places returned")
	o := NewOrchestrator(testIdentity(), []Stage{
		namedStage("a", true, &ran, nil),
		namedStage("b", true, &ran, boom),
		namedStage("c", false, &ran, nil),
	}, dir, dataPath, WithRecorder(rec))

	_, err := o.Run(context.Background())
	require.Error(t, err)

	var halt *HaltError
	require.ErrorAs(t, err, &halt)
	assert.Equal(t, "b", halt.Stage)
	assert.Contains(t, halt.Error(), "resumable")

	// Stage c never ran.
	assert.Equal(t, []string{"a", "b"}, ran)

	// A halted run still gets its diagnostic, built from the snapshots
	// written so far.
	assert.Contains(t, halt.Report, "serper-maps")
	_, err = os.Stat(filepath.Join(dir, "api_diagnostic.txt"))
	assert.NoError(t, err)
	assert.Equal(t, "halted", rec.status)
	assert.Equal(t, 1, rec.leadCount)
	assert.Contains(t, rec.report, "serper-maps")

	// The checkpoint survives with stage a recorded, ready for resume,
	// and the snapshots stay so a resumed run can merge them.
	cp, err := LoadCheckpoint(dir)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, []string{"a"}, cp.Completed)
	snaps, err := tracker.LoadSnapshots(dir)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 2, snaps[0].Calls["serper-maps"].Total)
}

func TestRun_NonCriticalFailureContinues(t *testing.T) {
	dir := t.TempDir()

	var ran []string
	o := NewOrchestrator(testIdentity(), []Stage{
		namedStage("a", true, &ran, nil),
		namedStage("b", false, &ran, errors.New("verifier quota exhausted")),
		namedStage("c", false, &ran, nil),
	}, dir, filepath.Join(dir, "leads.json"))

	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, ran)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "b", summary.Failures[0].Stage)

	// Failed stage is not in the completed list; the run still finished
	// and cleared its checkpoint.
	cp, err := LoadCheckpoint(dir)
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestRun_ResumeSkipsCompletedStages(t *testing.T) {
	dir := t.TempDir()
	identity := testIdentity()

	require.NoError(t, SaveCheckpoint(dir, &Checkpoint{
		Identity:  identity,
		Completed: []string{"a", "b"},
	}))

	var ran []string
	o := NewOrchestrator(identity, []Stage{
		namedStage("a", true, &ran, nil),
		namedStage("b", true, &ran, nil),
		namedStage("c", false, &ran, nil),
	}, dir, filepath.Join(dir, "leads.json"), WithResume(true))

	_, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"c"}, ran, "completed stages must not re-run")
}

func TestRun_ResumeDiscardsMismatchedCheckpoint(t *testing.T) {
	dir := t.TempDir()

	other := testIdentity()
	other.Location = "Shelbyville"
	require.NoError(t, SaveCheckpoint(dir, &Checkpoint{
		Identity:  other,
		Completed: []string{"a", "b"},
	}))

	var ran []string
	o := NewOrchestrator(testIdentity(), []Stage{
		namedStage("a", true, &ran, nil),
		namedStage("b", true, &ran, nil),
		namedStage("c", false, &ran, nil),
	}, dir, filepath.Join(dir, "leads.json"), WithResume(true))

	_, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, ran,
		"a checkpoint from different parameters must be ignored")
}

func TestRun_WithoutResumeIgnoresCheckpoint(t *testing.T) {
	dir := t.TempDir()
	identity := testIdentity()

	require.NoError(t, SaveCheckpoint(dir, &Checkpoint{
		Identity:  identity,
		Completed: []string{"a"},
	}))

	var ran []string
	o := NewOrchestrator(identity, []Stage{
		namedStage("a", true, &ran, nil),
		namedStage("b", true, &ran, nil),
	}, dir, filepath.Join(dir, "leads.json"))

	_, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ran)
}

type memRecorder struct {
	status    string
	completed []string
	leadCount int
	report    string
}

func (r *memRecorder) RecordRun(_ context.Context, _ RunIdentity, status string, completed []string, leadCount int, report string) error {
	r.status = status
	r.completed = append([]string(nil), completed...)
	r.leadCount = leadCount
	r.report = report
	return nil
}

func TestRun_RecordsHistory(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "leads.json")
	require.NoError(t, model.WriteDataset(dataPath, []model.Lead{{Company: "Acme"}}))

	rec := &memRecorder{}
	var ran []string
	o := NewOrchestrator(testIdentity(), []Stage{
		namedStage("a", true, &ran, nil),
	}, dir, dataPath, WithRecorder(rec))

	_, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "completed", rec.status)
	assert.Equal(t, []string{"a"}, rec.completed)
	assert.Equal(t, 1, rec.leadCount)
}

func TestCheckpoint_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	cp := &Checkpoint{Identity: testIdentity(), Completed: []string{"a"}}
	require.NoError(t, SaveCheckpoint(dir, cp))

	loaded, err := LoadCheckpoint(dir)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, loaded.Identity.Equal(cp.Identity))
	assert.Equal(t, []string{"a"}, loaded.Completed)
	assert.False(t, loaded.UpdatedAt.IsZero())

	require.NoError(t, DeleteCheckpoint(dir))
	gone, err := LoadCheckpoint(dir)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// Deleting twice is fine.
	require.NoError(t, DeleteCheckpoint(dir))
}

func TestRunIdentity_Equal(t *testing.T) {
	a := testIdentity()
	b := testIdentity()
	assert.True(t, a.Equal(b))

	b.MaxLeads = 100
	assert.False(t, a.Equal(b))

	b = testIdentity()
	b.Stages = []string{"a", "c", "b"}
	assert.False(t, a.Equal(b), "stage order is part of the identity")
}
