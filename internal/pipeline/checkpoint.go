package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/rotisserie/eris"
)

// checkpointFile is the checkpoint's filename inside the working directory.
const checkpointFile = "checkpoint.json"

// RunIdentity pins a checkpoint to the parameters that produced it. A
// checkpoint only resumes a run invoked with identical parameters; anything
// else is a different run and starts fresh.
type RunIdentity struct {
	Industry string   `json:"industry"`
	Location string   `json:"location"`
	MaxLeads int      `json:"max_leads"`
	Stages   []string `json:"stages"`
}

// Equal reports whether two identities describe the same run.
func (id RunIdentity) Equal(other RunIdentity) bool {
	return id.Industry == other.Industry &&
		id.Location == other.Location &&
		id.MaxLeads == other.MaxLeads &&
		slices.Equal(id.Stages, other.Stages)
}

// Checkpoint is the persisted progress of a run.
type Checkpoint struct {
	Identity  RunIdentity `json:"identity"`
	Completed []string    `json:"completed_stages"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Done reports whether the named stage already completed in this run.
func (c *Checkpoint) Done(stage string) bool {
	return slices.Contains(c.Completed, stage)
}

// CheckpointPath returns the checkpoint location for a working directory.
func CheckpointPath(dir string) string {
	return filepath.Join(dir, checkpointFile)
}

// LoadCheckpoint reads a checkpoint from the working directory. A missing
// file returns (nil, nil): no previous run to resume.
func LoadCheckpoint(dir string) (*Checkpoint, error) {
	data, err := os.ReadFile(CheckpointPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "pipeline: read checkpoint")
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, eris.Wrap(err, "pipeline: decode checkpoint")
	}
	return &cp, nil
}

// SaveCheckpoint writes the checkpoint atomically so a crash mid-write
// cannot leave a truncated file behind.
func SaveCheckpoint(dir string, cp *Checkpoint) error {
	cp.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return eris.Wrap(err, "pipeline: encode checkpoint")
	}

	tmp := CheckpointPath(dir) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrap(err, "pipeline: write checkpoint")
	}
	if err := os.Rename(tmp, CheckpointPath(dir)); err != nil {
		return eris.Wrap(err, "pipeline: commit checkpoint")
	}
	return nil
}

// DeleteCheckpoint removes the checkpoint. A completed run leaves no
// resumable state behind; deleting an absent file is not an error.
func DeleteCheckpoint(dir string) error {
	if err := os.Remove(CheckpointPath(dir)); err != nil && !os.IsNotExist(err) {
		return eris.Wrap(err, "pipeline: delete checkpoint")
	}
	return nil
}
