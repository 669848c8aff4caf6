package tracker

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
)

const snapshotPrefix = "usage_"

// Snapshot is the serialized form of one stage's counters. It is written
// exactly once per stage (overwriting on repeat) and read only after the
// writing process has exited.
type Snapshot struct {
	Stage     string              `json:"stage"`
	Timestamp time.Time           `json:"timestamp"`
	Calls     map[string]Counters `json:"calls"`
}

// Snapshot writes the tracker's current counters to dir/usage_<stage>.json.
// Idempotent: calling it again for the same stage overwrites the file. The
// write goes through a temp file so a stage process dying mid-write cannot
// leave a truncated snapshot for the merge to trip over.
func (t *Tracker) Snapshot(dir, stage string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "tracker: mkdir %s", dir)
	}
	snap := Snapshot{
		Stage:     stage,
		Timestamp: t.now(),
		Calls:     t.Counters(),
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return eris.Wrap(err, "tracker: marshal snapshot")
	}
	path := filepath.Join(dir, snapshotPrefix+stage+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "tracker: write snapshot %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "tracker: commit snapshot %s", path)
	}
	return nil
}

// LoadSnapshots reads every usage_*.json snapshot in dir, in name order.
// Unreadable files are skipped rather than failing the whole merge.
func LoadSnapshots(dir string) ([]Snapshot, error) {
	matches, err := filepath.Glob(filepath.Join(dir, snapshotPrefix+"*.json"))
	if err != nil {
		return nil, eris.Wrap(err, "tracker: glob snapshots")
	}
	sort.Strings(matches)

	var snaps []Snapshot
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// Merge combines snapshots from independent stage processes into one counter
// set per label: numeric fields sum, First429At keeps the earliest and
// Last429At the latest timestamp. Merge is associative and commutative.
func Merge(snaps []Snapshot) map[string]Counters {
	merged := make(map[string]Counters)
	for _, snap := range snaps {
		for label, c := range snap.Calls {
			m := merged[label]
			m.Total += c.Total
			m.Success += c.Success
			m.RateLimited += c.RateLimited
			m.ServerErrors += c.ServerErrors
			m.ClientErrors += c.ClientErrors
			m.NetworkErrors += c.NetworkErrors
			if c.First429At != nil && (m.First429At == nil || c.First429At.Before(*m.First429At)) {
				t := *c.First429At
				m.First429At = &t
			}
			if c.Last429At != nil && (m.Last429At == nil || c.Last429At.After(*m.Last429At)) {
				t := *c.Last429At
				m.Last429At = &t
			}
			merged[label] = m
		}
	}
	return merged
}

// CleanupSnapshots removes every snapshot file in dir. Called by the
// orchestrator after a successful merge; a completed run leaves nothing
// behind.
func CleanupSnapshots(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, snapshotPrefix+"*.json"))
	if err != nil {
		return eris.Wrap(err, "tracker: glob snapshots")
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return eris.Wrapf(err, "tracker: remove %s", path)
		}
	}
	return nil
}
