package model

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// ReadDataset loads the intermediate lead dataset from a JSON file. Order is
// preserved; each stage reads the prior stage's full output.
func ReadDataset(path string) ([]Lead, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}
	var leads []Lead
	if err := json.Unmarshal(data, &leads); err != nil {
		return nil, eris.Wrapf(err, "dataset: parse %s", path)
	}
	return leads, nil
}

// WriteDataset writes the full lead dataset atomically: the JSON is written
// to a temp file in the same directory and renamed into place, so an
// interrupted stage never leaves a truncated dataset behind.
func WriteDataset(path string, leads []Lead) error {
	data, err := json.MarshalIndent(leads, "", "  ")
	if err != nil {
		return eris.Wrap(err, "dataset: marshal")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "dataset: mkdir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".dataset-*.json")
	if err != nil {
		return eris.Wrap(err, "dataset: create temp")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "dataset: write temp")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "dataset: close temp")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "dataset: rename to %s", path)
	}
	return nil
}
