package batch

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Manifest summarizes one batch run. It is written as manifest.json in the
// output directory.
type Manifest struct {
	RunID     string    `json:"run_id"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	InputDir  string    `json:"input_dir"`
	OutputDir string    `json:"output_dir"`
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Files     []Result  `json:"files"`
}

// NewManifest builds the manifest for a finished run under a fresh run id.
func NewManifest(cfg Config, started time.Time, results []Result) Manifest {
	m := Manifest{
		RunID:     uuid.NewString(),
		Started:   started.UTC(),
		Finished:  time.Now().UTC(),
		InputDir:  cfg.InputDir,
		OutputDir: cfg.OutputDir,
		Total:     len(results),
		Files:     results,
	}
	m.Failed = countFailed(results)
	m.Succeeded = m.Total - m.Failed
	return m
}

// WriteManifest writes the manifest as indented JSON.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("batch: manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("batch: manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("batch: manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("batch: manifest %s: %w", path, err)
	}
	return m, nil
}
