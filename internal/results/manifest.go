// Package results records what a pipeline run read, produced and measured.
package results

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/bookclean/internal/cleaning"
	"github.com/lehigh-university-libraries/bookclean/internal/config"
	"github.com/lehigh-university-libraries/bookclean/internal/ingest"
)

// ManifestName is the file name used when the manifest sits next to the outputs.
const ManifestName = "run_manifest.yaml"

// Manifest describes a single run of the cleaning pipeline.
type Manifest struct {
	RunID     string            `yaml:"run_id"`
	Command   string            `yaml:"command"`
	Timestamp string            `yaml:"timestamp"`
	Profile   config.Profile    `yaml:"profile"`
	Inputs    map[string]string `yaml:"inputs"`
	Outputs   map[string]string `yaml:"outputs,omitempty"`

	Ingest   *ingest.Stats        `yaml:"ingest,omitempty"`
	Cleaning *cleaning.QuickStats `yaml:"cleaning,omitempty"`
}

// NewManifest starts a manifest for command with a fresh run id.
func NewManifest(command string, profile config.Profile) *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		Command:   command,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Profile:   profile,
		Inputs:    make(map[string]string),
		Outputs:   make(map[string]string),
	}
}

// AddInput records an input path under name.
func (m *Manifest) AddInput(name, path string) {
	m.Inputs[name] = absolute(path)
}

// AddOutput records an output path under name.
func (m *Manifest) AddOutput(name, path string) {
	m.Outputs[name] = absolute(path)
}

// SaveToYAML writes the manifest to path, creating parent directories.
func (m *Manifest) SaveToYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}

	slog.Info("Run manifest saved", "path", absolute(path), "run_id", m.RunID)
	return nil
}

// LoadManifest reads a manifest written by SaveToYAML.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}

func absolute(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
