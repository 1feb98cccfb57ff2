// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cvr-compact/pkg/types"
)

// Report is the on-disk YAML summary of a conversion run. It sits next to
// the output so an analyst can see which exports contributed ballots.
type Report struct {
	RunID     string        `yaml:"run_id"`
	Timestamp time.Time     `yaml:"timestamp"`
	Config    ReportConfig  `yaml:"config"`
	Files     []FileResult  `yaml:"files"`
	Summary   ReportSummary `yaml:"summary"`
}

// ReportConfig stores the settings that produced the output.
type ReportConfig struct {
	InputDir    string `yaml:"input_dir"`
	Output      string `yaml:"output"`
	AllContests bool   `yaml:"all_contests"`
	Compressed  bool   `yaml:"compressed"`
	Version     string `yaml:"version"`
	ElectionID  string `yaml:"election_id"`
}

// ReportSummary stores run totals.
type ReportSummary struct {
	Candidates   int   `yaml:"candidates"`
	Contests     int   `yaml:"contests"`
	Files        int   `yaml:"files"`
	SkippedFiles int   `yaml:"skipped_files"`
	Sessions     int   `yaml:"sessions"`
	OutputBytes  int64 `yaml:"output_bytes"`
}

// NewReport builds a report for a finished run.
func NewReport(cfg types.ConvertConfig, result Result) Report {
	return Report{
		RunID:     uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Config: ReportConfig{
			InputDir:    cfg.InputDir,
			Output:      result.OutputPath,
			AllContests: cfg.AllContests,
			Compressed:  result.Compressed,
			Version:     cfg.EnvelopeVersion(),
			ElectionID:  cfg.EnvelopeElectionID(),
		},
		Files: result.Files,
		Summary: ReportSummary{
			Candidates:   result.Candidates,
			Contests:     result.Contests,
			Files:        len(result.Files),
			SkippedFiles: result.SkippedFiles(),
			Sessions:     result.Sessions,
			OutputBytes:  result.OutputBytes,
		},
	}
}

// WriteReport saves the run summary to a YAML file.
func WriteReport(path string, cfg types.ConvertConfig, result Result) error {
	r := NewReport(cfg, result)
	data, err := yaml.Marshal(&r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadReport loads a previously written report.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return &r, nil
}
