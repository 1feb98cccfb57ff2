// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert drives a whole export directory through the column mapper
// and ballot extractor and writes one compact CVR JSON document.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/pdiddy/cvr-compact/internal/cvrcsv"
	"github.com/pdiddy/cvr-compact/internal/manifest"
	"github.com/pdiddy/cvr-compact/pkg/types"
)

// csvPattern matches the CSV exports inside an input directory.
const csvPattern = "CVR_Export_*.csv"

// ErrNoCSVFiles is returned when the input directory has no CVR exports.
var ErrNoCSVFiles = errors.New("no CVR_Export_*.csv files found")

// FileResult records the outcome for one CSV file.
type FileResult struct {
	Name     string `yaml:"name"`
	Ballots  int    `yaml:"ballots"`
	Columns  int    `yaml:"mapped_columns"`
	Contests []int  `yaml:"contests,omitempty"`
	Skipped  bool   `yaml:"skipped,omitempty"`
}

// Result summarizes a conversion run.
type Result struct {
	Candidates  int
	Contests    int
	Files       []FileResult
	Sessions    int
	OutputPath  string
	OutputBytes int64
	Compressed  bool
}

// SkippedFiles returns the number of files skipped for a short header.
func (r Result) SkippedFiles() int {
	n := 0
	for _, f := range r.Files {
		if f.Skipped {
			n++
		}
	}
	return n
}

// FindCSVFiles returns the CVR exports in dir in lexicographic order.
func FindCSVFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, csvPattern))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoCSVFiles)
	}
	sort.Strings(files)
	return files, nil
}

// Build loads manifests and converts every CSV export in cfg.InputDir into
// an envelope. Progress lines are written to w.
func Build(ctx context.Context, cfg types.ConvertConfig, w io.Writer) (types.Envelope, Result, error) {
	var result Result

	m, err := manifest.Load(cfg.InputDir)
	if err != nil {
		return types.Envelope{}, result, err
	}
	result.Candidates = m.Candidates.Len()
	result.Contests = m.Contests.Len()
	fmt.Fprintf(w, "Loaded %d candidates and %d contests\n", result.Candidates, result.Contests)

	files, err := FindCSVFiles(cfg.InputDir)
	if err != nil {
		return types.Envelope{}, result, err
	}
	fmt.Fprintf(w, "Found %d CSV files to process\n", len(files))

	env := types.Envelope{
		Version:    cfg.EnvelopeVersion(),
		ElectionID: cfg.EnvelopeElectionID(),
		Sessions:   []types.Session{},
	}

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return types.Envelope{}, result, err
		}

		name := filepath.Base(path)
		fmt.Fprintf(w, "Processing %s (%d/%d)...\n", name, i+1, len(files))

		fr, sessions, err := convertFile(path, m, cfg.RCVOnly())
		if err != nil {
			return types.Envelope{}, result, err
		}
		env.Sessions = append(env.Sessions, sessions...)
		result.Files = append(result.Files, fr)

		if fr.Skipped {
			fmt.Fprintf(w, "  -> skipped (fewer than 4 header rows)\n")
			continue
		}
		fmt.Fprintf(w, "  -> %d ballots with RCV votes\n", fr.Ballots)
	}

	result.Sessions = len(env.Sessions)
	fmt.Fprintf(w, "\nTotal sessions: %d\n", result.Sessions)
	return env, result, nil
}

func convertFile(path string, m *manifest.Manifests, rcvOnly bool) (FileResult, []types.Session, error) {
	fr := FileResult{Name: filepath.Base(path)}

	e, err := cvrcsv.NewExtractor(path, m, rcvOnly)
	if errors.Is(err, cvrcsv.ErrShortHeader) {
		slog.Debug("skipping file with short header", "file", fr.Name)
		fr.Skipped = true
		return fr, nil, nil
	}
	if err != nil {
		return fr, nil, err
	}
	defer e.Close()

	cols := e.Columns()
	fr.Columns = len(cols.Columns)
	fr.Contests = cols.Contests()
	for reason, n := range cols.Skipped {
		slog.Debug("skipped columns", "file", fr.Name, "reason", string(reason), "count", n)
	}

	var sessions []types.Session
	for {
		s, ok, err := e.Next()
		if err != nil {
			return fr, nil, err
		}
		if !ok {
			break
		}
		sessions = append(sessions, s)
	}
	fr.Ballots = len(sessions)
	return fr, sessions, nil
}

// Run converts cfg.InputDir and writes the envelope to cfg.Output. When
// cfg.ReportPath is set a YAML report of the run is written as well.
func Run(ctx context.Context, cfg types.ConvertConfig, w io.Writer) (Result, error) {
	env, result, err := Build(ctx, cfg, w)
	if err != nil {
		return result, err
	}

	compress := UseGzip(cfg.Output, cfg.Compress)
	size, err := WriteEnvelope(cfg.Output, env, compress)
	if err != nil {
		return result, err
	}
	result.OutputPath = cfg.Output
	result.OutputBytes = size
	result.Compressed = compress

	fmt.Fprintf(w, "\nWritten to %s\n", cfg.Output)
	fmt.Fprintf(w, "Output size: %.1f MB\n", float64(size)/1024/1024)

	if cfg.ReportPath != "" {
		if err := WriteReport(cfg.ReportPath, cfg, result); err != nil {
			return result, err
		}
		fmt.Fprintf(w, "Report written to %s\n", cfg.ReportPath)
	}
	return result, nil
}

// outputSize stats path, returning 0 if it cannot be read.
func outputSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
