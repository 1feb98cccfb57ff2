// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cvr-compact/internal/manifest"
	"github.com/pdiddy/cvr-compact/pkg/types"
)

const (
	testCandidates = `{"List":[{"Id":5,"ContestId":10,"Description":"Jane Doe"},{"Id":6,"ContestId":10,"Description":"John Roe"}]}`
	testContests   = `{"List":[{"Id":10,"Description":"Mayor"}]}`

	csvHeader = "Election,,\n" +
		",Mayor (RCV),Mayor (RCV)\n" +
		",JANE DOE(1),JOHN ROE(1)\n" +
		"CvrNumber,,\n"
)

// setupInput writes manifests and the given CSV files into a temp dir.
func setupInput(t *testing.T, csvFiles map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, manifest.CandidateFile, testCandidates)
	writeFile(t, dir, manifest.ContestFile, testContests)
	for name, content := range csvFiles {
		writeFile(t, dir, name, content)
	}
	return dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func testConfig(inputDir, output string) types.ConvertConfig {
	return types.ConvertConfig{InputDir: inputDir, Output: output}
}

func TestRunWritesCompactJSON(t *testing.T) {
	in := setupInput(t, map[string]string{
		"CVR_Export_20221108_T042.csv": csvHeader + "7,1,\n8,0,0\n",
	})
	out := filepath.Join(t.TempDir(), "out.json")

	var log bytes.Buffer
	result, err := Run(context.Background(), testConfig(in, out), &log)
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)

	want := `{"Version":"5.10.50.85","ElectionId":"November 8 2022 General Election","Sessions":[` +
		`{"TabulatorId":42,"BatchId":1,"RecordId":"7","CountingGroupId":1,"Original":` +
		`{"PrecinctPortionId":0,"BallotTypeId":0,"IsCurrent":true,"Contests":[` +
		`{"Id":10,"Marks":[{"CandidateId":5,"Rank":1,"MarkDensity":100,"IsAmbiguous":false,"IsVote":true}]}]}}]}`
	assert.Equal(t, want, string(got))

	assert.Equal(t, 1, result.Sessions)
	assert.Equal(t, int64(len(want)), result.OutputBytes)
	assert.False(t, result.Compressed)
	assert.Contains(t, log.String(), "Loaded 2 candidates and 1 contests")
	assert.Contains(t, log.String(), "Processing CVR_Export_20221108_T042.csv (1/1)")
	assert.Contains(t, log.String(), "-> 1 ballots with RCV votes")
	assert.Contains(t, log.String(), "Total sessions: 1")
}

func TestBuildOrdersFilesAndSkipsShort(t *testing.T) {
	in := setupInput(t, map[string]string{
		"CVR_Export_2.csv":  csvHeader + "b1,1,\n",
		"CVR_Export_10.csv": csvHeader + "a1,,1\na2,1,1\n",
		"CVR_Export_5.csv":  "Election\nonly two rows\n",
		"other.csv":         csvHeader + "x,1,1\n",
	})

	env, result, err := Build(context.Background(), testConfig(in, ""), &bytes.Buffer{})
	require.NoError(t, err)

	var ids []string
	for _, s := range env.Sessions {
		ids = append(ids, s.RecordID)
	}
	assert.Equal(t, []string{"a1", "a2", "b1"}, ids, "lexicographic file order, then row order")

	require.Len(t, result.Files, 3)
	assert.Equal(t, "CVR_Export_10.csv", result.Files[0].Name)
	assert.Equal(t, 2, result.Files[0].Ballots)
	assert.Equal(t, []int{10}, result.Files[0].Contests)
	assert.Equal(t, "CVR_Export_2.csv", result.Files[1].Name)
	assert.True(t, result.Files[2].Skipped)
	assert.Equal(t, 1, result.SkippedFiles())
	assert.Equal(t, 3, result.Sessions)
}

func TestRunDeterministic(t *testing.T) {
	in := setupInput(t, map[string]string{
		"CVR_Export_1.csv": csvHeader + "1,1,\n2,,1\n3,1,1\n",
		"CVR_Export_2.csv": csvHeader + "4,,1\n",
	})
	outDir := t.TempDir()

	var outputs [][]byte
	for _, name := range []string{"a.json", "b.json"} {
		out := filepath.Join(outDir, name)
		_, err := Run(context.Background(), testConfig(in, out), &bytes.Buffer{})
		require.NoError(t, err)
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		outputs = append(outputs, data)
	}
	assert.Equal(t, outputs[0], outputs[1])
}

func TestRunGzip(t *testing.T) {
	in := setupInput(t, map[string]string{
		"CVR_Export_1.csv": csvHeader + "1,1,\n2,,1\n",
	})

	tests := []struct {
		name     string
		output   string
		compress bool
	}{
		{"gz suffix", "out.json.gz", false},
		{"explicit flag", "out.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), tt.output)
			cfg := testConfig(in, out)
			cfg.Compress = tt.compress

			result, err := Run(context.Background(), cfg, &bytes.Buffer{})
			require.NoError(t, err)
			assert.True(t, result.Compressed)

			raw, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.Equal(t, gzipMagic, raw[:2])

			env, err := ReadEnvelope(out)
			require.NoError(t, err)
			assert.Equal(t, types.DefaultVersion, env.Version)
			require.Len(t, env.Sessions, 2)
			assert.Equal(t, 6, env.Sessions[1].Original.Contests[0].Marks[0].CandidateID)
		})
	}
}

func TestRunEnvelopeOverrides(t *testing.T) {
	in := setupInput(t, map[string]string{"CVR_Export_1.csv": csvHeader + "1,1,\n"})
	out := filepath.Join(t.TempDir(), "out.json")
	cfg := testConfig(in, out)
	cfg.Version = "5.17.17.1"
	cfg.ElectionID = "June 7 2022 Primary"

	_, err := Run(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)

	env, err := ReadEnvelope(out)
	require.NoError(t, err)
	assert.Equal(t, "5.17.17.1", env.Version)
	assert.Equal(t, "June 7 2022 Primary", env.ElectionID)
}

func TestRunErrors(t *testing.T) {
	t.Run("missing manifest", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, manifest.ContestFile, testContests)
		writeFile(t, dir, "CVR_Export_1.csv", csvHeader)

		out := filepath.Join(t.TempDir(), "out.json")
		_, err := Run(context.Background(), testConfig(dir, out), &bytes.Buffer{})
		assert.ErrorIs(t, err, manifest.ErrManifestMissing)
		assert.NoFileExists(t, out)
	})

	t.Run("no csv files", func(t *testing.T) {
		dir := setupInput(t, nil)
		out := filepath.Join(t.TempDir(), "out.json")
		_, err := Run(context.Background(), testConfig(dir, out), &bytes.Buffer{})
		assert.ErrorIs(t, err, ErrNoCSVFiles)
		assert.NoFileExists(t, out)
	})

	t.Run("cancelled", func(t *testing.T) {
		dir := setupInput(t, map[string]string{"CVR_Export_1.csv": csvHeader + "1,1,\n"})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Run(ctx, testConfig(dir, filepath.Join(t.TempDir(), "out.json")), &bytes.Buffer{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMarshal(t *testing.T) {
	env := types.Envelope{
		Version:    types.DefaultVersion,
		ElectionID: "A & B <test>",
		Sessions:   []types.Session{},
	}
	data, err := Marshal(env)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"ElectionId":"A & B <test>"`)
	assert.True(t, strings.HasSuffix(s, `"Sessions":[]}`))
}

func TestUseGzip(t *testing.T) {
	assert.True(t, UseGzip("cvr.json.gz", false))
	assert.True(t, UseGzip("cvr.json", true))
	assert.False(t, UseGzip("cvr.json", false))
	assert.False(t, UseGzip("cvr.gzip", false))
}

func TestWriteReport(t *testing.T) {
	in := setupInput(t, map[string]string{
		"CVR_Export_1.csv": csvHeader + "1,1,\n",
		"CVR_Export_2.csv": "short\n",
	})
	dir := t.TempDir()
	cfg := testConfig(in, filepath.Join(dir, "out.json.gz"))
	cfg.ReportPath = filepath.Join(dir, "report.yaml")

	var log bytes.Buffer
	_, err := Run(context.Background(), cfg, &log)
	require.NoError(t, err)
	assert.Contains(t, log.String(), "Report written to")

	r, err := ReadReport(cfg.ReportPath)
	require.NoError(t, err)
	assert.NotEmpty(t, r.RunID)
	assert.False(t, r.Timestamp.IsZero())
	assert.Equal(t, in, r.Config.InputDir)
	assert.True(t, r.Config.Compressed)
	assert.Equal(t, types.DefaultElectionID, r.Config.ElectionID)
	assert.Equal(t, 2, r.Summary.Files)
	assert.Equal(t, 1, r.Summary.SkippedFiles)
	assert.Equal(t, 1, r.Summary.Sessions)
	require.Len(t, r.Files, 2)
	assert.Equal(t, "CVR_Export_1.csv", r.Files[0].Name)
	assert.Equal(t, 2, r.Files[0].Columns)
}
