// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cvrcsv

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cvr-compact/internal/manifest"
)

const (
	fixtureCandidates = `{"List":[
		{"Id":5,"ContestId":10,"Description":"Jane Doe"},
		{"Id":6,"ContestId":10,"Description":"John Roe"},
		{"Id":7,"ContestId":10,"Description":"Write-in","Type":"WriteIn"},
		{"Id":30,"ContestId":20,"Description":"Yes"},
		{"Id":31,"ContestId":20,"Description":"No"}
	]}`
	fixtureContests = `{"List":[
		{"Id":10,"Description":"Mayor"},
		{"Id":20,"Description":"Measure A"}
	]}`
)

// fixtureHeader returns the four header rows used by most tests. Column 0
// is CvrNumber so the record id column sits at index 0.
func fixtureHeader() [][]string {
	return [][]string{
		{"November 8 2022 General Election", "5.10.50.85", "", "", "", "", "", "", "", ""},
		{"", "", "", "", "Mayor (RCV)", "Mayor (RCV)", "Mayor (RCV)", "Mayor (RCV)", "Mayor (RCV)", "Measure A"},
		{"", "", "", "", "JANE DOE(1)", "JOHN ROE(1)", "JANE DOE(2)", "JOHN ROE(2)", "WRITE-IN 1(3)", "Yes(1)"},
		{"CvrNumber", "TabulatorNum", "BatchId", "PrecinctPortion", "", "", "", "", "", ""},
	}
}

func loadFixtureManifests(t *testing.T) *manifest.Manifests {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.CandidateFile), []byte(fixtureCandidates), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.ContestFile), []byte(fixtureContests), 0o644))
	m, err := manifest.Load(dir)
	require.NoError(t, err)
	return m
}

func writeCSV(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(rows))
	return path
}

func withRows(header [][]string, rows ...[]string) [][]string {
	out := make([][]string, 0, len(header)+len(rows))
	out = append(out, header...)
	return append(out, rows...)
}
