//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main contains Mage build targets for cvr-compact developer tooling.
package main

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir    = "bin"
	binName   = "cvr-compact"
	cmdPkg    = "./cmd/cvr-compact"
	sampleDir = "sample"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Sample writes a small synthetic export under sample/ and converts it with
// the freshly built binary, then loads the result into a ballot index.
func Sample() error {
	mg.Deps(Build)

	input := filepath.Join(sampleDir, "input")
	if err := writeSampleInput(input); err != nil {
		return err
	}

	bin := filepath.Join(binDir, binName)
	out := filepath.Join(sampleDir, "cvr.json.gz")
	if err := sh.RunV(bin, input, out, "--report", filepath.Join(sampleDir, "report.yaml")); err != nil {
		return err
	}
	return sh.RunV(bin, "index", out, filepath.Join(sampleDir, "ballots.db"), "--summary")
}

var sampleCandidates = `{"List":[
{"Id":1,"ContestId":10,"Description":"ALICE"},
{"Id":2,"ContestId":10,"Description":"BOB"},
{"Id":3,"ContestId":10,"Description":"Write-in"},
{"Id":4,"ContestId":20,"Description":"YES"},
{"Id":5,"ContestId":20,"Description":"NO"}]}
`

var sampleContests = `{"List":[
{"Id":10,"Description":"Mayor"},
{"Id":20,"Description":"Measure A"}]}
`

// writeSampleInput lays out manifests and one CVR_Export file with an RCV
// contest ranked three deep and a plain measure.
func writeSampleInput(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	files := map[string]string{
		"CandidateManifest.json": sampleCandidates,
		"ContestManifest.json":   sampleContests,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	contests := []string{"", "", "", ""}
	candidates := []string{"", "", "", ""}
	header := []string{"CvrNumber", "TabulatorNum", "BatchId", "RecordId"}
	for rank := 1; rank <= 3; rank++ {
		for _, c := range []string{"ALICE", "BOB", "Write-in"} {
			contests = append(contests, "Mayor (RCV)")
			candidates = append(candidates, fmt.Sprintf("%s(%d)", c, rank))
			header = append(header, "")
		}
	}
	for _, c := range []string{"YES", "NO"} {
		contests = append(contests, "Measure A")
		candidates = append(candidates, c)
		header = append(header, "")
	}
	w.Write([]string{"Alameda 2022", "5.10.50.85"})
	w.Write(contests)
	w.Write(candidates)
	w.Write(header)

	for i := 1; i <= 20; i++ {
		row := []string{fmt.Sprint(i), "42", fmt.Sprint(1 + i/10), fmt.Sprintf("=\"%d\"", i)}
		for rank := 1; rank <= 3; rank++ {
			for c := 0; c < 3; c++ {
				mark := "0"
				if (i+rank+c)%3 == 0 {
					mark = "1"
				}
				row = append(row, mark)
			}
		}
		row = append(row, fmt.Sprint(i%2), fmt.Sprint(1-i%2))
		w.Write(row)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encoding sample csv: %w", err)
	}

	path := filepath.Join(dir, "CVR_Export_T42.csv")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Println("  ", path)
	return nil
}

// Stats prints Go production and test line counts.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	return nil
}

// countGoLines counts non-blank lines in .go files, either tests only or
// production only. Directories starting with "_" or "." are skipped.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") != testOnly {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		defer f.Close()
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			if strings.TrimSpace(sc.Text()) != "" {
				total++
			}
		}
		return sc.Err()
	})
	return total, err
}
