// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest loads the Dominion candidate and contest manifests and
// resolves CSV header labels to manifest identifiers.
//
// Both lookups are built once and are read-only afterwards. Iteration order
// is the order in which keys were first seen in the manifest file, which
// makes the substring and write-in fallbacks deterministic.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/cvr-compact/pkg/types"
)

const (
	// CandidateFile and ContestFile are the manifest names expected in an
	// export directory.
	CandidateFile = "CandidateManifest.json"
	ContestFile   = "ContestManifest.json"

	writeInMarker = "WRITE"
)

// ErrManifestMissing is returned when a manifest file does not exist.
var ErrManifestMissing = errors.New("manifest not found")

// NormalizeName upper-cases and trims a candidate name for lookup.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

type candidateKey struct {
	contestID int
	name      string
}

// Candidates maps (contest id, normalized name) to candidate id.
type Candidates struct {
	ids   map[candidateKey]int
	order []candidateKey
}

// Len returns the number of distinct (contest, name) keys.
func (c *Candidates) Len() int {
	return len(c.order)
}

// Lookup returns the candidate id registered for contestID and name. The
// name is normalized before lookup.
func (c *Candidates) Lookup(contestID int, name string) (int, bool) {
	id, ok := c.ids[candidateKey{contestID, NormalizeName(name)}]
	return id, ok
}

// FindWriteIn returns the first candidate of contestID whose name contains
// "WRITE", scanning in manifest order.
func (c *Candidates) FindWriteIn(contestID int) (int, bool) {
	for _, k := range c.order {
		if k.contestID == contestID && strings.Contains(strings.ToUpper(k.name), writeInMarker) {
			return c.ids[k], true
		}
	}
	return 0, false
}

func (c *Candidates) add(contestID int, name string, id int) {
	k := candidateKey{contestID, NormalizeName(name)}
	if _, seen := c.ids[k]; !seen {
		c.order = append(c.order, k)
	}
	c.ids[k] = id
}

// Contests maps contest descriptions to contest ids.
type Contests struct {
	ids   map[string]int
	order []string
}

// Len returns the number of distinct descriptions.
func (c *Contests) Len() int {
	return len(c.order)
}

// Match resolves a CSV contest label to a contest id. An exact description
// match wins; otherwise the first description in manifest order that is a
// substring of label, or contains label, is used.
func (c *Contests) Match(label string) (int, bool) {
	if id, ok := c.ids[label]; ok {
		return id, true
	}
	for _, desc := range c.order {
		if strings.Contains(label, desc) || strings.Contains(desc, label) {
			return c.ids[desc], true
		}
	}
	return 0, false
}

func (c *Contests) add(desc string, id int) {
	if _, seen := c.ids[desc]; !seen {
		c.order = append(c.order, desc)
	}
	c.ids[desc] = id
}

// Manifests bundles both lookups for an export directory.
type Manifests struct {
	Candidates *Candidates
	Contests   *Contests
}

// Load reads CandidateManifest.json and ContestManifest.json from dir.
func Load(dir string) (*Manifests, error) {
	candidates, err := LoadCandidates(filepath.Join(dir, CandidateFile))
	if err != nil {
		return nil, err
	}
	contests, err := LoadContests(filepath.Join(dir, ContestFile))
	if err != nil {
		return nil, err
	}
	return &Manifests{Candidates: candidates, Contests: contests}, nil
}

// LoadCandidates reads a candidate manifest. Later entries with the same
// (contest, name) key overwrite earlier ones.
func LoadCandidates(path string) (*Candidates, error) {
	var m types.CandidateManifest
	if err := readJSON(path, &m); err != nil {
		return nil, err
	}

	c := &Candidates{ids: make(map[candidateKey]int, len(m.List))}
	for _, e := range m.List {
		c.add(e.ContestID, e.Description, e.ID)
	}
	return c, nil
}

// LoadContests reads a contest manifest, skipping entries without an id.
func LoadContests(path string) (*Contests, error) {
	var m types.ContestManifest
	if err := readJSON(path, &m); err != nil {
		return nil, err
	}

	c := &Contests{ids: make(map[string]int, len(m.List))}
	for _, e := range m.List {
		if e.ID == 0 {
			continue
		}
		c.add(e.Description, e.ID)
	}
	return c, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, ErrManifestMissing)
		}
		return fmt.Errorf("reading manifest %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return nil
}
