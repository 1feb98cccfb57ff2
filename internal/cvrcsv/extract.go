// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cvrcsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdiddy/cvr-compact/internal/manifest"
	"github.com/pdiddy/cvr-compact/pkg/types"
)

var tabulatorPattern = regexp.MustCompile(`T(\d+)`)

// TabulatorFromFilename returns the number following the first "T" + digits
// run in the base name of path, or 0.
func TabulatorFromFilename(path string) int {
	m := tabulatorPattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// Extractor streams session records from one CVR export file.
type Extractor struct {
	file    *os.File
	reader  *csv.Reader
	columns ColumnMap

	// tabulator carries the last seen TabulatorNum forward across rows.
	tabulator int
	row       int
}

// NewExtractor opens path and maps its header. It returns ErrShortHeader
// (unwrapped) for files with fewer than four rows so callers can skip them.
func NewExtractor(path string, m *manifest.Manifests, rcvOnly bool) (*Extractor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	r := newReader(f)
	h, err := ReadHeader(r)
	if err != nil {
		f.Close()
		if errors.Is(err, ErrShortHeader) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Extractor{
		file:      f,
		reader:    r,
		columns:   MapColumns(h, m, rcvOnly),
		tabulator: TabulatorFromFilename(path),
	}, nil
}

// Columns returns the column mapping derived from the header.
func (e *Extractor) Columns() ColumnMap {
	return e.columns
}

// Next returns the next ballot with at least one mark. ok is false at end
// of file. Rows without marks are consumed silently.
func (e *Extractor) Next() (types.Session, bool, error) {
	for {
		row, err := e.reader.Read()
		if err == io.EOF {
			return types.Session{}, false, nil
		}
		if err != nil {
			return types.Session{}, false, fmt.Errorf("reading %s: %w", e.file.Name(), err)
		}
		e.row++

		if s, ok := e.session(row); ok {
			return s, true, nil
		}
	}
}

// Close releases the underlying file.
func (e *Extractor) Close() error {
	return e.file.Close()
}

func (e *Extractor) session(row []string) (types.Session, bool) {
	recordID := strconv.Itoa(e.row)
	if v, ok := cell(row, e.columns.RecordIDCol); ok {
		if v = stripQuoting(v); v != "" {
			recordID = v
		}
	}

	batchID := types.DefaultBatchID
	if v, ok := cell(row, e.columns.BatchCol); ok {
		if n, ok := parseInt(stripQuoting(v)); ok {
			batchID = n
		}
	}

	if v, ok := cell(row, e.columns.TabulatorCol); ok {
		if n, ok := parseInt(stripQuoting(v)); ok {
			e.tabulator = n
		}
	}

	contests := ExtractMarks(e.columns.Columns, row)
	if len(contests) == 0 {
		return types.Session{}, false
	}

	return types.Session{
		TabulatorID:     e.tabulator,
		BatchID:         batchID,
		RecordID:        recordID,
		CountingGroupID: types.CountingGroupID,
		Original: types.Interpretation{
			IsCurrent: true,
			Contests:  contests,
		},
	}, true
}

// ExtractMarks collects the marked ranks of one data row. Contests appear
// in the order of their first marked column; marks within a contest are
// stable-sorted by rank. A cell counts as marked when it holds a positive
// integer; anything else is ignored.
func ExtractMarks(columns []Column, row []string) []types.ContestMarks {
	var groups []types.ContestMarks
	pos := make(map[int]int)

	for _, col := range columns {
		v, ok := cell(row, col.Index)
		if !ok {
			continue
		}
		v = cleanCell(v)
		if v == "" || v == "0" {
			continue
		}
		if n, err := strconv.Atoi(v); err != nil || n <= 0 {
			continue
		}

		i, seen := pos[col.ContestID]
		if !seen {
			i = len(groups)
			pos[col.ContestID] = i
			groups = append(groups, types.ContestMarks{ID: col.ContestID})
		}
		groups[i].Marks = append(groups[i].Marks, types.NewMark(col.CandidateID, col.Rank))
	}

	for i := range groups {
		marks := groups[i].Marks
		sort.SliceStable(marks, func(a, b int) bool { return marks[a].Rank < marks[b].Rank })
	}
	return groups
}

// ExtractFile reads every session from the CVR export at path.
func ExtractFile(path string, m *manifest.Manifests, rcvOnly bool) ([]types.Session, error) {
	e, err := NewExtractor(path, m, rcvOnly)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	var sessions []types.Session
	for {
		s, ok, err := e.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return sessions, nil
		}
		sessions = append(sessions, s)
	}
}
