// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cvrcsv reads Dominion "CVR_Export" CSV files: it maps the four
// header rows to (contest, candidate, rank) columns and extracts the marked
// ranks of each ballot row as a session record.
package cvrcsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/cvr-compact/internal/manifest"
)

// headerRows is the number of rows preceding ballot data.
const headerRows = 4

// Column-name row labels for ballot metadata.
const (
	headerRecordID  = "RecordId"
	headerCvrNumber = "CvrNumber"
	headerTabulator = "TabulatorNum"
	headerBatch     = "BatchId"
)

// Contest-label markers identifying ranked-choice contests.
const (
	rcvMarker   = "(RCV)"
	ranksMarker = "Number of ranks"
	writeInName = "WRITE-IN"
)

// ErrShortHeader is returned when a file has fewer than four header rows.
var ErrShortHeader = errors.New("fewer than 4 header rows")

// Header holds the four header rows of a CVR export.
type Header struct {
	Election   []string
	Contests   []string
	Candidates []string
	Columns    []string
}

// newReader returns a csv.Reader tolerant of ragged rows and stray quotes.
func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(skipBOM(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// ReadHeader consumes the four header rows from r.
func ReadHeader(r *csv.Reader) (Header, error) {
	rows := make([][]string, 0, headerRows)
	for len(rows) < headerRows {
		rec, err := r.Read()
		if err == io.EOF {
			return Header{}, ErrShortHeader
		}
		if err != nil {
			return Header{}, fmt.Errorf("reading header row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}
	return Header{
		Election:   rows[0],
		Contests:   rows[1],
		Candidates: rows[2],
		Columns:    rows[3],
	}, nil
}

// SkipReason classifies why a header column produced no mapping.
type SkipReason string

const (
	SkipNotRCV           SkipReason = "not_rcv"
	SkipUnknownContest   SkipReason = "unknown_contest"
	SkipBadLabel         SkipReason = "bad_candidate_label"
	SkipUnknownCandidate SkipReason = "unknown_candidate"
)

// Column maps one CSV column to a (contest, candidate, rank) triple.
type Column struct {
	Index       int
	ContestID   int
	CandidateID int
	Rank        int
}

// ColumnMap is the per-file result of mapping header rows. Metadata column
// indexes are -1 when the column is absent.
type ColumnMap struct {
	// Columns are ordered by column index.
	Columns []Column

	RecordIDCol  int
	TabulatorCol int
	BatchCol     int

	Skipped map[SkipReason]int
}

// Contests returns the distinct contest ids in column order.
func (m ColumnMap) Contests() []int {
	var ids []int
	seen := make(map[int]bool)
	for _, c := range m.Columns {
		if !seen[c.ContestID] {
			seen[c.ContestID] = true
			ids = append(ids, c.ContestID)
		}
	}
	return ids
}

// MapColumns resolves each header column to a manifest contest and
// candidate. With rcvOnly set, columns of non-ranked contests are ignored.
func MapColumns(h Header, m *manifest.Manifests, rcvOnly bool) ColumnMap {
	cm := ColumnMap{
		RecordIDCol:  -1,
		TabulatorCol: -1,
		BatchCol:     -1,
		Skipped:      make(map[SkipReason]int),
	}

	n := min(len(h.Contests), len(h.Candidates))
	for idx := 0; idx < n; idx++ {
		col, reason := mapColumn(idx, h.Contests[idx], h.Candidates[idx], m, rcvOnly)
		if reason != "" {
			cm.Skipped[reason]++
			continue
		}
		cm.Columns = append(cm.Columns, col)
	}

	for idx, name := range h.Columns {
		switch name {
		case headerRecordID, headerCvrNumber:
			cm.RecordIDCol = idx
		case headerTabulator:
			cm.TabulatorCol = idx
		case headerBatch:
			cm.BatchCol = idx
		}
	}

	return cm
}

func mapColumn(idx int, contestLabel, candidateLabel string, m *manifest.Manifests, rcvOnly bool) (Column, SkipReason) {
	if rcvOnly && !IsRCVLabel(contestLabel) {
		return Column{}, SkipNotRCV
	}

	contestID, ok := m.Contests.Match(contestLabel)
	if !ok {
		return Column{}, SkipUnknownContest
	}

	name, rank, ok := ParseCandidateLabel(candidateLabel)
	if !ok {
		return Column{}, SkipBadLabel
	}

	candidateID, ok := m.Candidates.Lookup(contestID, name)
	if !ok && strings.Contains(name, writeInName) {
		candidateID, ok = m.Candidates.FindWriteIn(contestID)
	}
	if !ok {
		return Column{}, SkipUnknownCandidate
	}

	return Column{Index: idx, ContestID: contestID, CandidateID: candidateID, Rank: rank}, ""
}

// IsRCVLabel reports whether a contest label marks a ranked-choice contest.
func IsRCVLabel(label string) bool {
	return strings.Contains(label, rcvMarker) || strings.Contains(label, ranksMarker)
}

// ParseCandidateLabel splits "NAME(rank)" into a normalized name and rank.
// The rank is taken from the last parenthesized group.
func ParseCandidateLabel(label string) (string, int, bool) {
	if !strings.HasSuffix(label, ")") {
		return "", 0, false
	}
	open := strings.LastIndex(label, "(")
	if open < 0 {
		return "", 0, false
	}
	rank, err := strconv.Atoi(strings.TrimSpace(label[open+1 : len(label)-1]))
	if err != nil {
		return "", 0, false
	}
	return manifest.NormalizeName(label[:open]), rank, true
}
