// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cvrcsv

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// quoteArtifacts are the characters Excel-style exports wrap values in
// (="00012"). They are trimmed from both ends of a cell.
const quoteArtifacts = `="`

// stripQuoting removes ="..." artifacts without touching inner whitespace.
func stripQuoting(s string) string {
	return strings.Trim(s, quoteArtifacts)
}

// cleanCell strips quoting artifacts and then surrounding whitespace.
func cleanCell(s string) string {
	return strings.TrimSpace(stripQuoting(s))
}

// parseInt parses a decimal integer, tolerating surrounding whitespace.
func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// cell returns row[idx], or "" with ok=false when idx is absent or out of range.
func cell(row []string, idx int) (string, bool) {
	if idx < 0 || idx >= len(row) {
		return "", false
	}
	return row[idx], true
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM returns a reader positioned after a leading UTF-8 byte order mark.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && string(head) == string(utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	return br
}
