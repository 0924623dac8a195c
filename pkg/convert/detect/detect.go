// Package detect classifies uploaded bytes as JSON, CSV or Excel. Content
// sniffing always wins; the filename extension is consulted only when the
// content alone is inconclusive.
package detect

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// Type is a detected file format.
type Type string

const (
	TypeJSON Type = "json"
	TypeCSV  Type = "csv"
	TypeXLSX Type = "xlsx"
	TypeXLS  Type = "xls"
)

// ErrUnsupportedFormat indicates detection failed entirely.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrAmbiguousFormat indicates CSV delimiter sniffing was inconclusive.
var ErrAmbiguousFormat = errors.New("ambiguous file format")

var (
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Detect classifies content, using filename only as a tiebreaker. It
// returns ErrAmbiguousFormat when the bytes look like delimited text but
// no candidate delimiter scores consistently, and ErrUnsupportedFormat
// when no classification applies at all.
func Detect(content []byte, filename string) (Type, error) {
	if t, ok := detectByContent(content); ok {
		return t, nil
	}
	// The extension can rescue inputs the content sniff gave up on, such
	// as a single-line CSV; the format reader still validates the bytes.
	if t, ok := detectByExtension(filename); ok {
		return t, nil
	}
	if hasDelimiterCandidate(content) {
		return "", ErrAmbiguousFormat
	}
	return "", ErrUnsupportedFormat
}

func detectByContent(content []byte) (Type, bool) {
	if len(content) >= 8 && bytes.Equal(content[:8], oleMagic) {
		return TypeXLS, true
	}
	if len(content) >= 4 && bytes.Equal(content[:4], zipMagic) {
		// A ZIP container is almost always XLSX here; a legacy .xls
		// extension cannot override the container format.
		return TypeXLSX, true
	}

	trimmed := bytes.TrimSpace(content)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') && gjson.ValidBytes(trimmed) {
		return TypeJSON, true
	}

	if _, ok := SniffDelimiter(content); ok {
		return TypeCSV, true
	}
	return "", false
}

func detectByExtension(filename string) (Type, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return TypeJSON, true
	case ".csv":
		return TypeCSV, true
	case ".xlsx":
		return TypeXLSX, true
	case ".xls":
		return TypeXLS, true
	}
	return "", false
}
