// Package codec implements the per-format readers and writers. Every codec
// parses raw bytes into the tabular model or serializes the model back out;
// no codec ever coerces cell text into native numeric types.
package codec

import (
	"errors"
	"fmt"
	"strings"

	"datatoolkit/pkg/convert/tabular"
)

// Codec reads raw bytes into the tabular model and writes the model back
// into format-specific bytes.
type Codec interface {
	Read(content []byte) (*tabular.Table, error)
	Write(t *tabular.Table) ([]byte, error)
}

// ErrMalformedInput indicates a parse failure in the source bytes.
var ErrMalformedInput = errors.New("malformed input")

// ErrEncoding indicates the source bytes could not be decoded as text.
var ErrEncoding = errors.New("unsupported character encoding")

// ErrCorruptFile indicates a workbook container that cannot be opened.
var ErrCorruptFile = errors.New("corrupt file")

// ErrUnsupportedWorkbook indicates a workbook with no readable sheets.
var ErrUnsupportedWorkbook = errors.New("unsupported workbook")

// ErrWriteUnsupported indicates a format with no writer (legacy XLS).
var ErrWriteUnsupported = errors.New("writing this format is not supported")

// MalformedInputError carries the source format and, when derivable, the
// position of the failure: line/column for text formats, a sheet or cell
// reference for workbooks, else a byte offset.
type MalformedInputError struct {
	Kind     string
	Position string
	Reason   string
	Err      error
}

func (e *MalformedInputError) Error() string {
	msg := fmt.Sprintf("malformed %s input", e.Kind)
	if e.Position != "" {
		msg += " at " + e.Position
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedInputError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMalformedInput
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// tableFromGrid builds a table from rendered string rows: the first row is
// the header, empty cells read as null. Rows longer than the header extend
// the column list with positional names.
func tableFromGrid(rows [][]string, kind, sheet string) (*tabular.Table, error) {
	if len(rows) == 0 {
		return nil, &MalformedInputError{Kind: kind, Position: sheet, Reason: "sheet has no data"}
	}
	if len(rows) == 1 {
		return nil, &MalformedInputError{Kind: kind, Position: sheet, Reason: "header row present but no data rows"}
	}

	width := len(rows[0])
	for _, row := range rows[1:] {
		if len(row) > width {
			width = len(row)
		}
	}
	header := rows[0]
	for len(header) < width {
		header = append(header, "")
	}
	columns := uniqueColumns(header)

	table := tabular.New()
	for _, c := range columns {
		table.AddColumn(c)
	}
	for _, raw := range rows[1:] {
		row := make(tabular.Row, len(columns))
		for i, c := range columns {
			if i < len(raw) && raw[i] != "" {
				row[c] = tabular.String(raw[i])
			} else {
				row[c] = tabular.Null()
			}
		}
		table.Append(row)
	}
	return table, nil
}

// uniqueColumns enforces the unique-column invariant: empty header cells
// get positional names and duplicates get a numeric suffix.
func uniqueColumns(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]struct{}, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if _, taken := used[name]; taken {
			for n := 2; ; n++ {
				cand := fmt.Sprintf("%s_%d", name, n)
				if _, taken := used[cand]; !taken {
					name = cand
					break
				}
			}
		}
		used[name] = struct{}{}
		out[i] = name
	}
	return out
}
