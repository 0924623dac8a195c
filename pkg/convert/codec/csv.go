package codec

import (
	"bytes"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"datatoolkit/pkg/convert/detect"
	"datatoolkit/pkg/convert/tabular"
)

// CSV reads delimited text into the tabular model and writes the model as
// comma-separated text. A zero Delimiter means sniff on read; writing
// always uses a comma.
type CSV struct {
	Delimiter byte
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func (c CSV) Read(content []byte) (*tabular.Table, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	text, err := decodeText(content)
	if err != nil {
		return nil, err
	}

	delim := c.Delimiter
	if delim == 0 {
		delim = detect.GuessDelimiter([]byte(text))
	}

	r := stdcsv.NewReader(strings.NewReader(text))
	r.Comma = rune(delim)
	records, err := r.ReadAll()
	if err != nil {
		var pe *stdcsv.ParseError
		if errors.As(err, &pe) {
			return nil, &MalformedInputError{
				Kind:     "csv",
				Position: fmt.Sprintf("line %d, column %d", pe.Line, pe.Column),
				Err:      pe.Err,
			}
		}
		return nil, &MalformedInputError{Kind: "csv", Err: err}
	}
	if len(records) == 0 {
		return nil, &MalformedInputError{Kind: "csv", Reason: "file is empty"}
	}
	return tableFromGrid(records, "csv", "")
}

func (CSV) Write(t *tabular.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := stdcsv.NewWriter(&buf)

	if err := w.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			v := row.Get(col)
			if v.IsNull() {
				record[i] = ""
			} else {
				record[i] = v.Str
			}
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv: flush: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeText tries UTF-8 first and falls back to a Latin-1 compatible
// decode, matching how spreadsheet exports from older tooling arrive.
func decodeText(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return "", fmt.Errorf("csv: %w: %v", ErrEncoding, err)
	}
	return string(decoded), nil
}
