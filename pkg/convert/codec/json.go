package codec

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"datatoolkit/pkg/convert/flatten"
	"datatoolkit/pkg/convert/tabular"
)

// JSON reads arrays of objects (or a single object) into the tabular
// model, flattening nested values into dotted/indexed columns, and writes
// the model back as an array of objects with nesting reconstructed.
type JSON struct{}

func (JSON) Read(content []byte) (*tabular.Table, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("json: input is not valid UTF-8: %w", ErrEncoding)
	}
	if !gjson.ValidBytes(content) {
		return nil, &MalformedInputError{Kind: "json", Position: syntaxPosition(content), Reason: "invalid JSON"}
	}

	doc := gjson.ParseBytes(content)
	var records []gjson.Result
	switch {
	case doc.IsArray():
		var badIndex = -1
		i := 0
		doc.ForEach(func(_, el gjson.Result) bool {
			if !el.IsObject() {
				badIndex = i
				return false
			}
			records = append(records, el)
			i++
			return true
		})
		if badIndex >= 0 {
			return nil, &MalformedInputError{
				Kind:     "json",
				Position: fmt.Sprintf("element %d", badIndex),
				Reason:   "array elements must be objects",
			}
		}
		if len(records) == 0 {
			return nil, &MalformedInputError{Kind: "json", Reason: "array is empty"}
		}
	case doc.IsObject():
		records = []gjson.Result{doc}
	default:
		return nil, &MalformedInputError{Kind: "json", Reason: "top-level value must be an array of objects or an object"}
	}

	table := tabular.New()
	for _, rec := range records {
		pairs := flatten.Flatten(rec)
		row := make(tabular.Row, len(pairs))
		for _, p := range pairs {
			table.AddColumn(p.Path)
			row[p.Path] = p.Value
		}
		table.Append(row)
	}
	return table, nil
}

func (JSON) Write(t *tabular.Table) ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('[')
	for i, row := range t.Rows {
		if i > 0 {
			compact.WriteByte(',')
		}
		node, err := flatten.Unflatten(t.Columns, row)
		if err != nil {
			pe, ok := err.(*flatten.PathError)
			if !ok {
				return nil, err
			}
			return nil, &MalformedInputError{Kind: "json", Position: pe.Column, Reason: pe.Reason, Err: pe}
		}
		compact.Write(node.JSON())
	}
	compact.WriteByte(']')

	var out bytes.Buffer
	if err := stdjson.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("json: indent: %w", err)
	}
	return out.Bytes(), nil
}

// syntaxPosition locates the first syntax error as a line/column pair.
// gjson validates without positions, so the stdlib decoder supplies the
// offset.
func syntaxPosition(content []byte) string {
	var v any
	err := stdjson.Unmarshal(content, &v)
	var syn *stdjson.SyntaxError
	if !errors.As(err, &syn) {
		return ""
	}
	line, col := 1, 1
	for _, b := range content[:min(int(syn.Offset), len(content))] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return fmt.Sprintf("line %d, column %d", line, col)
}
