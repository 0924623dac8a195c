// Package convert is the conversion engine: it classifies uploaded bytes,
// parses them into the shared tabular model and serializes that model into
// the requested target format. The engine is stateless; every call stands
// alone and holds the file fully in memory for its duration.
package convert

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"datatoolkit/pkg/convert/codec"
	"datatoolkit/pkg/convert/detect"
	"datatoolkit/pkg/convert/tabular"
)

// ErrUnsupportedConversion indicates a (source, target) pair with no
// registered pipeline.
var ErrUnsupportedConversion = errors.New("unsupported conversion")

// UnsupportedConversionError reports the rejected pair.
type UnsupportedConversionError struct {
	From detect.Type
	To   detect.Type
}

func (e *UnsupportedConversionError) Error() string {
	return fmt.Sprintf("unsupported conversion from %s to %s", e.From, e.To)
}

func (e *UnsupportedConversionError) Unwrap() error {
	return ErrUnsupportedConversion
}

// mimeTypes maps output formats to response content types.
var mimeTypes = map[detect.Type]string{
	detect.TypeJSON: "application/json",
	detect.TypeCSV:  "text/csv",
	detect.TypeXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	detect.TypeXLS:  "application/vnd.ms-excel",
}

// Registry maps (source, target) pairs to a reader/writer pipeline.
// Excel to Excel has no use case and any conversion into legacy XLS is
// impossible, so neither is registered.
type Registry struct {
	readers   map[detect.Type]codec.Codec
	pipelines map[[2]detect.Type]struct{}
}

// NewRegistry returns a registry with the default pipelines: JSON, CSV and
// the two Excel flavors as sources; JSON, CSV and XLSX as targets.
func NewRegistry() *Registry {
	r := &Registry{
		readers: map[detect.Type]codec.Codec{
			detect.TypeJSON: codec.JSON{},
			detect.TypeCSV:  codec.CSV{},
			detect.TypeXLSX: codec.XLSX{},
			detect.TypeXLS:  codec.XLS{},
		},
		pipelines: make(map[[2]detect.Type]struct{}),
	}
	for _, p := range [][2]detect.Type{
		{detect.TypeJSON, detect.TypeCSV},
		{detect.TypeJSON, detect.TypeXLSX},
		{detect.TypeCSV, detect.TypeJSON},
		{detect.TypeCSV, detect.TypeXLSX},
		{detect.TypeXLSX, detect.TypeJSON},
		{detect.TypeXLSX, detect.TypeCSV},
		{detect.TypeXLS, detect.TypeJSON},
		{detect.TypeXLS, detect.TypeCSV},
	} {
		r.pipelines[p] = struct{}{}
	}
	return r
}

// Reader returns the codec that parses src, or nil when src is unknown.
func (r *Registry) Reader(src detect.Type) codec.Codec {
	return r.readers[src]
}

// Convert runs the composed pipeline for the pair. The JSON codec flattens
// on read and unflattens on write, so composition is a straight read then
// write.
func (r *Registry) Convert(src, dst detect.Type, content []byte) ([]byte, error) {
	if _, ok := r.pipelines[[2]detect.Type{src, dst}]; !ok {
		return nil, &UnsupportedConversionError{From: src, To: dst}
	}
	table, err := r.readers[src].Read(content)
	if err != nil {
		return nil, err
	}
	return r.readers[dst].Write(table)
}

var defaultRegistry = NewRegistry()

// Output is the result of a conversion: the serialized bytes plus the
// filename and content type to suggest to the client. The filename is not
// sanitized; callers placing it in a response header must do that.
type Output struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Convert detects the format of content and converts it to target.
func Convert(content []byte, filename string, target detect.Type) (*Output, error) {
	src, err := detect.Detect(content, filename)
	if err != nil {
		return nil, err
	}
	data, err := defaultRegistry.Convert(src, target, content)
	if err != nil {
		return nil, err
	}
	return &Output{
		Data:        data,
		Filename:    suggestedFilename(filename, target),
		ContentType: mimeTypes[target],
	}, nil
}

// Preview is a detected type plus one page of parsed rows.
type Preview struct {
	Type    detect.Type
	Columns []string
	Page    tabular.Page
}

// DetectAndPreview classifies content, parses it once and returns the
// requested page. The table is materialized a single time; pagination is
// a slice over it, never a re-parse.
func DetectAndPreview(content []byte, filename string, page, pageSize int) (*Preview, error) {
	t, err := detect.Detect(content, filename)
	if err != nil {
		return nil, err
	}
	table, err := defaultRegistry.Reader(t).Read(content)
	if err != nil {
		return nil, err
	}
	pg, err := tabular.Paginate(table, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &Preview{Type: t, Columns: table.Columns, Page: pg}, nil
}

func suggestedFilename(original string, target detect.Type) string {
	base := filepath.Base(original)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		base = "converted"
	}
	return base + "." + string(target)
}

// ParseTarget normalizes a user-supplied output format name.
func ParseTarget(s string) (detect.Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return detect.TypeJSON, nil
	case "csv":
		return detect.TypeCSV, nil
	case "xlsx", "excel":
		return detect.TypeXLSX, nil
	case "xls":
		return detect.TypeXLS, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}
