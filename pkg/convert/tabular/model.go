// Package tabular defines the canonical in-memory representation shared by
// every format reader and writer: an ordered list of column names plus an
// ordered list of rows. Cell values are strings or null, never native
// numbers, so textual forms like "007" or "3.140" survive a round trip.
package tabular

import "encoding/json"

// Value is a cell value: either a string or null.
type Value struct {
	Str   string
	Valid bool
}

// String returns a non-null Value holding s.
func String(s string) Value {
	return Value{Str: s, Valid: true}
}

// Null returns the null Value.
func Null() Value {
	return Value{}
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return !v.Valid
}

// MarshalJSON emits the value as a JSON string, or null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Str)
}

// Row maps column names to cell values. Columns absent from the map read
// as null.
type Row map[string]Value

// Get returns the value for col, or null if the row has no entry for it.
func (r Row) Get(col string) Value {
	if v, ok := r[col]; ok {
		return v
	}
	return Null()
}

// Table is the canonical tabular model. Column order is first-seen order
// across the source; row order is source order. Column names are unique.
type Table struct {
	Columns []string
	Rows    []Row

	colSet map[string]struct{}
}

// New returns an empty table.
func New() *Table {
	return &Table{colSet: make(map[string]struct{})}
}

// AddColumn appends a column name unless it is already present.
func (t *Table) AddColumn(name string) {
	if t.colSet == nil {
		t.colSet = make(map[string]struct{}, len(t.Columns))
		for _, c := range t.Columns {
			t.colSet[c] = struct{}{}
		}
	}
	if _, ok := t.colSet[name]; ok {
		return
	}
	t.colSet[name] = struct{}{}
	t.Columns = append(t.Columns, name)
}

// HasColumn reports whether name is a known column.
func (t *Table) HasColumn(name string) bool {
	if t.colSet == nil {
		for _, c := range t.Columns {
			if c == name {
				return true
			}
		}
		return false
	}
	_, ok := t.colSet[name]
	return ok
}

// Append adds a row at the end of the table.
func (t *Table) Append(row Row) {
	t.Rows = append(t.Rows, row)
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}
