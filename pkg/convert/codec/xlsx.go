package codec

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"datatoolkit/pkg/convert/tabular"
)

// writeSheetName is the worksheet name used for generated workbooks.
const writeSheetName = "Data"

// XLSX reads the first worksheet of an OOXML workbook into the tabular
// model and writes the model as a single-sheet workbook. All cells are
// written as text so values like "007" keep their exact form.
type XLSX struct{}

func (XLSX) Read(content []byte) (*tabular.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("xlsx: %w: %v", ErrCorruptFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx: %w: workbook has no sheets", ErrUnsupportedWorkbook)
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx: %w: reading sheet %q: %v", ErrCorruptFile, sheet, err)
	}
	return tableFromGrid(rows, "xlsx", sheet)
}

func (XLSX) Write(t *tabular.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", writeSheetName); err != nil {
		return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	for i, col := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("xlsx: header cell: %w", err)
		}
		if err := f.SetCellStr(writeSheetName, cell, col); err != nil {
			return nil, fmt.Errorf("xlsx: write header: %w", err)
		}
	}
	for r, row := range t.Rows {
		for i, col := range t.Columns {
			v := row.Get(col)
			if v.IsNull() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return nil, fmt.Errorf("xlsx: cell name: %w", err)
			}
			if err := f.SetCellStr(writeSheetName, cell, v.Str); err != nil {
				return nil, fmt.Errorf("xlsx: write cell %s: %w", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
