package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"unicode/utf16"
)

// BIFF8 record ids, per [MS-XLS].
const (
	recBOF        = 0x0809
	recEOF        = 0x000A
	recContinue   = 0x003C
	recBoundSheet = 0x0085
	recSST        = 0x00FC
	recLabelSST   = 0x00FD
	recLabel      = 0x0204
	recNumber     = 0x0203
	recRK         = 0x027E
	recMulRK      = 0x00BD
	recBoolErr    = 0x0205
	recFormula    = 0x0006
	recString     = 0x0207
)

const biff8Version = 0x0600

// parseBIFFWorkbook walks the globals substream for the shared string table
// and the first worksheet's offset, then renders that sheet's cells into a
// string grid. Only BIFF8 (Excel 97 and later) is handled.
func parseBIFFWorkbook(stream []byte) (string, [][]string, error) {
	var (
		sst       []string
		sheetName string
		sheetPos  = -1
	)

	off := 0
	id, data, off, err := biffRecord(stream, off)
	if err != nil {
		return "", nil, err
	}
	if id != recBOF || len(data) < 4 {
		return "", nil, fmt.Errorf("xls: %w: stream does not start with BOF", ErrCorruptFile)
	}
	if binary.LittleEndian.Uint16(data) != biff8Version {
		return "", nil, fmt.Errorf("xls: %w: only BIFF8 workbooks are supported", ErrUnsupportedWorkbook)
	}

	for {
		id, data, off, err = biffRecord(stream, off)
		if err != nil {
			return "", nil, err
		}
		if id == recEOF {
			break
		}
		switch id {
		case recBoundSheet:
			if len(data) < 8 || sheetPos >= 0 {
				continue
			}
			if data[5] != 0 { // not a worksheet (chart or macro sheet)
				continue
			}
			sheetPos = int(binary.LittleEndian.Uint32(data))
			sheetName = shortUnicodeString(data[6:])
		case recSST:
			blocks := [][]byte{data}
			for off < len(stream) {
				nid, ndata, noff, nerr := biffRecord(stream, off)
				if nerr != nil || nid != recContinue {
					break
				}
				blocks = append(blocks, ndata)
				off = noff
			}
			sst, err = parseSST(blocks)
			if err != nil {
				return "", nil, err
			}
		}
	}

	if sheetPos < 0 || sheetPos >= len(stream) {
		return "", nil, fmt.Errorf("xls: %w: workbook has no worksheets", ErrUnsupportedWorkbook)
	}
	grid, err := parseBIFFSheet(stream, sheetPos, sst)
	if err != nil {
		return "", nil, err
	}
	return sheetName, grid, nil
}

// parseBIFFSheet renders the cells of one worksheet substream into a
// dense grid of display strings, "" for blanks.
func parseBIFFSheet(stream []byte, pos int, sst []string) ([][]string, error) {
	cells := make(map[uint32]string)
	maxRow, maxCol := -1, -1
	set := func(row, col int, val string) {
		if row < 0 || col < 0 || val == "" {
			return
		}
		cells[uint32(row)<<16|uint32(col&0xFFFF)] = val
		if row > maxRow {
			maxRow = row
		}
		if col > maxCol {
			maxCol = col
		}
	}

	off := pos
	id, data, off, err := biffRecord(stream, off)
	if err != nil {
		return nil, err
	}
	if id != recBOF {
		return nil, fmt.Errorf("xls: %w: worksheet substream does not start with BOF", ErrCorruptFile)
	}

	pendingRow, pendingCol := -1, -1 // formula cell awaiting its STRING record
	for {
		id, data, off, err = biffRecord(stream, off)
		if err != nil {
			return nil, err
		}
		if id == recEOF {
			break
		}
		switch id {
		case recLabelSST:
			if len(data) < 10 {
				continue
			}
			row := int(binary.LittleEndian.Uint16(data))
			col := int(binary.LittleEndian.Uint16(data[2:]))
			isst := int(binary.LittleEndian.Uint32(data[6:]))
			if isst >= 0 && isst < len(sst) {
				set(row, col, sst[isst])
			}
		case recNumber:
			if len(data) < 14 {
				continue
			}
			row := int(binary.LittleEndian.Uint16(data))
			col := int(binary.LittleEndian.Uint16(data[2:]))
			set(row, col, formatNumber(math.Float64frombits(binary.LittleEndian.Uint64(data[6:]))))
		case recRK:
			if len(data) < 10 {
				continue
			}
			row := int(binary.LittleEndian.Uint16(data))
			col := int(binary.LittleEndian.Uint16(data[2:]))
			set(row, col, decodeRK(binary.LittleEndian.Uint32(data[6:])))
		case recMulRK:
			if len(data) < 12 {
				continue
			}
			row := int(binary.LittleEndian.Uint16(data))
			colFirst := int(binary.LittleEndian.Uint16(data[2:]))
			for i, o := 0, 4; o+6 <= len(data)-2; i, o = i+1, o+6 {
				set(row, colFirst+i, decodeRK(binary.LittleEndian.Uint32(data[o+2:])))
			}
		case recLabel:
			if len(data) < 9 {
				continue
			}
			row := int(binary.LittleEndian.Uint16(data))
			col := int(binary.LittleEndian.Uint16(data[2:]))
			set(row, col, inlineUnicodeString(data[6:]))
		case recBoolErr:
			if len(data) < 8 {
				continue
			}
			if data[7] != 0 { // error cells render as blank
				continue
			}
			row := int(binary.LittleEndian.Uint16(data))
			col := int(binary.LittleEndian.Uint16(data[2:]))
			if data[6] != 0 {
				set(row, col, "TRUE")
			} else {
				set(row, col, "FALSE")
			}
		case recFormula:
			if len(data) < 14 {
				continue
			}
			row := int(binary.LittleEndian.Uint16(data))
			col := int(binary.LittleEndian.Uint16(data[2:]))
			if data[12] == 0xFF && data[13] == 0xFF {
				switch data[6] {
				case 0: // cached string follows in a STRING record
					pendingRow, pendingCol = row, col
				case 1:
					if data[8] != 0 {
						set(row, col, "TRUE")
					} else {
						set(row, col, "FALSE")
					}
				}
				continue
			}
			set(row, col, formatNumber(math.Float64frombits(binary.LittleEndian.Uint64(data[6:]))))
		case recString:
			if pendingRow >= 0 && len(data) >= 3 {
				set(pendingRow, pendingCol, inlineUnicodeString(data))
			}
			pendingRow, pendingCol = -1, -1
		}
	}

	if maxRow < 0 {
		return nil, nil
	}
	grid := make([][]string, maxRow+1)
	for r := range grid {
		grid[r] = make([]string, maxCol+1)
		for c := range grid[r] {
			grid[r][c] = cells[uint32(r)<<16|uint32(c)]
		}
	}
	return grid, nil
}

// biffRecord reads the record at off: a 2-byte id, a 2-byte length and the
// payload.
func biffRecord(stream []byte, off int) (uint16, []byte, int, error) {
	if off+4 > len(stream) {
		return 0, nil, 0, fmt.Errorf("xls: %w: truncated record at byte %d", ErrCorruptFile, off)
	}
	id := binary.LittleEndian.Uint16(stream[off:])
	size := int(binary.LittleEndian.Uint16(stream[off+2:]))
	if off+4+size > len(stream) {
		return 0, nil, 0, fmt.Errorf("xls: %w: record 0x%04X overruns stream at byte %d", ErrCorruptFile, id, off)
	}
	return id, stream[off+4 : off+4+size], off + 4 + size, nil
}

// shortUnicodeString decodes a ShortXLUnicodeString (1-byte length).
func shortUnicodeString(b []byte) string {
	if len(b) < 2 {
		return ""
	}
	cch := int(b[0])
	return decodeChars(b[2:], cch, b[1]&0x01 != 0)
}

// inlineUnicodeString decodes an XLUnicodeString (2-byte length) embedded
// in a cell record.
func inlineUnicodeString(b []byte) string {
	if len(b) < 3 {
		return ""
	}
	cch := int(binary.LittleEndian.Uint16(b))
	return decodeChars(b[3:], cch, b[2]&0x01 != 0)
}

func decodeChars(b []byte, cch int, high bool) string {
	if high {
		if cch*2 > len(b) {
			cch = len(b) / 2
		}
		units := make([]uint16, cch)
		for i := range units {
			units[i] = binary.LittleEndian.Uint16(b[i*2:])
		}
		return string(utf16.Decode(units))
	}
	if cch > len(b) {
		cch = len(b)
	}
	units := make([]uint16, cch)
	for i := 0; i < cch; i++ {
		units[i] = uint16(b[i])
	}
	return string(utf16.Decode(units))
}

// decodeRK decodes an RK-encoded number: bit 0 requests division by 100,
// bit 1 selects a 30-bit integer over a truncated IEEE double.
func decodeRK(rk uint32) string {
	if rk&0x02 != 0 {
		v := int32(rk) >> 2
		if rk&0x01 != 0 {
			return formatNumber(float64(v) / 100)
		}
		return strconv.Itoa(int(v))
	}
	x := math.Float64frombits(uint64(rk&0xFFFFFFFC) << 32)
	if rk&0x01 != 0 {
		x /= 100
	}
	return formatNumber(x)
}

// formatNumber renders a numeric cell in its minimal decimal form, the
// same shape excelize produces for general-format cells.
func formatNumber(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return ""
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}

