package codec

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// sstDecoder reads the shared string table across the SST record and its
// CONTINUE records. Strings may be split between records, but only at a
// character boundary, and each continuation restates the option-flags
// byte for its character data.
type sstDecoder struct {
	blocks [][]byte
	bi     int
	off    int
}

var errSSTTruncated = fmt.Errorf("xls: %w: shared string table truncated", ErrCorruptFile)

// parseSST decodes the shared string table.
func parseSST(blocks [][]byte) ([]string, error) {
	d := &sstDecoder{blocks: blocks}
	if err := d.skip(4); err != nil { // total string count, unused
		return nil, err
	}
	unique, err := d.u32()
	if err != nil {
		return nil, err
	}
	if int64(unique) > int64(len(blocks))*65536 {
		return nil, fmt.Errorf("xls: %w: implausible shared string count %d", ErrCorruptFile, unique)
	}
	out := make([]string, 0, unique)
	for i := uint32(0); i < unique; i++ {
		s, err := d.readString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *sstDecoder) avail() int {
	if d.bi >= len(d.blocks) {
		return 0
	}
	return len(d.blocks[d.bi]) - d.off
}

func (d *sstDecoder) nextBlock() error {
	d.bi++
	d.off = 0
	if d.bi >= len(d.blocks) {
		return errSSTTruncated
	}
	return nil
}

// take returns n raw bytes, crossing block boundaries as needed. Used for
// fixed-width fields and skips, which do not restate option flags.
func (d *sstDecoder) take(n int) ([]byte, error) {
	if d.avail() >= n {
		b := d.blocks[d.bi][d.off : d.off+n]
		d.off += n
		return b, nil
	}
	out := make([]byte, 0, n)
	for len(out) < n {
		if d.avail() == 0 {
			if err := d.nextBlock(); err != nil {
				return nil, err
			}
			continue
		}
		t := n - len(out)
		if t > d.avail() {
			t = d.avail()
		}
		out = append(out, d.blocks[d.bi][d.off:d.off+t]...)
		d.off += t
	}
	return out, nil
}

func (d *sstDecoder) u8() (byte, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *sstDecoder) u16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *sstDecoder) u32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *sstDecoder) skip(n int) error {
	_, err := d.take(n)
	return err
}

// readString decodes one XLUnicodeRichExtendedString.
func (d *sstDecoder) readString() (string, error) {
	cchU, err := d.u16()
	if err != nil {
		return "", err
	}
	cch := int(cchU)
	flags, err := d.u8()
	if err != nil {
		return "", err
	}
	high := flags&0x01 != 0
	var runs, extLen int
	if flags&0x08 != 0 {
		n, err := d.u16()
		if err != nil {
			return "", err
		}
		runs = int(n)
	}
	if flags&0x04 != 0 {
		n, err := d.u32()
		if err != nil {
			return "", err
		}
		extLen = int(n)
	}

	units := make([]uint16, 0, cch)
	for len(units) < cch {
		if d.avail() == 0 {
			if err := d.nextBlock(); err != nil {
				return "", err
			}
			// A continuation restates the compression flag.
			b, err := d.u8()
			if err != nil {
				return "", err
			}
			high = b&0x01 != 0
			continue
		}
		if high {
			n := (cch - len(units))
			if m := d.avail() / 2; m < n {
				n = m
			}
			if n == 0 {
				return "", errSSTTruncated
			}
			for k := 0; k < n; k++ {
				units = append(units, binary.LittleEndian.Uint16(d.blocks[d.bi][d.off:]))
				d.off += 2
			}
		} else {
			n := cch - len(units)
			if m := d.avail(); m < n {
				n = m
			}
			for k := 0; k < n; k++ {
				units = append(units, uint16(d.blocks[d.bi][d.off+k]))
			}
			d.off += n
		}
	}

	if err := d.skip(4*runs + extLen); err != nil {
		// Formatting runs for the final string may legitimately end the
		// record exactly; only a mid-skip truncation is fatal.
		if d.bi >= len(d.blocks) && 4*runs+extLen > 0 {
			return string(utf16.Decode(units)), nil
		}
		return "", err
	}
	return string(utf16.Decode(units)), nil
}
