package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/richardlehane/mscfb"

	"datatoolkit/pkg/convert/tabular"
)

// XLS reads the first worksheet of a legacy BIFF8 workbook (.xls). The
// workbook stream lives inside an OLE2 compound file container; mscfb
// opens the container and the BIFF record parser in biff.go does the rest.
// XLS is read-only: there is no use case for producing legacy workbooks.
type XLS struct{}

func (XLS) Read(content []byte) (*tabular.Table, error) {
	doc, err := mscfb.New(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("xls: %w: %v", ErrCorruptFile, err)
	}

	var stream []byte
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name != "Workbook" && entry.Name != "Book" {
			continue
		}
		buf := make([]byte, entry.Size)
		n, rerr := io.ReadFull(entry, buf)
		if rerr != nil && rerr != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("xls: %w: reading workbook stream: %v", ErrCorruptFile, rerr)
		}
		stream = buf[:n]
		break
	}
	if stream == nil {
		return nil, fmt.Errorf("xls: %w: container has no workbook stream", ErrUnsupportedWorkbook)
	}

	sheetName, grid, err := parseBIFFWorkbook(stream)
	if err != nil {
		return nil, err
	}
	return tableFromGrid(grid, "xls", sheetName)
}

func (XLS) Write(*tabular.Table) ([]byte, error) {
	return nil, fmt.Errorf("xls: %w", ErrWriteUnsupported)
}
