package tabular

import (
	"errors"
	"fmt"
)

// ErrInvalidPage indicates a page or page size below 1.
var ErrInvalidPage = errors.New("invalid page")

// InvalidPageError reports the rejected pagination parameters.
type InvalidPageError struct {
	Page     int
	PageSize int
}

func (e *InvalidPageError) Error() string {
	return fmt.Sprintf("invalid page: page=%d page_size=%d (both must be >= 1)", e.Page, e.PageSize)
}

func (e *InvalidPageError) Unwrap() error {
	return ErrInvalidPage
}

// Page is a bounded, read-only view over a table's rows. TotalRows always
// reflects the full row count so callers can compute page bounds.
type Page struct {
	Rows       []Row `json:"rows"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalRows  int   `json:"total_rows"`
	TotalPages int   `json:"total_pages"`
}

// Paginate slices t into the requested 1-indexed page. A page past the end
// of the table yields an empty row slice, not an error.
func Paginate(t *Table, page, pageSize int) (Page, error) {
	if page < 1 || pageSize < 1 {
		return Page{}, &InvalidPageError{Page: page, PageSize: pageSize}
	}

	total := len(t.Rows)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	rows := []Row{}
	if start < total {
		if end > total {
			end = total
		}
		rows = t.Rows[start:end]
	}

	return Page{
		Rows:       rows,
		Page:       page,
		PageSize:   pageSize,
		TotalRows:  total,
		TotalPages: totalPages,
	}, nil
}
