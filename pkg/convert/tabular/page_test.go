package tabular

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTable(rows int) *Table {
	t := New()
	t.AddColumn("id")
	t.AddColumn("name")
	for i := 1; i <= rows; i++ {
		t.Append(Row{
			"id":   String(fmt.Sprintf("%d", i)),
			"name": String(fmt.Sprintf("row %d", i)),
		})
	}
	return t
}

func TestPaginateMiddlePage(t *testing.T) {
	table := buildTable(25)

	page, err := Paginate(table, 2, 10)
	require.NoError(t, err)

	assert.Len(t, page.Rows, 10)
	assert.Equal(t, "11", page.Rows[0].Get("id").Str)
	assert.Equal(t, "20", page.Rows[9].Get("id").Str)
	assert.Equal(t, 25, page.TotalRows)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.PageSize)
}

func TestPaginateRowCounts(t *testing.T) {
	table := buildTable(25)

	for _, tc := range []struct {
		page, size, want int
	}{
		{1, 10, 10},
		{3, 10, 5},
		{1, 25, 25},
		{1, 100, 25},
		{2, 13, 12},
	} {
		page, err := Paginate(table, tc.page, tc.size)
		require.NoError(t, err)
		assert.Len(t, page.Rows, tc.want, "page=%d size=%d", tc.page, tc.size)
		assert.Equal(t, 25, page.TotalRows)
	}
}

func TestPaginatePastEnd(t *testing.T) {
	table := buildTable(5)

	page, err := Paginate(table, 4, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
	assert.Equal(t, 5, page.TotalRows)
	assert.Equal(t, 1, page.TotalPages)
}

func TestPaginateEmptyTable(t *testing.T) {
	page, err := Paginate(buildTable(0), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
	assert.Equal(t, 0, page.TotalRows)
	assert.Equal(t, 1, page.TotalPages)
}

func TestPaginateInvalidParams(t *testing.T) {
	table := buildTable(5)

	for _, tc := range []struct{ page, size int }{
		{0, 10},
		{-1, 10},
		{1, 0},
		{1, -5},
	} {
		_, err := Paginate(table, tc.page, tc.size)
		assert.ErrorIs(t, err, ErrInvalidPage, "page=%d size=%d", tc.page, tc.size)
	}
}
