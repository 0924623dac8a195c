package flatten

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"datatoolkit/pkg/convert/tabular"
)

func flattenJSON(t *testing.T, src string) []Pair {
	t.Helper()
	require.True(t, gjson.Valid(src), "test fixture must be valid JSON")
	return Flatten(gjson.Parse(src))
}

func TestFlattenNestedObject(t *testing.T) {
	pairs := flattenJSON(t, `{"name":"A","address":{"city":"Oslo","zip":"0150"}}`)

	require.Len(t, pairs, 3)
	assert.Equal(t, "name", pairs[0].Path)
	assert.Equal(t, "address.city", pairs[1].Path)
	assert.Equal(t, "Oslo", pairs[1].Value.Str)
	assert.Equal(t, "address.zip", pairs[2].Path)
}

func TestFlattenArrays(t *testing.T) {
	pairs := flattenJSON(t, `{"items":[{"sku":"a"},{"sku":"b"}],"tags":["x","y"]}`)

	paths := make([]string, len(pairs))
	for i, p := range pairs {
		paths[i] = p.Path
	}
	assert.Equal(t, []string{"items[0].sku", "items[1].sku", "tags[0]", "tags[1]"}, paths)
}

func TestFlattenScalarTypes(t *testing.T) {
	pairs := flattenJSON(t, `{"id":"007","n":3.140,"ok":true,"off":false,"gone":null}`)

	byPath := map[string]tabular.Value{}
	for _, p := range pairs {
		byPath[p.Path] = p.Value
	}
	assert.Equal(t, "007", byPath["id"].Str)
	// The numeric lexeme survives untouched, trailing zero included.
	assert.Equal(t, "3.140", byPath["n"].Str)
	assert.Equal(t, "true", byPath["ok"].Str)
	assert.Equal(t, "false", byPath["off"].Str)
	assert.True(t, byPath["gone"].IsNull())
}

func TestUnflattenRoundTrip(t *testing.T) {
	src := `{"name":"A","address":{"city":"Oslo","zip":"0150"},"items":[{"sku":"a"},{"sku":"b"}]}`
	pairs := flattenJSON(t, src)

	columns := make([]string, len(pairs))
	row := tabular.Row{}
	for i, p := range pairs {
		columns[i] = p.Path
		row[p.Path] = p.Value
	}

	node, err := Unflatten(columns, row)
	require.NoError(t, err)
	assert.JSONEq(t, src, string(node.JSON()))
}

func TestUnflattenKeyOrderFollowsColumns(t *testing.T) {
	columns := []string{"b", "a.y", "a.x"}
	row := tabular.Row{
		"b":   tabular.String("1"),
		"a.y": tabular.String("2"),
		"a.x": tabular.String("3"),
	}

	node, err := Unflatten(columns, row)
	require.NoError(t, err)
	assert.Equal(t, `{"b":"1","a":{"y":"2","x":"3"}}`, string(node.JSON()))
}

func TestUnflattenMissingColumnIsNull(t *testing.T) {
	node, err := Unflatten([]string{"a", "b"}, tabular.Row{"a": tabular.String("1")})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"1","b":null}`, string(node.JSON()))
}

func TestUnflattenSparseArrayIndices(t *testing.T) {
	node, err := Unflatten([]string{"t[2]"}, tabular.Row{"t[2]": tabular.String("z")})
	require.NoError(t, err)
	assert.Equal(t, `{"t":[null,null,"z"]}`, string(node.JSON()))
}

func TestUnflattenMixedShapeConflict(t *testing.T) {
	row := tabular.Row{
		"items[0]":  tabular.String("a"),
		"items.foo": tabular.String("b"),
	}
	_, err := Unflatten([]string{"items[0]", "items.foo"}, row)
	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "items.foo", pe.Column)
}

func TestUnflattenLeafContainerConflict(t *testing.T) {
	row := tabular.Row{
		"a":   tabular.String("1"),
		"a.b": tabular.String("2"),
	}
	_, err := Unflatten([]string{"a", "a.b"}, row)
	var pe *PathError
	require.ErrorAs(t, err, &pe)
}

func TestUnflattenLiteralColumnNames(t *testing.T) {
	// Headers that do not scan as paths stay literal keys.
	columns := []string{"weird[name", "trailing."}
	row := tabular.Row{
		"weird[name": tabular.String("1"),
		"trailing.":  tabular.String("2"),
	}
	node, err := Unflatten(columns, row)
	require.NoError(t, err)
	assert.Equal(t, `{"weird[name":"1","trailing.":"2"}`, string(node.JSON()))
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"a", 1, false},
		{"a.b.c", 3, false},
		{"items[0].sku", 3, false},
		{"a[1][2]", 3, false},
		{"", 0, true},
		{"a..b", 0, true},
		{"a[x]", 0, true},
		{"a[", 0, true},
		{"a.", 0, true},
	}
	for _, tt := range tests {
		segs, err := parsePath(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "path %q", tt.in)
			continue
		}
		require.NoError(t, err, "path %q", tt.in)
		assert.Len(t, segs, tt.want, "path %q", tt.in)
	}
}
