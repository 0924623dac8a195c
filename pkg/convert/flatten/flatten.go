// Package flatten bridges nested JSON and the flat tabular model. Object
// keys are joined to the parent path with ".", array indices with "[i]",
// so {"items":[{"sku":"a"}]} yields the column "items[0].sku". Unflatten
// parses the same grammar back into nested objects and arrays.
package flatten

import (
	"strconv"

	"github.com/tidwall/gjson"

	"datatoolkit/pkg/convert/tabular"
)

// Pair is one flattened leaf: the column path and its cell value.
type Pair struct {
	Path  string
	Value tabular.Value
}

// Flatten walks v and returns its scalar leaves in document order.
// Numbers keep their source lexeme, booleans become "true"/"false" and
// JSON null maps to the null cell value. Empty objects and arrays have
// no leaves and contribute nothing.
func Flatten(v gjson.Result) []Pair {
	var out []Pair
	walk(v, "", &out)
	return out
}

func walk(v gjson.Result, path string, out *[]Pair) {
	switch {
	case v.IsObject():
		v.ForEach(func(key, val gjson.Result) bool {
			p := key.String()
			if path != "" {
				p = path + "." + p
			}
			walk(val, p, out)
			return true
		})
	case v.IsArray():
		i := 0
		v.ForEach(func(_, val gjson.Result) bool {
			walk(val, path+"["+strconv.Itoa(i)+"]", out)
			i++
			return true
		})
	default:
		*out = append(*out, Pair{Path: path, Value: leafValue(v)})
	}
}

func leafValue(v gjson.Result) tabular.Value {
	switch v.Type {
	case gjson.Null:
		return tabular.Null()
	case gjson.String:
		return tabular.String(v.Str)
	case gjson.True:
		return tabular.String("true")
	case gjson.False:
		return tabular.String("false")
	default:
		// Number: v.Raw is the original lexeme, not a reformatted float.
		return tabular.String(v.Raw)
	}
}
