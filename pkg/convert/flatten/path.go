package flatten

import (
	"fmt"
	"strconv"
)

// segment is one step of a flattened path: an object key or an array index.
type segment struct {
	key   string
	index int // -1 for object keys
}

// parsePath splits a column name on the flatten grammar. It returns an
// error when the name does not scan as a path (empty key, unterminated or
// non-numeric bracket, trailing separator).
func parsePath(path string) ([]segment, error) {
	if path == "" {
		return nil, fmt.Errorf("empty path")
	}
	var segs []segment
	i, n := 0, len(path)
	for i < n {
		if path[i] == '[' {
			j := i + 1
			for j < n && path[j] != ']' {
				j++
			}
			if j == n {
				return nil, fmt.Errorf("unterminated index in %q", path)
			}
			idx, err := strconv.Atoi(path[i+1 : j])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("invalid index %q in %q", path[i+1:j], path)
			}
			segs = append(segs, segment{index: idx})
			i = j + 1
		} else {
			j := i
			for j < n && path[j] != '.' && path[j] != '[' {
				j++
			}
			if j == i {
				return nil, fmt.Errorf("empty key in %q", path)
			}
			segs = append(segs, segment{key: path[i:j], index: -1})
			i = j
		}
		if i < n && path[i] == '.' {
			i++
			if i == n {
				return nil, fmt.Errorf("trailing separator in %q", path)
			}
		}
	}
	return segs, nil
}
