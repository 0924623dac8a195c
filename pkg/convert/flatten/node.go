package flatten

import (
	"bytes"
	"encoding/json"
	"fmt"

	"datatoolkit/pkg/convert/tabular"
)

// PathError reports a column whose path cannot be merged into the
// reconstructed value, such as "items[0]" and "items.foo" claiming both an
// array and an object at the same location.
type PathError struct {
	Column string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
}

type nodeKind int

const (
	kindLeaf nodeKind = iota
	kindObject
	kindArray
)

// Node is one value in the reconstructed JSON tree. Object fields keep
// insertion order so the emitted keys follow column order.
type Node struct {
	kind   nodeKind
	keys   []string
	fields map[string]*Node
	elems  []*Node // nil slots render as null
	leaf   tabular.Value
}

func newObject() *Node {
	return &Node{kind: kindObject, fields: make(map[string]*Node)}
}

func newArray() *Node {
	return &Node{kind: kindArray}
}

// Unflatten rebuilds the nested value for one row. Columns whose names do
// not scan as flatten paths are kept as literal top-level keys. Columns
// absent from the row contribute JSON null at their path.
func Unflatten(columns []string, row tabular.Row) (*Node, error) {
	root := newObject()
	for _, col := range columns {
		segs, err := parsePath(col)
		if err != nil {
			// Not a path, just an ordinary column name.
			segs = []segment{{key: col, index: -1}}
		}
		if err := root.set(col, segs, row.Get(col)); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func (n *Node) set(col string, segs []segment, v tabular.Value) error {
	cur := n
	for i, seg := range segs {
		last := i == len(segs)-1

		var next *Node
		if seg.index < 0 {
			if cur.kind != kindObject {
				return &PathError{Column: col, Reason: "object key at an array or scalar location"}
			}
			next = cur.fields[seg.key]
			if next == nil {
				next = newChild(segs, i, last, v)
				cur.fields[seg.key] = next
				cur.keys = append(cur.keys, seg.key)
			} else if last {
				return conflict(col, next)
			}
		} else {
			if cur.kind != kindArray {
				return &PathError{Column: col, Reason: "array index at an object or scalar location"}
			}
			for len(cur.elems) <= seg.index {
				cur.elems = append(cur.elems, nil)
			}
			next = cur.elems[seg.index]
			if next == nil {
				next = newChild(segs, i, last, v)
				cur.elems[seg.index] = next
			} else if last {
				return conflict(col, next)
			}
		}
		cur = next
	}
	return nil
}

// newChild creates the node for segment i: the leaf when i is last,
// otherwise the container the following segment requires.
func newChild(segs []segment, i int, last bool, v tabular.Value) *Node {
	if last {
		return &Node{kind: kindLeaf, leaf: v}
	}
	if segs[i+1].index >= 0 {
		return newArray()
	}
	return newObject()
}

func conflict(col string, existing *Node) error {
	if existing.kind == kindLeaf {
		return &PathError{Column: col, Reason: "duplicate leaf path"}
	}
	return &PathError{Column: col, Reason: "scalar at a container location"}
}

// JSON renders the tree, object keys in insertion order.
func (n *Node) JSON() []byte {
	var buf bytes.Buffer
	n.appendTo(&buf)
	return buf.Bytes()
}

func (n *Node) appendTo(buf *bytes.Buffer) {
	switch n.kind {
	case kindLeaf:
		if n.leaf.IsNull() {
			buf.WriteString("null")
			return
		}
		b, _ := json.Marshal(n.leaf.Str)
		buf.Write(b)
	case kindObject:
		buf.WriteByte('{')
		for i, k := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			n.fields[k].appendTo(buf)
		}
		buf.WriteByte('}')
	case kindArray:
		buf.WriteByte('[')
		for i, el := range n.elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			if el == nil {
				buf.WriteString("null")
			} else {
				el.appendTo(buf)
			}
		}
		buf.WriteByte(']')
	}
}
