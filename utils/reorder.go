package utils

import "errors"

// Edge is the side of the drop target the pointer was closest to.
type Edge string

const (
	EdgeTop    Edge = "top"
	EdgeBottom Edge = "bottom"
)

var ErrReorderBounds = errors.New("reorder index out of range")

// ParseEdge validates an edge value coming off the wire.
func ParseEdge(s string) (Edge, error) {
	switch Edge(s) {
	case EdgeTop, EdgeBottom:
		return Edge(s), nil
	}
	return "", errors.New("edge must be top or bottom")
}

// Reorder moves the element at source next to the element at target: before
// it for EdgeTop, after it for EdgeBottom. When the insertion point lies past
// the removed source the index is decremented to compensate for the removal
// shifting later elements. source == target is a no-op. All untouched
// elements keep their relative order. The input slice is not modified.
func Reorder[T any](items []T, source, target int, edge Edge) ([]T, error) {
	n := len(items)
	if source < 0 || source >= n || target < 0 || target >= n {
		return nil, ErrReorderBounds
	}

	out := make([]T, n)
	copy(out, items)
	if source == target {
		return out, nil
	}

	insert := target
	if edge == EdgeBottom {
		insert++
	}
	if source < insert {
		insert--
	}

	moved := out[source]
	out = append(out[:source], out[source+1:]...)
	out = append(out[:insert], append([]T{moved}, out[insert:]...)...)
	return out, nil
}
