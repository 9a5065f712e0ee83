package utils

import (
	"reflect"
	"testing"
)

func TestReorderNoOp(t *testing.T) {
	in := []string{"a", "b", "c", "d"}
	out, err := Reorder(in, 2, 2, EdgeTop)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("source==target must be a no-op, got %v", out)
	}
}

func TestReorderEdges(t *testing.T) {
	cases := []struct {
		name           string
		source, target int
		edge           Edge
		want           []string
	}{
		{"forward onto top", 0, 2, EdgeTop, []string{"b", "a", "c", "d"}},
		{"forward onto bottom", 0, 2, EdgeBottom, []string{"b", "c", "a", "d"}},
		{"backward onto top", 3, 1, EdgeTop, []string{"a", "d", "b", "c"}},
		{"backward onto bottom", 3, 1, EdgeBottom, []string{"a", "b", "d", "c"}},
		{"adjacent down", 1, 2, EdgeBottom, []string{"a", "c", "b", "d"}},
		{"adjacent up", 2, 1, EdgeTop, []string{"a", "c", "b", "d"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := []string{"a", "b", "c", "d"}
			out, err := Reorder(in, tc.source, tc.target, tc.edge)
			if err != nil {
				t.Fatalf("reorder: %v", err)
			}
			if !reflect.DeepEqual(out, tc.want) {
				t.Fatalf("got %v want %v", out, tc.want)
			}
		})
	}
}

// Every valid triple must yield a permutation with the moved element adjacent
// to the target on the edge side.
func TestReorderPermutationProperty(t *testing.T) {
	in := []string{"a", "b", "c", "d", "e"}
	for source := 0; source < len(in); source++ {
		for target := 0; target < len(in); target++ {
			if source == target {
				continue
			}
			for _, edge := range []Edge{EdgeTop, EdgeBottom} {
				out, err := Reorder(in, source, target, edge)
				if err != nil {
					t.Fatalf("reorder(%d,%d,%s): %v", source, target, edge, err)
				}
				if len(out) != len(in) {
					t.Fatalf("length changed: %v", out)
				}
				seen := map[string]int{}
				for _, v := range out {
					seen[v]++
				}
				for _, v := range in {
					if seen[v] != 1 {
						t.Fatalf("not a permutation: %v", out)
					}
				}

				movedAt := indexOf(out, in[source])
				targetAt := indexOf(out, in[target])
				if edge == EdgeTop && movedAt != targetAt-1 {
					t.Fatalf("reorder(%d,%d,top): %q not directly above %q in %v", source, target, in[source], in[target], out)
				}
				if edge == EdgeBottom && movedAt != targetAt+1 {
					t.Fatalf("reorder(%d,%d,bottom): %q not directly below %q in %v", source, target, in[source], in[target], out)
				}
			}
		}
	}
}

func TestReorderStableForUntouched(t *testing.T) {
	in := []string{"a", "b", "c", "d", "e"}
	out, err := Reorder(in, 1, 3, EdgeBottom)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	rest := []string{}
	for _, v := range out {
		if v != "b" {
			rest = append(rest, v)
		}
	}
	if !reflect.DeepEqual(rest, []string{"a", "c", "d", "e"}) {
		t.Fatalf("untouched order changed: %v", out)
	}
}

func TestReorderBounds(t *testing.T) {
	in := []string{"a", "b"}
	if _, err := Reorder(in, -1, 0, EdgeTop); err == nil {
		t.Fatal("expected bounds error for negative source")
	}
	if _, err := Reorder(in, 0, 2, EdgeBottom); err == nil {
		t.Fatal("expected bounds error for target past end")
	}
}

func TestParseEdge(t *testing.T) {
	if _, err := ParseEdge("left"); err == nil {
		t.Fatal("expected error for unknown edge")
	}
	if e, err := ParseEdge("bottom"); err != nil || e != EdgeBottom {
		t.Fatalf("got %v %v", e, err)
	}
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
