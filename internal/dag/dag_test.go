// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"slices"
	"testing"
)

func build(nodes []string, edges [][2]string) *Graph {
	g := New()
	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, e := range edges {
		g.AddEdge(e[0], e[1])
	}
	return g
}

func TestTopologicalSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		nodes []string
		edges [][2]string
		want  []string
	}{
		{name: "empty"},
		{name: "lone unit", nodes: []string{"app"}, want: []string{"app"}},
		{
			name:  "chain",
			edges: [][2]string{{"base", "tools"}, {"tools", "app"}},
			want:  []string{"base", "tools", "app"},
		},
		{
			name:  "shared dependency",
			edges: [][2]string{{"base", "db"}, {"base", "web"}, {"db", "app"}, {"web", "app"}},
			want:  []string{"base", "db", "web", "app"},
		},
		{
			name:  "unrelated units keep insertion order",
			nodes: []string{"z", "a"},
			edges: [][2]string{{"m", "a"}},
			want:  []string{"z", "m", "a"},
		},
		{
			name:  "repeated link",
			edges: [][2]string{{"lib", "app"}, {"lib", "app"}},
			want:  []string{"lib", "app"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := build(tt.nodes, tt.edges).TopologicalSort()
			if err != nil {
				t.Fatalf("TopologicalSort() returned error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("TopologicalSort() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopologicalSort_Cycles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		edges [][2]string
		want  []string
	}{
		{"self link", [][2]string{{"a", "a"}}, []string{"a", "a"}},
		{"two units", [][2]string{{"a", "b"}, {"b", "a"}}, []string{"a", "b", "a"}},
		{"three units", [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}}, []string{"a", "b", "c", "a"}},
		{"cycle behind an acyclic prefix", [][2]string{{"root", "x"}, {"x", "y"}, {"y", "x"}, {"y", "z"}}, []string{"x", "y", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := build(nil, tt.edges).TopologicalSort()
			var cycleErr *CycleError
			if !errors.As(err, &cycleErr) {
				t.Fatalf("expected *CycleError, got %T: %v", err, err)
			}
			if !errors.Is(err, ErrCycle) {
				t.Error("CycleError should wrap ErrCycle")
			}
			if !slices.Equal(cycleErr.Cycle, tt.want) {
				t.Errorf("cycle = %v, want %v", cycleErr.Cycle, tt.want)
			}
		})
	}
}

func TestNodes(t *testing.T) {
	t.Parallel()

	g := build([]string{"c"}, [][2]string{{"a", "b"}, {"c", "a"}})
	nodes := g.Nodes()
	if !slices.Equal(nodes, []string{"c", "a", "b"}) {
		t.Errorf("Nodes() = %v", nodes)
	}
	nodes[0] = "mutated"
	if g.Nodes()[0] != "c" {
		t.Error("Nodes() exposes internal storage")
	}
}

func TestCycleErrorMessage(t *testing.T) {
	t.Parallel()

	err := &CycleError{Cycle: []string{"app", "tools", "app"}}
	if got, want := err.Error(), "link cycle detected: app -> tools -> app"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
