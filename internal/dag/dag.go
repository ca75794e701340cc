// SPDX-License-Identifier: MPL-2.0

// Package dag orders linked units so that every unit is compiled after the
// units it links to, and reports link cycles.
package dag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is the sentinel wrapped by CycleError.
var ErrCycle = errors.New("link cycle")

type (
	// CycleError reports units that link to each other in a loop.
	CycleError struct {
		// Cycle lists the nodes along one cycle, first node repeated at the
		// end ("a", "b", "a"). A self edge is reported as ("a", "a").
		Cycle []string
	}

	// Graph is a directed graph keyed by unit name. An edge from A to B
	// means A must be compiled before B.
	Graph struct {
		edges map[string][]string
		// insertion order; ties in the sort follow it
		nodes []string
		known map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("link cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		edges: make(map[string][]string),
		known: make(map[string]bool),
	}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if g.known[name] {
		return
	}
	g.known[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge adds the edge from -> to, adding missing nodes.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.edges[from] = append(g.edges[from], to)
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.nodes...)
}

// TopologicalSort returns a valid compile order using Kahn's algorithm.
// Nodes at the same level keep their insertion order. A cycle yields a
// *CycleError naming one concrete cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		inDegree[node] = 0
	}
	for _, neighbors := range g.edges {
		for _, n := range neighbors {
			inDegree[n]++
		}
	}

	var queue []string
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)
		for _, n := range g.edges[node] {
			inDegree[n]--
			if inDegree[n] == 0 {
				queue = append(queue, n)
			}
		}
	}

	if len(result) != len(g.nodes) {
		return nil, &CycleError{Cycle: g.findCycle(inDegree)}
	}
	return result, nil
}

// findCycle walks the nodes Kahn's algorithm could not release. Every such
// node has a predecessor among them, so following edges inside that set
// must revisit a node.
func (g *Graph) findCycle(inDegree map[string]int) []string {
	var start string
	for _, node := range g.nodes {
		if inDegree[node] > 0 {
			start = node
			break
		}
	}

	stuck := func(n string) bool { return inDegree[n] > 0 }
	// walk predecessors: build reverse edges restricted to stuck nodes
	preds := make(map[string][]string)
	for from, tos := range g.edges {
		for _, to := range tos {
			if stuck(from) && stuck(to) {
				preds[to] = append(preds[to], from)
			}
		}
	}

	seen := map[string]int{}
	var path []string
	for cur := start; ; {
		if i, ok := seen[cur]; ok {
			cycle := append([]string(nil), path[i:]...)
			// path follows predecessors; reverse into edge order
			for l, r := 0, len(cycle)-1; l < r; l, r = l+1, r-1 {
				cycle[l], cycle[r] = cycle[r], cycle[l]
			}
			cycle = g.rotate(cycle)
			return append(cycle, cycle[0])
		}
		seen[cur] = len(path)
		path = append(path, cur)
		ps := preds[cur]
		if len(ps) == 0 {
			return path
		}
		cur = g.firstInOrder(ps)
	}
}

// rotate starts the cycle at its earliest inserted node.
func (g *Graph) rotate(cycle []string) []string {
	first := g.firstInOrder(cycle)
	for i, n := range cycle {
		if n == first {
			return append(append([]string(nil), cycle[i:]...), cycle[:i]...)
		}
	}
	return cycle
}

// firstInOrder picks the earliest inserted node of candidates, keeping the
// reported cycle deterministic.
func (g *Graph) firstInOrder(candidates []string) string {
	for _, node := range g.nodes {
		for _, c := range candidates {
			if c == node {
				return node
			}
		}
	}
	return candidates[0]
}
