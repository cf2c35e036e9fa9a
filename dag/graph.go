package dag

import (
	"fmt"
	"slices"
)

// Graph declares nodes and edges (dependency relationships).
type Graph struct {
	Nodes map[string]Node
	Edges []Edge
}

// Edge represents a dependency: To depends on From.
type Edge struct {
	From string
	To   string
}

// NewGraph builds a graph from nodes keyed by their names.
func NewGraph(nodes ...Node) *Graph {
	g := &Graph{Nodes: make(map[string]Node, len(nodes))}
	for _, n := range nodes {
		g.Nodes[n.Name()] = n
	}
	return g
}

// Connect adds an edge making to depend on from.
func (g *Graph) Connect(from, to string) *Graph {
	g.Edges = append(g.Edges, Edge{From: from, To: to})
	return g
}

// Dependencies returns each node's direct dependencies, sorted and
// deduplicated.
func (g *Graph) Dependencies() map[string][]string {
	deps := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		deps[e.To] = append(deps[e.To], e.From)
	}
	for name, d := range deps {
		slices.Sort(d)
		deps[name] = slices.Compact(d)
	}
	return deps
}

// BuildLevels uses Kahn's algorithm to group nodes by dependency level.
// Nodes within the same level can execute in parallel; each level is
// sorted by name so executions are reproducible.
// Returns an error if a cycle is detected.
func BuildLevels(g *Graph) ([][]string, error) {
	inDegree := make(map[string]int, len(g.Nodes))
	dependents := make(map[string][]string)

	for name := range g.Nodes {
		inDegree[name] = 0
	}

	for _, e := range g.Dedup() {
		if _, ok := g.Nodes[e.From]; !ok {
			return nil, fmt.Errorf("dag: edge references unknown node %q", e.From)
		}
		if _, ok := g.Nodes[e.To]; !ok {
			return nil, fmt.Errorf("dag: edge references unknown node %q", e.To)
		}
		inDegree[e.To]++
		dependents[e.From] = append(dependents[e.From], e.To)
	}

	var queue []string
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	var levels [][]string
	visited := 0

	for len(queue) > 0 {
		slices.Sort(queue)
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		queue = next
	}

	if visited != len(g.Nodes) {
		return nil, fmt.Errorf("dag: cycle detected, processed %d of %d nodes", visited, len(g.Nodes))
	}

	return levels, nil
}

// Dedup returns the graph's edges with repeats removed, in first-seen order.
func (g *Graph) Dedup() []Edge {
	seen := make(map[Edge]bool, len(g.Edges))
	out := make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}
