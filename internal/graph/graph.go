package graph

import (
	"sort"

	"depdoc/internal/resolver"
)

// State tracks a node's position in the documentation lifecycle. State and
// attempt counts are the only mutable fields on a FileNode and are owned
// exclusively by the pipeline after construction.
type State string

const (
	StatePending    State = "pending"
	StateReady      State = "ready"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateError      State = "error"
	StateSkipped    State = "skipped"
)

// Terminal reports whether a state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateError || s == StateSkipped
}

// FileNode represents one module or package in the dependency graph.
// Identity is the normalized absolute path: the .py file for modules, the
// directory for packages.
type FileNode struct {
	Path      string
	Name      string
	IsPackage bool
	Content   string

	Deps       []string // internal dependency identities, sorted
	Dependents []string // inverse edges, sorted

	State    State
	Attempts int
	CycleID  int // -1 when the node is not part of a cycle group
}

// Edge is a directed dependency: From imports To, so To must be documented
// before From.
type Edge struct {
	From string
	To   string
}

// Graph holds all internal file nodes and the edge relation induced by their
// resolved internal dependencies.
type Graph struct {
	Nodes map[string]*FileNode
	Edges []Edge
}

// Build assembles the graph from file nodes and resolved dependencies.
// Self-edges are detected and dropped before insertion; dependencies whose
// endpoints are not internal nodes create no edge. Duplicate edges collapse.
func Build(nodes []*FileNode, deps []resolver.ResolvedDependency) *Graph {
	g := &Graph{Nodes: make(map[string]*FileNode, len(nodes))}

	for _, n := range nodes {
		n.State = StatePending
		n.CycleID = -1
		g.Nodes[n.Path] = n
	}

	seen := make(map[Edge]bool)
	for _, dep := range deps {
		if !dep.Internal() {
			continue
		}
		e := Edge{From: dep.Source, To: dep.Target}
		if e.From == e.To {
			continue // self-reference, dropped by invariant
		}
		if g.Nodes[e.From] == nil || g.Nodes[e.To] == nil {
			continue
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		g.Edges = append(g.Edges, e)
		g.Nodes[e.From].Deps = append(g.Nodes[e.From].Deps, e.To)
		g.Nodes[e.To].Dependents = append(g.Nodes[e.To].Dependents, e.From)
	}

	for _, n := range g.Nodes {
		sort.Strings(n.Deps)
		sort.Strings(n.Dependents)
	}
	return g
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// EdgeCount returns the number of distinct internal edges.
func (g *Graph) EdgeCount() int {
	return len(g.Edges)
}

// Dependencies returns the nodes the given node depends on.
func (g *Graph) Dependencies(id string) []*FileNode {
	node, ok := g.Nodes[id]
	if !ok {
		return nil
	}
	deps := make([]*FileNode, 0, len(node.Deps))
	for _, d := range node.Deps {
		deps = append(deps, g.Nodes[d])
	}
	return deps
}

// Dependents returns the nodes that depend on the given node.
func (g *Graph) Dependents(id string) []*FileNode {
	node, ok := g.Nodes[id]
	if !ok {
		return nil
	}
	deps := make([]*FileNode, 0, len(node.Dependents))
	for _, d := range node.Dependents {
		deps = append(deps, g.Nodes[d])
	}
	return deps
}

// sortedIDs returns node identities in ascending order for deterministic
// traversal.
func (g *Graph) sortedIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
