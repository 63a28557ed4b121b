package analysis

import (
	"path/filepath"
	"sort"

	"depdoc/internal/graph"
	"depdoc/internal/resolver"
)

// ImpactReport lists the graph nodes whose documentation is stale after a
// set of file changes: the changed nodes themselves, plus everything that
// imports them, transitively.
type ImpactReport struct {
	Changed []*graph.FileNode
	Stale   []*graph.FileNode
}

// Analyzer maps changed files onto the dependency graph.
type Analyzer struct {
	g *graph.Graph
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(g *graph.Graph) *Analyzer {
	return &Analyzer{g: g}
}

// AnalyzeImpact identifies which nodes are affected by the given changed
// file paths. A changed __init__.py marks its package node; any other
// changed .py file marks its module node. Paths with no graph node are
// ignored.
func (a *Analyzer) AnalyzeImpact(changedPaths []string) *ImpactReport {
	report := &ImpactReport{}

	changed := make(map[string]bool)
	for _, path := range changedPaths {
		id := resolver.Normalize(path)
		if filepath.Base(id) == "__init__.py" {
			id = filepath.Dir(id)
		}
		node, ok := a.g.Nodes[id]
		if !ok || changed[id] {
			continue
		}
		changed[id] = true
		report.Changed = append(report.Changed, node)
	}

	// Walk the dependents relation to closure. Cycles are safe: the stale
	// set only grows.
	stale := make(map[string]bool)
	queue := make([]string, 0, len(report.Changed))
	for _, node := range report.Changed {
		queue = append(queue, node.Path)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dep := range a.g.Dependents(id) {
			if changed[dep.Path] || stale[dep.Path] {
				continue
			}
			stale[dep.Path] = true
			report.Stale = append(report.Stale, dep)
			queue = append(queue, dep.Path)
		}
	}

	sort.Slice(report.Changed, func(i, j int) bool { return report.Changed[i].Path < report.Changed[j].Path })
	sort.Slice(report.Stale, func(i, j int) bool { return report.Stale[i].Path < report.Stale[j].Path })
	return report
}
