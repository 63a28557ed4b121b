package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depdoc/internal/graph"
	"depdoc/internal/resolver"
)

func testGraph() *graph.Graph {
	nodes := []*graph.FileNode{
		{Path: "/proj/app.py", Name: "app"},
		{Path: "/proj/svc.py", Name: "svc"},
		{Path: "/proj/core.py", Name: "core"},
		{Path: "/proj/pkg", Name: "pkg", IsPackage: true},
	}
	deps := []resolver.ResolvedDependency{
		{Source: "/proj/app.py", Target: "/proj/svc.py", Kind: resolver.KindFile},
		{Source: "/proj/svc.py", Target: "/proj/core.py", Kind: resolver.KindFile},
		{Source: "/proj/app.py", Target: "/proj/pkg", Kind: resolver.KindPackage},
	}
	return graph.Build(nodes, deps)
}

func TestAnalyzeImpact(t *testing.T) {
	a := NewAnalyzer(testGraph())

	t.Run("transitive dependents are stale", func(t *testing.T) {
		report := a.AnalyzeImpact([]string{"/proj/core.py"})
		require.Len(t, report.Changed, 1)
		assert.Equal(t, "/proj/core.py", report.Changed[0].Path)

		var stale []string
		for _, n := range report.Stale {
			stale = append(stale, n.Path)
		}
		assert.Equal(t, []string{"/proj/app.py", "/proj/svc.py"}, stale)
	})

	t.Run("init file maps to its package", func(t *testing.T) {
		report := a.AnalyzeImpact([]string{"/proj/pkg/__init__.py"})
		require.Len(t, report.Changed, 1)
		assert.Equal(t, "/proj/pkg", report.Changed[0].Path)
		require.Len(t, report.Stale, 1)
		assert.Equal(t, "/proj/app.py", report.Stale[0].Path)
	})

	t.Run("unknown paths are ignored", func(t *testing.T) {
		report := a.AnalyzeImpact([]string{"/proj/readme.md", "/elsewhere/x.py"})
		assert.Empty(t, report.Changed)
		assert.Empty(t, report.Stale)
	})

	t.Run("leaf change has no dependents", func(t *testing.T) {
		report := a.AnalyzeImpact([]string{"/proj/app.py"})
		require.Len(t, report.Changed, 1)
		assert.Empty(t, report.Stale)
	})

	t.Run("cyclic graphs terminate", func(t *testing.T) {
		g := graph.Build(
			[]*graph.FileNode{{Path: "/proj/a.py"}, {Path: "/proj/b.py"}},
			[]resolver.ResolvedDependency{
				{Source: "/proj/a.py", Target: "/proj/b.py", Kind: resolver.KindFile},
				{Source: "/proj/b.py", Target: "/proj/a.py", Kind: resolver.KindFile},
			},
		)
		report := NewAnalyzer(g).AnalyzeImpact([]string{"/proj/a.py"})
		require.Len(t, report.Changed, 1)
		require.Len(t, report.Stale, 1)
		assert.Equal(t, "/proj/b.py", report.Stale[0].Path)
	})
}
