package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depdoc/internal/crawler"
	"depdoc/internal/extractor"
	"depdoc/internal/resolver"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func buildScan(t *testing.T, files map[string]string) (string, *Scan) {
	t.Helper()
	root := writeTree(t, files)
	idx := NewIndexer(crawler.NewCrawler(), extractor.NewExtractor())
	scan, err := idx.BuildGraph(context.Background(), root)
	require.NoError(t, err)
	return root, scan
}

func TestBuildGraph(t *testing.T) {
	root, scan := buildScan(t, map[string]string{
		"app.py":          "import os\nfrom pkg.models import User\nimport requests\n",
		"pkg/__init__.py": "from .models import User\n",
		"pkg/models.py":   "import json\n",
	})

	g := scan.Graph

	t.Run("nodes and edges", func(t *testing.T) {
		assert.Equal(t, 3, g.NodeCount())

		app := filepath.Join(root, "app.py")
		models := filepath.Join(root, "pkg", "models.py")
		pkg := filepath.Join(root, "pkg")

		require.NotNil(t, g.Nodes[app])
		require.NotNil(t, g.Nodes[models])
		require.NotNil(t, g.Nodes[pkg])

		assert.Equal(t, []string{models}, g.Nodes[app].Deps)
		// The __init__.py import is attributed to the package node.
		assert.Equal(t, []string{models}, g.Nodes[pkg].Deps)
	})

	t.Run("kind counts", func(t *testing.T) {
		assert.Equal(t, 2, scan.KindCounts[resolver.KindBuiltin]) // os, json
		assert.Equal(t, 1, scan.KindCounts[resolver.KindExternal])
		assert.Equal(t, 2, scan.KindCounts[resolver.KindFile])
	})

	t.Run("no parse failures", func(t *testing.T) {
		assert.Empty(t, scan.ParseFailures)
	})
}

func TestBuildGraph_ParseFailure(t *testing.T) {
	root, scan := buildScan(t, map[string]string{
		"good.py":   "import os\n",
		"broken.py": "def f(:\n",
	})

	// The broken file still gets a node, just no edges.
	assert.Equal(t, 2, scan.Graph.NodeCount())
	require.Len(t, scan.ParseFailures, 1)
	assert.Equal(t, filepath.Join(root, "broken.py"), scan.ParseFailures[0].File)
	assert.Empty(t, scan.Graph.Nodes[filepath.Join(root, "broken.py")].Deps)
}

func TestBuildGraph_SelfImportDropped(t *testing.T) {
	root, scan := buildScan(t, map[string]string{
		"loop.py": "import loop\n",
	})
	assert.Equal(t, 0, scan.Graph.EdgeCount())
	assert.NotNil(t, scan.Graph.Nodes[filepath.Join(root, "loop.py")])
}
