package crawler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree materializes a small Python project under a temp dir.
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

func TestScanProject(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app.py":              "import pkg\n",
		"pkg/__init__.py":     "from . import models\n",
		"pkg/models.py":       "class User: pass\n",
		"notes.txt":           "not python",
		"__pycache__/junk.py": "compiled cache",
		".hidden/secret.py":   "skipped",
		"venv/lib/site.py":    "skipped",
	})

	res, err := NewCrawler().ScanProject(root)
	require.NoError(t, err)

	byPath := make(map[string]bool)
	for _, n := range res.Nodes {
		byPath[n.Path] = true
	}

	t.Run("python files become nodes", func(t *testing.T) {
		require.Len(t, res.Nodes, 3)
		assert.True(t, byPath[filepath.Join(root, "app.py")])
		assert.True(t, byPath[filepath.Join(root, "pkg", "models.py")])
	})

	t.Run("init file maps to package directory", func(t *testing.T) {
		assert.True(t, byPath[filepath.Join(root, "pkg")])
		assert.False(t, byPath[filepath.Join(root, "pkg", "__init__.py")])
		for _, n := range res.Nodes {
			if n.Path == filepath.Join(root, "pkg") {
				assert.True(t, n.IsPackage)
				assert.Equal(t, "pkg", n.Name)
				assert.Equal(t, "from . import models\n", n.Content)
			}
		}
	})

	t.Run("ignored directories are skipped", func(t *testing.T) {
		for _, f := range res.Files {
			assert.NotContains(t, f.Path, "__pycache__")
			assert.NotContains(t, f.Path, ".hidden")
			assert.NotContains(t, f.Path, "venv")
		}
	})

	t.Run("layout reflects the tree", func(t *testing.T) {
		assert.True(t, res.Layout.HasFile(filepath.Join(root, "app.py")))
		assert.True(t, res.Layout.IsPackage(filepath.Join(root, "pkg")))
		assert.False(t, res.Layout.HasFile(filepath.Join(root, "notes.txt")))
	})
}

func TestScanProject_MissingRoot(t *testing.T) {
	_, err := NewCrawler().ScanProject(filepath.Join(t.TempDir(), "gone"))
	assert.Error(t, err)
}
