package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depdoc/internal/graph"
	"depdoc/internal/pipeline"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_Persist(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	node := &graph.FileNode{Path: "/p/models.py", Name: "models"}

	require.NoError(t, store.Persist(ctx, node, "first version"))

	doc, err := store.GetDocument(ctx, "/p/models.py")
	require.NoError(t, err)
	assert.Equal(t, "first version", doc)

	t.Run("upsert overwrites", func(t *testing.T) {
		require.NoError(t, store.Persist(ctx, node, "second version"))
		doc, err := store.GetDocument(ctx, "/p/models.py")
		require.NoError(t, err)
		assert.Equal(t, "second version", doc)
	})

	t.Run("unknown id yields empty", func(t *testing.T) {
		doc, err := store.GetDocument(ctx, "/p/nope.py")
		require.NoError(t, err)
		assert.Empty(t, doc)
	})
}

func TestSQLiteStore_SaveReport(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	report := &pipeline.Report{
		TotalNodes: 2,
		TotalEdges: 1,
		States: map[string]graph.State{
			"/p/a.py": graph.StateCompleted,
			"/p/b.py": graph.StateError,
		},
		Attempts: map[string]int{"/p/a.py": 1, "/p/b.py": 3},
	}
	require.NoError(t, store.SaveReport(ctx, report))
	require.NoError(t, store.SaveReport(ctx, report)) // multiple runs accumulate
}

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink()
	ctx := context.Background()

	t.Run("module doc beside the file", func(t *testing.T) {
		node := &graph.FileNode{Path: filepath.Join(dir, "models.py"), Name: "models"}
		require.NoError(t, sink.Persist(ctx, node, "module docs"))
		assert.FileExists(t, filepath.Join(dir, "models_DOCUMENTATION.md"))
	})

	t.Run("package doc inside the directory", func(t *testing.T) {
		node := &graph.FileNode{Path: dir, Name: filepath.Base(dir), IsPackage: true}
		require.NoError(t, sink.Persist(ctx, node, "package docs"))
		assert.FileExists(t, filepath.Join(dir, "DOCUMENTATION.md"))
	})
}

func TestMultiSink(t *testing.T) {
	store := testStore(t)
	dir := t.TempDir()
	sink := MultiSink{store, NewFileSink()}
	ctx := context.Background()

	node := &graph.FileNode{Path: filepath.Join(dir, "app.py"), Name: "app"}
	require.NoError(t, sink.Persist(ctx, node, "docs"))

	doc, err := store.GetDocument(ctx, node.Path)
	require.NoError(t, err)
	assert.Equal(t, "docs", doc)
	assert.FileExists(t, filepath.Join(dir, "app_DOCUMENTATION.md"))
}
