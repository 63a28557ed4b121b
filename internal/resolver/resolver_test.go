package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depdoc/internal/extractor"
)

// testLayout mirrors a small project:
//
//	/proj/app.py
//	/proj/pkg/__init__.py
//	/proj/pkg/models.py
//	/proj/pkg/sub/__init__.py
//	/proj/pkg/sub/db.py
//	/proj/ns/util.py          (no __init__.py: namespace package)
func testLayout() *Layout {
	l := NewLayout("/proj")
	for _, f := range []string{
		"/proj/app.py",
		"/proj/pkg/__init__.py",
		"/proj/pkg/models.py",
		"/proj/pkg/sub/__init__.py",
		"/proj/pkg/sub/db.py",
		"/proj/ns/util.py",
	} {
		l.AddFile(f)
	}
	return l
}

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := New(testLayout())
	require.NoError(t, err)
	return r
}

func TestResolve_Absolute(t *testing.T) {
	r := testResolver(t)

	t.Run("module file", func(t *testing.T) {
		dep := r.Resolve(extractor.ImportFact{Module: "pkg.models"}, "/proj/app.py")
		assert.Equal(t, KindFile, dep.Kind)
		assert.Equal(t, "/proj/pkg/models.py", dep.Target)
		assert.Equal(t, "/proj/app.py", dep.Source)
		assert.True(t, dep.Internal())
	})

	t.Run("package directory", func(t *testing.T) {
		dep := r.Resolve(extractor.ImportFact{Module: "pkg"}, "/proj/app.py")
		assert.Equal(t, KindPackage, dep.Kind)
		assert.Equal(t, "/proj/pkg", dep.Target)
	})

	t.Run("nested package", func(t *testing.T) {
		dep := r.Resolve(extractor.ImportFact{Module: "pkg.sub.db"}, "/proj/app.py")
		assert.Equal(t, KindFile, dep.Kind)
		assert.Equal(t, "/proj/pkg/sub/db.py", dep.Target)
	})

	t.Run("namespace package", func(t *testing.T) {
		dep := r.Resolve(extractor.ImportFact{Module: "ns"}, "/proj/app.py")
		assert.Equal(t, KindNamespace, dep.Kind)
		assert.Equal(t, "/proj/ns", dep.Target)
		assert.True(t, dep.Internal())
	})

	t.Run("module inside namespace package", func(t *testing.T) {
		dep := r.Resolve(extractor.ImportFact{Module: "ns.util"}, "/proj/app.py")
		assert.Equal(t, KindFile, dep.Kind)
		assert.Equal(t, "/proj/ns/util.py", dep.Target)
	})

	t.Run("standard library", func(t *testing.T) {
		dep := r.Resolve(extractor.ImportFact{Module: "os.path"}, "/proj/app.py")
		assert.Equal(t, KindBuiltin, dep.Kind)
		assert.False(t, dep.Internal())
	})

	t.Run("external package", func(t *testing.T) {
		dep := r.Resolve(extractor.ImportFact{Module: "requests"}, "/proj/app.py")
		assert.Equal(t, KindExternal, dep.Kind)
		assert.Empty(t, dep.Target)
	})

	t.Run("internal name shadows stdlib", func(t *testing.T) {
		// A project-level json.py would win over the stdlib module.
		l := testLayout()
		l.AddFile("/proj/json.py")
		r, err := New(l)
		require.NoError(t, err)

		dep := r.Resolve(extractor.ImportFact{Module: "json"}, "/proj/app.py")
		assert.Equal(t, KindFile, dep.Kind)
		assert.Equal(t, "/proj/json.py", dep.Target)
	})
}

func TestResolve_Relative(t *testing.T) {
	r := testResolver(t)

	t.Run("sibling module", func(t *testing.T) {
		dep := r.Resolve(extractor.ImportFact{Module: "models", Level: 1, FromImport: true}, "/proj/pkg/__init__.py")
		assert.Equal(t, KindFile, dep.Kind)
		assert.Equal(t, "/proj/pkg/models.py", dep.Target)
	})

	t.Run("containing package itself", func(t *testing.T) {
		dep := r.Resolve(extractor.ImportFact{Level: 1, FromImport: true}, "/proj/pkg/sub/db.py")
		assert.Equal(t, KindPackage, dep.Kind)
		assert.Equal(t, "/proj/pkg/sub", dep.Target)
	})

	t.Run("two levels up", func(t *testing.T) {
		dep := r.Resolve(extractor.ImportFact{Module: "models", Level: 2, FromImport: true}, "/proj/pkg/sub/db.py")
		assert.Equal(t, KindFile, dep.Kind)
		assert.Equal(t, "/proj/pkg/models.py", dep.Target)
	})

	t.Run("descent through subpackage", func(t *testing.T) {
		dep := r.Resolve(extractor.ImportFact{Module: "sub.db", Level: 1, FromImport: true}, "/proj/pkg/models.py")
		assert.Equal(t, KindFile, dep.Kind)
		assert.Equal(t, "/proj/pkg/sub/db.py", dep.Target)
	})

	t.Run("ascending above root is unresolved", func(t *testing.T) {
		dep := r.Resolve(extractor.ImportFact{Module: "anything", Level: 4, FromImport: true}, "/proj/pkg/sub/db.py")
		assert.Equal(t, KindUnresolved, dep.Kind)
	})

	t.Run("missing relative target is unresolved", func(t *testing.T) {
		dep := r.Resolve(extractor.ImportFact{Module: "missing", Level: 1, FromImport: true}, "/proj/pkg/models.py")
		assert.Equal(t, KindUnresolved, dep.Kind)
	})
}

func TestResolve_Deterministic(t *testing.T) {
	r := testResolver(t)
	fact := extractor.ImportFact{Module: "pkg.models"}

	cold := r.Resolve(fact, "/proj/app.py")
	warm := r.Resolve(fact, "/proj/app.py")
	assert.Equal(t, cold, warm)

	// A different origin shares the module path but not the cache entry.
	other := r.Resolve(fact, "/proj/pkg/sub/db.py")
	assert.Equal(t, cold.Target, other.Target)
	assert.Equal(t, "/proj/pkg/sub/db.py", other.Source)
}

func TestLayout(t *testing.T) {
	l := testLayout()

	assert.True(t, l.HasFile("/proj/app.py"))
	assert.False(t, l.HasFile("/proj/nope.py"))
	assert.True(t, l.IsPackage("/proj/pkg"))
	assert.False(t, l.IsPackage("/proj/ns"))
	assert.True(t, l.IsSourceDir("/proj/ns"))
	assert.True(t, l.Contains("/proj/pkg/sub"))
	assert.False(t, l.Contains("/other"))
	assert.False(t, l.Contains("/projx"))
}

func TestIsStandardLibrary(t *testing.T) {
	assert.True(t, IsStandardLibrary("os"))
	assert.True(t, IsStandardLibrary("os.path"))
	assert.True(t, IsStandardLibrary("__future__"))
	assert.False(t, IsStandardLibrary("requests"))
	assert.False(t, IsStandardLibrary("osmium"))
}
