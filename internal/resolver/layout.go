package resolver

import (
	"path/filepath"
	"strings"
)

// Layout is an immutable snapshot of the project's file structure. The
// resolver works only against this snapshot, never the live filesystem, so
// identical inputs always resolve identically regardless of call order.
type Layout struct {
	root       string
	files      map[string]bool // absolute paths of .py files
	packages   map[string]bool // directories containing __init__.py
	sourceDirs map[string]bool // directories containing at least one .py file
}

// NewLayout creates an empty layout rooted at the given project directory.
func NewLayout(root string) *Layout {
	return &Layout{
		root:       Normalize(root),
		files:      make(map[string]bool),
		packages:   make(map[string]bool),
		sourceDirs: make(map[string]bool),
	}
}

// AddFile registers a Python source file. Directories on the path up to the
// root are marked as source directories; a registered __init__.py marks its
// directory as a package.
func (l *Layout) AddFile(path string) {
	path = Normalize(path)
	l.files[path] = true

	dir := filepath.Dir(path)
	if filepath.Base(path) == "__init__.py" {
		l.packages[dir] = true
	}
	for l.Contains(dir) {
		l.sourceDirs[dir] = true
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}

// Root returns the normalized project root.
func (l *Layout) Root() string {
	return l.root
}

// HasFile reports whether the given absolute path is a registered source file.
func (l *Layout) HasFile(path string) bool {
	return l.files[Normalize(path)]
}

// IsPackage reports whether dir carries an explicit package marker.
func (l *Layout) IsPackage(dir string) bool {
	return l.packages[Normalize(dir)]
}

// IsSourceDir reports whether dir contains source files anywhere beneath it
// without necessarily carrying a package marker (a namespace package).
func (l *Layout) IsSourceDir(dir string) bool {
	return l.sourceDirs[Normalize(dir)]
}

// Contains reports whether path lies under the project root.
func (l *Layout) Contains(path string) bool {
	path = Normalize(path)
	return path == l.root || strings.HasPrefix(path, l.root+string(filepath.Separator))
}

// Normalize converts a path to its canonical absolute, cleaned form used as
// node identity throughout the graph.
func Normalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}
