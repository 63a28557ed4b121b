package crawler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"depdoc/internal/graph"
	"depdoc/internal/resolver"
)

// SourceFile is one Python file discovered under the project root, with its
// contents already read.
type SourceFile struct {
	Path    string // normalized absolute path
	Content string
	IsInit  bool
}

// Result carries everything a single scan produces: the files to parse, the
// graph nodes they map to, and the directory layout for import resolution.
type Result struct {
	Files  []SourceFile
	Nodes  []*graph.FileNode
	Layout *resolver.Layout
}

// Crawler scans a directory tree for Python source files.
type Crawler struct {
	ignored []string
}

// NewCrawler creates a new crawler instance.
func NewCrawler() *Crawler {
	return &Crawler{
		ignored: []string{".git", "__pycache__", "venv", ".venv", "node_modules"},
	}
}

// ScanProject walks the root directory and collects Python files. Every .py
// file becomes a module node keyed by its file path; a directory containing
// __init__.py becomes a package node keyed by the directory path, with the
// __init__.py contents as its source. Unreadable files fail the scan.
func (c *Crawler) ScanProject(root string) (*Result, error) {
	root = resolver.Normalize(root)
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("project root: %w", err)
	}

	layout := resolver.NewLayout(root)
	res := &Result{Layout: layout}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && c.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".py") {
			return nil
		}

		abs := resolver.Normalize(path)

		data, err := os.ReadFile(abs)
		if err != nil {
			return fmt.Errorf("read %s: %w", abs, err)
		}

		layout.AddFile(abs)

		isInit := d.Name() == "__init__.py"
		res.Files = append(res.Files, SourceFile{Path: abs, Content: string(data), IsInit: isInit})

		node := &graph.FileNode{
			Path:      abs,
			Name:      strings.TrimSuffix(d.Name(), ".py"),
			Content:   string(data),
			IsPackage: isInit,
		}
		if isInit {
			// The package's identity is its directory, not the __init__.py file.
			node.Path = filepath.Dir(abs)
			node.Name = filepath.Base(node.Path)
		}
		res.Nodes = append(res.Nodes, node)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (c *Crawler) skipDir(name string) bool {
	for _, ign := range c.ignored {
		if name == ign {
			return true
		}
	}
	// Hidden directories hold tooling state, never importable source.
	return strings.HasPrefix(name, ".")
}
