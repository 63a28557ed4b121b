package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"depdoc/internal/graph"
	"depdoc/internal/pipeline"
)

// FileSink writes generated documentation as markdown files next to the
// source they describe: DOCUMENTATION.md inside a package directory,
// <name>_DOCUMENTATION.md beside a module file.
type FileSink struct{}

// NewFileSink creates a markdown file sink.
func NewFileSink() *FileSink {
	return &FileSink{}
}

func (s *FileSink) Persist(ctx context.Context, node *graph.FileNode, doc string) error {
	path := s.targetPath(node)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (s *FileSink) targetPath(node *graph.FileNode) string {
	if node.IsPackage {
		return filepath.Join(node.Path, "DOCUMENTATION.md")
	}
	dir := filepath.Dir(node.Path)
	return filepath.Join(dir, node.Name+"_DOCUMENTATION.md")
}

// MultiSink fans writes out to several sinks; the first error wins.
type MultiSink []pipeline.Sink

func (m MultiSink) Persist(ctx context.Context, node *graph.FileNode, doc string) error {
	for _, s := range m {
		if err := s.Persist(ctx, node, doc); err != nil {
			return err
		}
	}
	return nil
}
