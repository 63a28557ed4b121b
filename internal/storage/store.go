package storage

import (
	"context"

	"depdoc/internal/graph"
	"depdoc/internal/pipeline"
)

// Store persists generated documentation and run reports.
type Store interface {
	pipeline.Sink

	// GetDocument retrieves the stored documentation for a node, or "" when
	// none has been written.
	GetDocument(ctx context.Context, id string) (string, error)

	// SaveReport records one run's final report.
	SaveReport(ctx context.Context, report *pipeline.Report) error

	Close() error
}

// nodeKind tags a stored artifact row.
func nodeKind(node *graph.FileNode) string {
	if node.IsPackage {
		return "package"
	}
	return "module"
}
