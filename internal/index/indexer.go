package index

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"depdoc/internal/crawler"
	"depdoc/internal/extractor"
	"depdoc/internal/graph"
	"depdoc/internal/resolver"
)

// Scan is the full result of indexing a project: the dependency graph plus
// everything that did not make it in.
type Scan struct {
	Graph         *graph.Graph
	Dependencies  []resolver.ResolvedDependency
	ParseFailures []extractor.ParseFailure
	KindCounts    map[resolver.Kind]int
}

// Indexer orchestrates scanning, import extraction, and resolution into a
// dependency graph.
type Indexer struct {
	crawler   *crawler.Crawler
	extractor *extractor.Extractor
}

// NewIndexer creates a new indexer.
func NewIndexer(c *crawler.Crawler, ext *extractor.Extractor) *Indexer {
	return &Indexer{crawler: c, extractor: ext}
}

// BuildGraph scans the project root and constructs the dependency graph.
// Files are parsed in parallel; files that fail to parse contribute no edges
// but still appear as graph nodes, so their documentation is generated from
// source alone.
func (i *Indexer) BuildGraph(ctx context.Context, root string) (*Scan, error) {
	res, err := i.crawler.ScanProject(root)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	type parsed struct {
		file  crawler.SourceFile
		facts []extractor.ImportFact
		fail  *extractor.ParseFailure
	}
	results := make([]parsed, len(res.Files))

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for fi, f := range res.Files {
		eg.Go(func() error {
			facts, fail := i.extractor.Extract(f.Path, []byte(f.Content))
			results[fi] = parsed{file: f, facts: facts, fail: fail}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	r, err := resolver.New(res.Layout)
	if err != nil {
		return nil, err
	}

	scan := &Scan{KindCounts: make(map[resolver.Kind]int)}
	for _, p := range results {
		if p.fail != nil {
			scan.ParseFailures = append(scan.ParseFailures, *p.fail)
			continue
		}
		for _, fact := range p.facts {
			dep := r.Resolve(fact, p.file.Path)
			if p.file.IsInit {
				// Package nodes are keyed by directory, not by __init__.py.
				dep.Source = filepath.Dir(p.file.Path)
			}
			scan.KindCounts[dep.Kind]++
			scan.Dependencies = append(scan.Dependencies, dep)
		}
	}

	sort.Slice(scan.ParseFailures, func(a, b int) bool {
		return scan.ParseFailures[a].File < scan.ParseFailures[b].File
	})

	scan.Graph = graph.Build(res.Nodes, scan.Dependencies)
	return scan, nil
}
