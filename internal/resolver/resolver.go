package resolver

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"depdoc/internal/extractor"
)

// Kind classifies the outcome of resolving one import fact.
type Kind string

const (
	KindFile       Kind = "file"
	KindPackage    Kind = "package"
	KindNamespace  Kind = "namespace-package"
	KindBuiltin    Kind = "builtin"
	KindExternal   Kind = "external"
	KindUnresolved Kind = "unresolved"
)

// ResolvedDependency maps an import fact back to an internal file identity,
// or classifies it as builtin/external/unresolved.
type ResolvedDependency struct {
	Source string `json:"source"`
	Target string `json:"target,omitempty"` // absent unless resolved internally
	Kind   Kind   `json:"kind"`
}

// Internal reports whether the dependency points at a file or package inside
// the project root.
func (d ResolvedDependency) Internal() bool {
	switch d.Kind {
	case KindFile, KindPackage, KindNamespace:
		return d.Target != ""
	}
	return false
}

const cacheSize = 4096

// Resolver resolves import facts against a fixed layout snapshot. Resolution
// is a pure function of (fact, origin, layout); the LRU cache is a
// performance detail and never changes results.
type Resolver struct {
	layout *Layout
	cache  *lru.Cache[string, ResolvedDependency]
}

// New creates a resolver over the given layout snapshot.
func New(layout *Layout) (*Resolver, error) {
	cache, err := lru.New[string, ResolvedDependency](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolution cache: %w", err)
	}
	return &Resolver{layout: layout, cache: cache}, nil
}

// Resolve maps one import fact from the given origin file to a resolved
// dependency. Identical inputs always produce identical output.
func (r *Resolver) Resolve(fact extractor.ImportFact, origin string) ResolvedDependency {
	origin = Normalize(origin)
	key := origin + "\x00" + fact.Module + "\x00" + strconv.Itoa(fact.Level)

	if dep, ok := r.cache.Get(key); ok {
		dep.Source = origin
		return dep
	}

	dep := r.resolve(fact, origin)
	r.cache.Add(key, dep)
	return dep
}

func (r *Resolver) resolve(fact extractor.ImportFact, origin string) ResolvedDependency {
	if fact.Level > 0 {
		return r.resolveRelative(fact, origin)
	}
	return r.resolveAbsolute(fact, origin)
}

// resolveRelative walks the ancestry of the origin's containing package
// upward by the stated depth, then descends through the module path.
// Walking above the project root, or through a directory with no source
// structure, fails the resolution.
func (r *Resolver) resolveRelative(fact extractor.ImportFact, origin string) ResolvedDependency {
	dir := filepath.Dir(origin)
	if !r.layout.Contains(dir) {
		return ResolvedDependency{Source: origin, Kind: KindUnresolved}
	}

	for i := 1; i < fact.Level; i++ {
		dir = filepath.Dir(dir)
		if !r.layout.Contains(dir) || !r.layout.IsSourceDir(dir) {
			return ResolvedDependency{Source: origin, Kind: KindUnresolved}
		}
	}

	// `from . import name` addresses the containing package itself.
	if fact.Module == "" {
		return r.matchDir(origin, dir)
	}

	if target, ok := r.walkSegments(dir, strings.Split(fact.Module, ".")); ok {
		target.Source = origin
		return target
	}
	return ResolvedDependency{Source: origin, Kind: KindUnresolved}
}

// resolveAbsolute matches the dotted module path against the project root,
// falling back to builtin/external classification when nothing internal
// matches.
func (r *Resolver) resolveAbsolute(fact extractor.ImportFact, origin string) ResolvedDependency {
	if fact.Module == "" {
		return ResolvedDependency{Source: origin, Kind: KindUnresolved}
	}

	if target, ok := r.walkSegments(r.layout.Root(), strings.Split(fact.Module, ".")); ok {
		target.Source = origin
		return target
	}

	if IsStandardLibrary(fact.Module) {
		return ResolvedDependency{Source: origin, Kind: KindBuiltin}
	}
	return ResolvedDependency{Source: origin, Kind: KindExternal}
}

// walkSegments descends from base treating each dot-separated segment as a
// path component. The final segment is checked, in order, as a direct file
// match, a package-marker directory, then a namespace-package directory.
func (r *Resolver) walkSegments(base string, segments []string) (ResolvedDependency, bool) {
	cur := base
	for i, seg := range segments {
		if seg == "" {
			return ResolvedDependency{}, false
		}
		candidate := filepath.Join(cur, seg)

		if i == len(segments)-1 {
			if file := candidate + ".py"; r.layout.HasFile(file) {
				return ResolvedDependency{Target: file, Kind: KindFile}, true
			}
			if r.layout.IsPackage(candidate) {
				return ResolvedDependency{Target: candidate, Kind: KindPackage}, true
			}
			if r.layout.IsSourceDir(candidate) {
				return ResolvedDependency{Target: candidate, Kind: KindNamespace}, true
			}
			return ResolvedDependency{}, false
		}

		if !r.layout.IsPackage(candidate) && !r.layout.IsSourceDir(candidate) {
			return ResolvedDependency{}, false
		}
		cur = candidate
	}
	return ResolvedDependency{}, false
}

func (r *Resolver) matchDir(origin, dir string) ResolvedDependency {
	if r.layout.IsPackage(dir) {
		return ResolvedDependency{Source: origin, Target: dir, Kind: KindPackage}
	}
	if r.layout.IsSourceDir(dir) {
		return ResolvedDependency{Source: origin, Target: dir, Kind: KindNamespace}
	}
	return ResolvedDependency{Source: origin, Kind: KindUnresolved}
}
