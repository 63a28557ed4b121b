package knowledge

import (
	"path/filepath"
	"sync"

	"depdoc/internal/graph"
)

// ContextManager owns the per-file documentation cache and produces the
// bounded dependency context handed to the generator. Entries appear only
// when the pipeline marks a node completed and are never implicitly evicted
// during a run.
type ContextManager struct {
	root   string
	policy SummaryPolicy

	mu    sync.RWMutex
	cache map[string]string
}

// NewContextManager creates an empty cache for a project rooted at root.
func NewContextManager(root string, policy SummaryPolicy) *ContextManager {
	return &ContextManager{
		root:   root,
		policy: policy,
		cache:  make(map[string]string),
	}
}

// Complete caches the generated document for a node.
func (m *ContextManager) Complete(path, doc string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[path] = doc
}

// Forget removes a node's cached document. Used only when a group failure
// policy demotes completed cycle members.
func (m *ContextManager) Forget(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, path)
}

// Get returns the cached document for a node, if any.
func (m *ContextManager) Get(path string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.cache[path]
	return doc, ok
}

// Len returns the number of cached documents.
func (m *ContextManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cache)
}

// ContextFor collects summarized documents of the node's direct internal
// dependencies, keyed by project-relative path. Dependencies inside the
// node's own cycle group are excluded; they are covered by the group
// overview instead. Repeated calls against an unchanged cache return
// identical content.
func (m *ContextManager) ContextFor(node *graph.FileNode, g *graph.Graph) map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string)
	for _, dep := range node.Deps {
		if node.CycleID >= 0 {
			if target, ok := g.Nodes[dep]; ok && target.CycleID == node.CycleID {
				continue
			}
		}
		doc, ok := m.cache[dep]
		if !ok {
			continue
		}
		out[m.DisplayName(dep)] = m.policy.Summarize(doc)
	}
	return out
}

// Summarize applies the manager's summary policy to arbitrary text.
func (m *ContextManager) Summarize(text string) string {
	return m.policy.Summarize(text)
}

// DisplayName converts a node identity to its project-relative form used in
// context maps and prompts.
func (m *ContextManager) DisplayName(path string) string {
	rel, err := filepath.Rel(m.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
