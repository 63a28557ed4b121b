package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"depdoc/internal/ctxlog"
	"depdoc/internal/extractor"
	"depdoc/internal/graph"
	"depdoc/internal/knowledge"
)

// GroupPolicy decides what happens to a cycle group when a member's
// generation is permanently exhausted.
type GroupPolicy string

const (
	// GroupFailWhole marks the entire group failed, including members that
	// had already completed. The default.
	GroupFailWhole GroupPolicy = "whole"
	// GroupFailMember keeps completed members and fails only the exhausted ones.
	GroupFailMember GroupPolicy = "member"
)

// Config controls retry, failure isolation and scheduling behavior.
type Config struct {
	MaxAttempts   int
	Workers       int           // <= 1 means sequential
	Timeout       time.Duration // per generator call; 0 disables
	AbortOnError  bool          // stop scheduling new work after a terminal failure
	SkipOnFailure bool          // short-circuit dependents of failed nodes
	GroupPolicy   GroupPolicy
	FallbackFlat  bool // on structural failure, fall back to a flat order
}

// Sink persists generated artifacts. Sink failures are I/O errors: recorded,
// never retried, and do not change the node's generation outcome.
type Sink interface {
	Persist(ctx context.Context, node *graph.FileNode, doc string) error
}

// Pipeline walks the processing order and drives the per-node state machine:
// pending → ready → in_progress → {completed, error, skipped}.
type Pipeline struct {
	graph    *graph.Graph
	gen      knowledge.Generator
	contexts *knowledge.ContextManager
	sink     Sink
	cfg      Config

	mu      sync.Mutex
	errors  []ErrorEntry
	aborted bool

	parseFailures []extractor.ParseFailure
}

// New creates a pipeline over a constructed graph. The context manager and
// the graph's node states are owned by the pipeline from here on.
func New(g *graph.Graph, gen knowledge.Generator, contexts *knowledge.ContextManager, sink Sink, cfg Config) *Pipeline {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.GroupPolicy == "" {
		cfg.GroupPolicy = GroupFailWhole
	}
	return &Pipeline{graph: g, gen: gen, contexts: contexts, sink: sink, cfg: cfg}
}

// RecordParseFailures attaches scan-time parse failures so they surface in
// the final report.
func (p *Pipeline) RecordParseFailures(failures []extractor.ParseFailure) {
	p.parseFailures = append(p.parseFailures, failures...)
}

// Run processes every node and returns the report. Node-local failures never
// propagate as an error; only a structural failure without a configured
// fallback does.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	logger := ctxlog.FromContext(ctx)

	order, groups, err := p.graph.Analyze()
	if err != nil {
		p.recordError("", ErrOrchestrationFailure, 0, err)
		if !p.cfg.FallbackFlat {
			return p.buildReport(nil), fmt.Errorf("dependency analysis failed: %w", err)
		}
		logger.Warn("Dependency analysis failed, falling back to flat order.", "error", err)
		order = p.graph.FlatOrder()
	}

	logger.Info("Processing order computed.",
		"elements", len(order), "nodes", p.graph.NodeCount(), "cycles", len(groups))

	if p.cfg.Workers > 1 {
		p.runConcurrent(ctx, order)
	} else {
		p.runSequential(ctx, order)
	}

	return p.buildReport(groups), nil
}

func (p *Pipeline) runSequential(ctx context.Context, order graph.ProcessingOrder) {
	for _, item := range order {
		if p.isAborted() {
			p.skipElement(ctx, item, "run aborted by earlier failure")
			continue
		}
		if p.cfg.SkipOnFailure && p.upstreamFailed(item) {
			p.skipElement(ctx, item, "upstream failure")
			continue
		}
		p.processElement(ctx, item)
	}
}

// processElement runs one order element to a terminal state.
func (p *Pipeline) processElement(ctx context.Context, item graph.OrderItem) {
	if item.Group != nil {
		p.processGroup(ctx, item.Group)
		return
	}
	p.processNode(ctx, item.Node)
}

func (p *Pipeline) processNode(ctx context.Context, node *graph.FileNode) {
	logger := ctxlog.FromContext(ctx)
	p.setState(node, graph.StateReady)
	p.setState(node, graph.StateInProgress)

	depContext := p.contexts.ContextFor(node, p.graph)
	meta := knowledge.Metadata{
		Name:      node.Name,
		Path:      node.Path,
		IsPackage: node.IsPackage,
		Source:    node.Content,
	}

	doc, attempts, err := p.generateWithRetry(ctx, node.Path, meta, depContext)
	p.setAttempts(node, attempts)
	if err != nil {
		p.recordError(node.Path, ErrGenerationExhausted, attempts, err)
		p.setState(node, graph.StateError)
		logger.Error("Node failed permanently.", "node", node.Path, "attempts", attempts)
		if p.cfg.AbortOnError {
			p.abort()
		}
		return
	}

	p.contexts.Complete(node.Path, doc)
	p.persist(ctx, node, doc)
	p.setState(node, graph.StateCompleted)
	logger.Debug("Node completed.", "node", node.Path, "attempts", attempts)
}

// processGroup documents a cycle group as one unit: a group-level overview
// first, then per-member artifacts carrying the overview plus completed
// external dependency context.
func (p *Pipeline) processGroup(ctx context.Context, group *graph.CycleGroup) {
	logger := ctxlog.FromContext(ctx)

	members := make([]*graph.FileNode, 0, len(group.Members))
	for _, id := range group.Members {
		node := p.graph.Nodes[id]
		p.setState(node, graph.StateReady)
		p.setState(node, graph.StateInProgress)
		members = append(members, node)
	}

	groupID := "cycle:" + p.contexts.DisplayName(group.Key())
	overview, attempts, err := p.generateWithRetry(ctx, groupID, p.groupMetadata(groupID, group), p.mergedExternalContext(members))
	if err != nil {
		p.recordError(groupID, ErrGenerationExhausted, attempts, err)
		for _, node := range members {
			p.setState(node, graph.StateError)
		}
		logger.Error("Cycle group overview failed permanently.", "group", groupID, "attempts", attempts)
		if p.cfg.AbortOnError {
			p.abort()
		}
		return
	}

	var exhausted []*graph.FileNode
	for _, node := range members {
		depContext := p.contexts.ContextFor(node, p.graph)
		depContext[groupID] = p.contexts.Summarize(overview)

		meta := knowledge.Metadata{
			Name:      node.Name,
			Path:      node.Path,
			IsPackage: node.IsPackage,
			Source:    node.Content,
		}

		doc, attempts, err := p.generateWithRetry(ctx, node.Path, meta, depContext)
		p.setAttempts(node, attempts)
		if err != nil {
			p.recordError(node.Path, ErrGenerationExhausted, attempts, err)
			p.setState(node, graph.StateError)
			exhausted = append(exhausted, node)
			continue
		}
		p.contexts.Complete(node.Path, doc)
		p.persist(ctx, node, doc)
		p.setState(node, graph.StateCompleted)
	}

	if len(exhausted) > 0 {
		if p.cfg.GroupPolicy == GroupFailWhole {
			for _, node := range members {
				if node.State == graph.StateCompleted {
					p.contexts.Forget(node.Path)
					p.setState(node, graph.StateError)
					p.recordError(node.Path, ErrGenerationExhausted, node.Attempts,
						fmt.Errorf("demoted: cycle group %s failed under whole-group policy", groupID))
				}
			}
		}
		logger.Error("Cycle group ended with failures.", "group", groupID, "failed", len(exhausted), "policy", p.cfg.GroupPolicy)
		if p.cfg.AbortOnError {
			p.abort()
		}
	}
}

// generateWithRetry invokes the generator up to the configured bound. Every
// call gets its own timeout; a timed-out call counts as a failed attempt.
func (p *Pipeline) generateWithRetry(ctx context.Context, id string, meta knowledge.Metadata, depContext map[string]string) (string, int, error) {
	attempts := 0
	for attempts < p.cfg.MaxAttempts {
		attempts++

		callCtx := ctx
		var cancel context.CancelFunc
		if p.cfg.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		}
		doc, err := p.gen.Generate(callCtx, id, meta, depContext)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			return doc, attempts, nil
		}
		p.recordError(id, ErrGenerationFailure, attempts, err)

		if ctx.Err() != nil {
			break // the run itself is done, retrying is pointless
		}
	}
	return "", attempts, fmt.Errorf("generation exhausted after %d attempts", attempts)
}

func (p *Pipeline) persist(ctx context.Context, node *graph.FileNode, doc string) {
	if p.sink == nil {
		return
	}
	if err := p.sink.Persist(ctx, node, doc); err != nil {
		p.recordError(node.Path, ErrSinkFailure, 0, err)
	}
}

// groupMetadata describes a cycle group for the overview generation,
// including the import edges internal to the group.
func (p *Pipeline) groupMetadata(groupID string, group *graph.CycleGroup) knowledge.Metadata {
	inGroup := make(map[string]bool, len(group.Members))
	for _, id := range group.Members {
		inGroup[id] = true
	}

	var edges []string
	for _, e := range p.graph.Edges {
		if inGroup[e.From] && inGroup[e.To] {
			edges = append(edges, p.contexts.DisplayName(e.From)+" -> "+p.contexts.DisplayName(e.To))
		}
	}
	sort.Strings(edges)

	relMembers := make([]string, 0, len(group.Members))
	for _, id := range group.Members {
		relMembers = append(relMembers, p.contexts.DisplayName(id))
	}

	return knowledge.Metadata{
		Name:         groupID,
		CycleMembers: relMembers,
		CycleEdges:   edges,
	}
}

// mergedExternalContext unions the completed-dependency context of all group
// members, excluding anything inside the group itself.
func (p *Pipeline) mergedExternalContext(members []*graph.FileNode) map[string]string {
	merged := make(map[string]string)
	for _, node := range members {
		for name, summary := range p.contexts.ContextFor(node, p.graph) {
			merged[name] = summary
		}
	}
	return merged
}

// upstreamFailed reports whether any dependency outside the element ended in
// error or skipped.
func (p *Pipeline) upstreamFailed(item graph.OrderItem) bool {
	inElement := make(map[string]bool)
	for _, id := range item.Paths() {
		inElement[id] = true
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range item.Paths() {
		for _, dep := range p.graph.Nodes[id].Deps {
			if inElement[dep] {
				continue
			}
			switch p.graph.Nodes[dep].State {
			case graph.StateError, graph.StateSkipped:
				return true
			}
		}
	}
	return false
}

func (p *Pipeline) skipElement(ctx context.Context, item graph.OrderItem, reason string) {
	ctxlog.FromContext(ctx).Debug("Skipping element.", "element", item.Key(), "reason", reason)
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range item.Paths() {
		node := p.graph.Nodes[id]
		if !node.State.Terminal() {
			node.State = graph.StateSkipped
		}
	}
}

func (p *Pipeline) setState(node *graph.FileNode, s graph.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	node.State = s
}

func (p *Pipeline) setAttempts(node *graph.FileNode, attempts int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	node.Attempts = attempts
}

func (p *Pipeline) recordError(node string, kind ErrorKind, attempt int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors = append(p.errors, ErrorEntry{
		Node:    node,
		Kind:    kind,
		Attempt: attempt,
		Time:    time.Now(),
		Message: err.Error(),
	})
}

func (p *Pipeline) abort() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.aborted = true
}

func (p *Pipeline) isAborted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.aborted
}

// Progress reports the fraction of nodes in a completed state. Safe to call
// while a run is in flight.
func (p *Pipeline) Progress() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.graph.Nodes) == 0 {
		return 1
	}
	completed := 0
	for _, node := range p.graph.Nodes {
		if node.State == graph.StateCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(p.graph.Nodes))
}

func (p *Pipeline) buildReport(groups []*graph.CycleGroup) *Report {
	p.mu.Lock()
	defer p.mu.Unlock()

	report := &Report{
		TotalNodes:    p.graph.NodeCount(),
		TotalEdges:    p.graph.EdgeCount(),
		States:        make(map[string]graph.State, len(p.graph.Nodes)),
		Attempts:      make(map[string]int, len(p.graph.Nodes)),
		Errors:        p.errors,
		ParseFailures: p.parseFailures,
	}
	for id, node := range p.graph.Nodes {
		report.States[id] = node.State
		report.Attempts[id] = node.Attempts
	}
	for _, group := range groups {
		report.CycleGroups = append(report.CycleGroups, group.Members)
	}
	return report
}
