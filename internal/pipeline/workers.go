package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"depdoc/internal/ctxlog"
	"depdoc/internal/graph"
)

// element is one schedulable unit of the processing order with its unmet
// upstream count. Correctness is enforced by the counters, not the pool: an
// element is only enqueued once every upstream element reached a terminal
// state.
type element struct {
	item       graph.OrderItem
	pending    atomic.Int32
	dependents []int
}

// runConcurrent processes all currently ready elements with a bounded worker
// pool. Only generator calls and sink writes block; state transitions are
// short and guarded by the pipeline mutex.
func (p *Pipeline) runConcurrent(ctx context.Context, order graph.ProcessingOrder) {
	logger := ctxlog.FromContext(ctx)

	elements := p.buildElements(order)

	readyChan := make(chan int, len(elements))
	for i, el := range elements {
		if el.pending.Load() == 0 {
			readyChan <- i
		}
	}

	var wg sync.WaitGroup
	wg.Add(len(elements))

	workers := p.cfg.Workers
	logger.Debug("Starting worker pool.", "workers", workers, "elements", len(elements))
	for w := 0; w < workers; w++ {
		go func() {
			for idx := range readyChan {
				el := elements[idx]

				switch {
				case p.isAborted() || ctx.Err() != nil:
					p.skipElement(ctx, el.item, "run aborted by earlier failure")
				case p.cfg.SkipOnFailure && p.upstreamFailed(el.item):
					p.skipElement(ctx, el.item, "upstream failure")
				default:
					p.processElement(ctx, el.item)
				}

				// Terminal either way: release dependents.
				for _, di := range el.dependents {
					if elements[di].pending.Add(-1) == 0 {
						readyChan <- di
					}
				}
				wg.Done()
			}
		}()
	}

	wg.Wait()
	close(readyChan)
}

// buildElements wires the inter-element dependency counters from the node
// edges. Edges between members of the same element (an intra-cycle edge)
// collapse and contribute nothing; edges crossing element boundaries collapse
// to at most one counter increment per element pair.
func (p *Pipeline) buildElements(order graph.ProcessingOrder) []*element {
	elements := make([]*element, len(order))
	owner := make(map[string]int, len(order))
	for i, item := range order {
		elements[i] = &element{item: item}
		for _, id := range item.Paths() {
			owner[id] = i
		}
	}

	type pair struct{ from, to int }
	seen := make(map[pair]bool)
	for i, item := range order {
		for _, id := range item.Paths() {
			for _, dep := range p.graph.Nodes[id].Deps {
				di, ok := owner[dep]
				if !ok || di == i {
					continue
				}
				key := pair{from: i, to: di}
				if seen[key] {
					continue
				}
				seen[key] = true
				elements[i].pending.Add(1)
				elements[di].dependents = append(elements[di].dependents, i)
			}
		}
	}
	return elements
}
