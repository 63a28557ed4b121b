package graph

import (
	"fmt"
	"sort"
)

// CycleGroup is a strongly connected component of size > 1. Members are
// sorted ascending by identity; every node belongs to at most one group.
type CycleGroup struct {
	ID      int
	Members []string
}

// Key is the group's deterministic ordering key: its smallest member path.
func (c *CycleGroup) Key() string {
	return c.Members[0]
}

// OrderItem is one element of a processing order: either a single node or a
// whole cycle group, never both.
type OrderItem struct {
	Node  *FileNode
	Group *CycleGroup
}

// Key returns the item's ordering key.
func (i OrderItem) Key() string {
	if i.Group != nil {
		return i.Group.Key()
	}
	return i.Node.Path
}

// Paths returns the node identities covered by the item.
func (i OrderItem) Paths() []string {
	if i.Group != nil {
		return i.Group.Members
	}
	return []string{i.Node.Path}
}

// ProcessingOrder sequences nodes and cycle groups such that for every edge
// A→B crossing element boundaries, B's element precedes A's.
type ProcessingOrder []OrderItem

// Analyze contracts strongly connected components, topologically sorts the
// condensed graph and expands it back into a ProcessingOrder. Ties between
// equally valid positions are broken by ascending identity so the output is
// reproducible across runs. Runs in O(V + E) plus sorting.
func (g *Graph) Analyze() (ProcessingOrder, []*CycleGroup, error) {
	comps := g.stronglyConnected()

	// Deterministic component numbering: order components by smallest member.
	sort.Slice(comps, func(a, b int) bool { return comps[a][0] < comps[b][0] })

	compOf := make(map[string]int, len(g.Nodes))
	for ci, members := range comps {
		for _, id := range members {
			compOf[id] = ci
		}
	}

	var groups []*CycleGroup
	groupOf := make(map[int]*CycleGroup)
	for ci, members := range comps {
		if len(members) > 1 {
			group := &CycleGroup{ID: len(groups), Members: members}
			groups = append(groups, group)
			groupOf[ci] = group
			for _, id := range members {
				g.Nodes[id].CycleID = group.ID
			}
		}
	}

	// Condensed graph: one node per component, intra-component edges dropped.
	pending := make([]int, len(comps)) // unmet dependency count per component
	dependents := make([][]int, len(comps))
	seen := make(map[[2]int]bool)
	for _, e := range g.Edges {
		from, to := compOf[e.From], compOf[e.To]
		if from == to {
			continue
		}
		pair := [2]int{from, to}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		pending[from]++
		dependents[to] = append(dependents[to], from)
	}

	// Kahn's algorithm emitting dependencies first; the ready set is kept
	// sorted by component key for the lexicographic tie-break.
	var ready []int
	for ci := range comps {
		if pending[ci] == 0 {
			ready = append(ready, ci)
		}
	}
	sort.Slice(ready, func(a, b int) bool { return comps[ready[a]][0] < comps[ready[b]][0] })

	order := make(ProcessingOrder, 0, len(comps))
	for len(ready) > 0 {
		ci := ready[0]
		ready = ready[1:]

		if group, ok := groupOf[ci]; ok {
			order = append(order, OrderItem{Group: group})
		} else {
			order = append(order, OrderItem{Node: g.Nodes[comps[ci][0]]})
		}

		for _, dep := range dependents[ci] {
			pending[dep]--
			if pending[dep] == 0 {
				ready = insertSorted(ready, dep, comps)
			}
		}
	}

	if len(order) != len(comps) {
		// Unreachable once components are contracted; kept as a structural guard.
		return nil, nil, fmt.Errorf("topological sort incomplete: placed %d of %d elements", len(order), len(comps))
	}
	return order, groups, nil
}

// FlatOrder returns a best-effort order ignoring dependencies: every node as
// a single element, ascending by identity. Used as the configured fallback
// when structural analysis fails.
func (g *Graph) FlatOrder() ProcessingOrder {
	order := make(ProcessingOrder, 0, len(g.Nodes))
	for _, id := range g.sortedIDs() {
		order = append(order, OrderItem{Node: g.Nodes[id]})
	}
	return order
}

func insertSorted(ready []int, ci int, comps [][]string) []int {
	at := sort.Search(len(ready), func(i int) bool { return comps[ready[i]][0] >= comps[ci][0] })
	ready = append(ready, 0)
	copy(ready[at+1:], ready[at:])
	ready[at] = ci
	return ready
}

// stronglyConnected computes SCCs with an iterative Tarjan over the sorted
// node set. Each returned component is sorted ascending.
func (g *Graph) stronglyConnected() [][]string {
	index := make(map[string]int, len(g.Nodes))
	low := make(map[string]int, len(g.Nodes))
	onStack := make(map[string]bool, len(g.Nodes))
	var stack []string
	var comps [][]string
	next := 0

	type frame struct {
		id    string
		child int
	}

	for _, root := range g.sortedIDs() {
		if _, visited := index[root]; visited {
			continue
		}

		index[root], low[root] = next, next
		next++
		stack = append(stack, root)
		onStack[root] = true
		call := []frame{{id: root}}

		for len(call) > 0 {
			f := &call[len(call)-1]
			node := g.Nodes[f.id]

			if f.child < len(node.Deps) {
				w := node.Deps[f.child]
				f.child++
				if _, visited := index[w]; !visited {
					index[w], low[w] = next, next
					next++
					stack = append(stack, w)
					onStack[w] = true
					call = append(call, frame{id: w})
				} else if onStack[w] && index[w] < low[f.id] {
					low[f.id] = index[w]
				}
				continue
			}

			call = call[:len(call)-1]
			if len(call) > 0 {
				parent := call[len(call)-1].id
				if low[f.id] < low[parent] {
					low[parent] = low[f.id]
				}
			}

			if low[f.id] == index[f.id] {
				var comp []string
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == f.id {
						break
					}
				}
				sort.Strings(comp)
				comps = append(comps, comp)
			}
		}
	}
	return comps
}
