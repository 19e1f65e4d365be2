package dag

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		index: make(map[string]int),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.index[id]; ok {
		return
	}

	g.index[id] = len(g.nodes)
	g.nodes = append(g.nodes, &node{id: id, pos: uint(len(g.nodes))})
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. Repeated edges are
// ignored. A self-referential edge is accepted and is a cycle of length one.
func (g *Graph) AddEdge(fromID, toID string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.lookup(fromID)
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.lookup(toID)
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	if fromNode.hasDependent(toNode) {
		return nil
	}
	toNode.deps = append(toNode.deps, fromNode)
	fromNode.dependents = append(fromNode.dependents, toNode)

	return nil
}

func (g *Graph) lookup(id string) (*node, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return g.nodes[i], true
}

// Dependencies returns the IDs the given node depends on, in edge order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.lookup(id)
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(n.deps), nil
}

func ids(nodes []*node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.id
	}
	return out
}

// CycleError reports the first cycle found. Path starts and ends with the
// same node, e.g. [a b c a].
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected involving node '%s': %s", e.Path[0], strings.Join(e.Path, " -> "))
}

// DetectCycles checks the graph for any cycles. It returns a *CycleError for
// the first back edge found, visiting roots and edges in insertion order.
func (g *Graph) DetectCycles() error {
	if path := g.findCycle(); path != nil {
		return &CycleError{Path: path}
	}
	return nil
}

// findCycle returns the path of the first cycle found, or nil.
func (g *Graph) findCycle() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Classic depth-first search with two sets of nodes:
	// permanent: nodes that have been fully visited and are not part of a cycle.
	// temporary: nodes currently in the recursion stack for the current traversal.
	n := uint(len(g.nodes))
	permanent := bitset.New(n)
	temporary := bitset.New(n)
	var stack []*node

	var visit func(cur *node) []string
	visit = func(cur *node) []string {
		if permanent.Test(cur.pos) {
			return nil
		}
		if temporary.Test(cur.pos) {
			// The node is already on the recursion stack: the back edge closes a cycle.
			start := 0
			for i, s := range stack {
				if s == cur {
					start = i
					break
				}
			}
			path := ids(stack[start:])
			return append(path, cur.id)
		}

		temporary.Set(cur.pos)
		stack = append(stack, cur)

		for _, dependent := range cur.dependents {
			if path := visit(dependent); path != nil {
				return path
			}
		}

		stack = stack[:len(stack)-1]
		temporary.Clear(cur.pos)
		permanent.Set(cur.pos)
		return nil
	}

	for _, root := range g.nodes {
		if path := visit(root); path != nil {
			return path
		}
	}
	return nil
}

// TopologicalOrder orders the nodes so that every node comes after its
// dependencies. Among nodes that are ready at the same time the one inserted
// first wins. Nodes that sit on a cycle, or depend on one, cannot be ordered
// and are returned in rest, in insertion order.
func (g *Graph) TopologicalOrder() (order []string, rest []string) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n := uint(len(g.nodes))
	done := bitset.New(n)
	indegree := make([]int, len(g.nodes))
	for _, nd := range g.nodes {
		indegree[nd.pos] = len(nd.deps)
	}

	for {
		next := -1
		for i, nd := range g.nodes {
			if !done.Test(nd.pos) && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			break
		}
		cur := g.nodes[next]
		done.Set(cur.pos)
		order = append(order, cur.id)
		for _, d := range cur.dependents {
			indegree[d.pos]--
		}
	}

	if done.Count() < n {
		for _, nd := range g.nodes {
			if !done.Test(nd.pos) {
				rest = append(rest, nd.id)
			}
		}
	}
	return order, rest
}
