package dag

import "sync"

// Graph is a collection of nodes and their dependencies.
// All operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects the node tables during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in insertion order.
	nodes []*node
	// index maps a node id to its position in nodes.
	index map[string]int
}

// node represents a single vertex in the graph. It is un-exported to
// enforce interaction with the graph via the public API (using string IDs),
// not by direct struct manipulation.
type node struct {
	// id is the unique identifier for the node.
	id string
	// pos is the insertion position of the node.
	pos uint
	// deps holds the nodes this node depends on (predecessors), in edge order.
	deps []*node
	// dependents holds the nodes that depend on this node (successors), in edge order.
	dependents []*node
}

func (n *node) hasDependent(other *node) bool {
	for _, d := range n.dependents {
		if d == other {
			return true
		}
	}
	return false
}
