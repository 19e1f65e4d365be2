package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, nodes []string, edges [][2]string) *Graph {
	t.Helper()
	g := New()
	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	return g
}

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.NotNil(t, g.index)
	assert.Empty(t, g.nodes)
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("b")
	assert.Len(t, g.nodes, 1)
	nodeB, ok := g.lookup("b")
	require.True(t, ok)
	assert.Equal(t, "b", nodeB.id)

	g.AddNode("b") // Test idempotency
	assert.Len(t, g.nodes, 1)

	g.AddNode("a")
	assert.Equal(t, []string{"b", "a"}, ids(g.nodes), "insertion order is kept")
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"a", "b"}})

		deps, err := g.Dependencies("b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, deps, "repeated edges are ignored")

		nodeA, _ := g.lookup("a")
		assert.Equal(t, []string{"b"}, ids(nodeA.dependents))
	})

	t.Run("error cases", func(t *testing.T) {
		g := build(t, []string{"a", "b"}, nil)

		err := g.AddEdge("dne", "a")
		assert.ErrorContains(t, err, "source node not found")

		err = g.AddEdge("a", "dne")
		assert.ErrorContains(t, err, "destination node not found")

		_, err = g.Dependencies("dne")
		assert.ErrorContains(t, err, "node not found")
	})
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		assert.NoError(t, New().DetectCycles())
	})

	t.Run("graph with nodes but no edges has no cycles", func(t *testing.T) {
		g := build(t, []string{"a", "b", "c"}, nil)
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("valid dag has no cycles", func(t *testing.T) {
		g := build(t, []string{"a", "b", "c", "d"}, [][2]string{
			{"a", "b"}, {"b", "c"}, {"a", "c"}, {"c", "d"},
		})
		assert.NoError(t, g.DetectCycles())
		assert.Nil(t, g.findCycle())
	})

	t.Run("simple direct cycle is detected", func(t *testing.T) {
		g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})
		err := g.DetectCycles()
		var ce *CycleError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, []string{"a", "b", "a"}, ce.Path)
		assert.ErrorContains(t, err, "cycle detected")
	})

	t.Run("self edge is a cycle", func(t *testing.T) {
		g := build(t, []string{"a"}, [][2]string{{"a", "a"}})
		assert.Equal(t, []string{"a", "a"}, g.findCycle())
	})

	t.Run("longer cycle is detected", func(t *testing.T) {
		g := build(t, []string{"a", "b", "c", "d"}, [][2]string{
			{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "a"},
		})
		assert.Equal(t, []string{"a", "b", "c", "d", "a"}, g.findCycle())
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		g := build(t, []string{"a", "b", "x", "y", "z"}, [][2]string{
			{"a", "b"}, {"x", "y"}, {"y", "z"}, {"z", "y"},
		})
		assert.Equal(t, []string{"y", "z", "y"}, g.findCycle(), "the path excludes the lead-in")
	})
}

func TestTopologicalOrder(t *testing.T) {
	t.Run("ties are broken by insertion order", func(t *testing.T) {
		g := build(t, []string{"c", "b", "a", "d"}, [][2]string{{"a", "d"}, {"b", "d"}})
		order, rest := g.TopologicalOrder()
		assert.Equal(t, []string{"c", "b", "a", "d"}, order)
		assert.Empty(t, rest)
	})

	t.Run("dependencies come first", func(t *testing.T) {
		g := build(t, []string{"merge", "left", "right"}, [][2]string{{"left", "merge"}, {"right", "merge"}})
		order, _ := g.TopologicalOrder()
		assert.Equal(t, []string{"left", "right", "merge"}, order)
	})

	t.Run("a ready node added early overtakes later ones", func(t *testing.T) {
		g := build(t, []string{"a", "b", "c"}, [][2]string{{"b", "a"}})
		order, _ := g.TopologicalOrder()
		assert.Equal(t, []string{"b", "a", "c"}, order)
	})

	t.Run("cycle members and their dependents are left over", func(t *testing.T) {
		g := build(t, []string{"a", "x", "y", "z"}, [][2]string{{"x", "y"}, {"y", "x"}, {"y", "z"}})
		order, rest := g.TopologicalOrder()
		assert.Equal(t, []string{"a"}, order)
		assert.Equal(t, []string{"x", "y", "z"}, rest)
	})
}
