package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedcheck/schedcheck/internal/graph"
)

func TestAddNodeTracksLeaves(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NoParent, 0, 0, "root", "", "")
	assert.ElementsMatch(t, []uint64{0}, g.Leaves())

	g.AddNode(0, 1, 1, "child", "T1S0", "")
	assert.ElementsMatch(t, []uint64{1}, g.Leaves())
}

func TestAddEdgeRemovesSourceFromLeaves(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NoParent, 0, 0, "root", "", "")
	g.AddNode(graph.NoParent, 1, 0, "other-root", "", "")
	g.AddEdge(0, 1, "1")
	assert.ElementsMatch(t, []uint64{1}, g.Leaves())
}

func TestHasEdgeDedupAndQueueAnnotation(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NoParent, 0, 0, "root", "", "")
	g.AddNode(0, 1, 1, "child", "T1S0", "")

	require.True(t, g.HasEdge(0, "T1S0", "Q1"))
	assert.False(t, g.HasEdge(0, "T2S0", ""))

	var b strings.Builder
	require.NoError(t, g.GenerateDot(&b))
	assert.Contains(t, b.String(), `label="T1S0 Q1"`)
}

func TestFreeMemoryDropsNonLeaves(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NoParent, 0, 0, "root", "", "")
	g.AddNode(0, 1, 1, "child", "T1S0", "")
	g.FreeMemory()

	assert.Nil(t, g.Node(0))
	assert.NotNil(t, g.Node(1))
}

func TestGenerateDot(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NoParent, 0, 0, "root", "", "")
	g.AddNode(0, 1, 1, "child", "T1S0", "")

	var b strings.Builder
	require.NoError(t, g.GenerateDot(&b))
	out := b.String()
	assert.True(t, strings.HasPrefix(out, "digraph G {"))
	assert.Contains(t, out, "rankdir=LR")
	assert.Contains(t, out, "0 -> 1")
}
