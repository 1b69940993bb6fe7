package bc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lftgraph/lftgraph"
	"github.com/lftgraph/lftgraph/internal/txn"
)

// buildStar wires a length-2 path through a middle vertex on both sides
// (1-2-3 and 1-2-4), so vertex 2 sits on every shortest path between
// {1,3,4} and should accumulate strictly positive betweenness.
func buildStar(t *testing.T) *lftgraph.Store {
	t.Helper()
	s := lftgraph.NewStore(false, false, nil)
	for _, id := range []uint32{1, 2, 3, 4} {
		require.Equal(t, txn.Committed, s.AddVertex(id, nil))
	}
	for _, e := range [][2]uint32{{1, 2}, {2, 3}, {2, 4}} {
		require.Equal(t, txn.Committed, s.AddEdge(e[0], e[1], 1, false))
		require.Equal(t, txn.Committed, s.AddEdge(e[1], e[0], 1, false))
	}
	return s
}

func TestRunCenterVertexHasHigherCentrality(t *testing.T) {
	s := buildStar(t)
	centrality := Run(s, []uint32{1, 2, 3, 4})

	require.Greater(t, centrality[2], centrality[1])
	require.Greater(t, centrality[2], centrality[3])
	require.Greater(t, centrality[2], centrality[4])
}

func TestRunWithNoSourcesLeavesEveryVertexAtZero(t *testing.T) {
	s := buildStar(t)
	centrality := Run(s, nil)
	for _, v := range []uint32{1, 2, 3, 4} {
		require.Zero(t, centrality[v], "no sources sampled means no accumulation")
	}
}
