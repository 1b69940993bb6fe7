package bfs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lftgraph/lftgraph"
	"github.com/lftgraph/lftgraph/internal/txn"
)

// buildPath constructs an undirected 1-2-3-4 path. Undirected because
// bottom-up BFS walks InNeigh, which only carries real predecessor data
// on a directed store when INVERT is set (see pr.go's package doc) —
// an undirected store's InNeigh/OutNeigh alias avoids that precondition
// as long as every edge is linked in both directions, the way the
// builder's Symmetrize pass does.
func buildPath(t *testing.T) *lftgraph.Store {
	t.Helper()
	s := lftgraph.NewStore(false, false, nil)
	for _, id := range []uint32{1, 2, 3, 4} {
		require.Equal(t, txn.Committed, s.AddVertex(id, nil))
	}
	for _, e := range [][2]uint32{{1, 2}, {2, 3}, {3, 4}} {
		require.Equal(t, txn.Committed, s.AddEdge(e[0], e[1], 1, false))
		require.Equal(t, txn.Committed, s.AddEdge(e[1], e[0], 1, false))
	}
	return s
}

func TestRunPathFromOne(t *testing.T) {
	s := buildPath(t)

	parent := Run(s, 1)
	require.Equal(t, uint32(1), parent[1].ParentID())
	require.Equal(t, uint32(1), parent[2].ParentID())
	require.Equal(t, uint32(2), parent[3].ParentID())
	require.Equal(t, uint32(3), parent[4].ParentID())

	for v, p := range parent {
		require.True(t, p.Visited(), "vertex %d should be reached on a connected path", v)
	}
}

func TestRunUnreachableVertexStaysUnvisited(t *testing.T) {
	s := buildPath(t)
	require.Equal(t, txn.Committed, s.AddVertex(5, nil))

	parent := Run(s, 1)
	require.False(t, parent[5].Visited())
}

func TestRunUnknownSourceLeavesEverythingUnvisited(t *testing.T) {
	s := buildPath(t)
	parent := Run(s, 99)
	for _, p := range parent {
		require.False(t, p.Visited())
	}
}
