package lftgraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildUndirectedFromLiteralEdgeList(t *testing.T) {
	triples := []EdgeTriple{
		{Src: 1, Dst: 2, Weight: 1, HasWeight: true},
		{Src: 2, Dst: 3, Weight: 1, HasWeight: true},
		{Src: 3, Dst: 4, Weight: 1, HasWeight: true},
	}
	s, err := Build(9, triples, BuildConfig{Symmetrize: true}, nil, nil)
	require.NoError(t, err)

	require.Equal(t, 8, s.NumNodes())

	var neigh2 []uint32
	for n, _ := range s.OutNeigh(2) {
		neigh2 = append(neigh2, n)
	}
	require.Equal(t, []uint32{1, 3}, neigh2)

	require.Equal(t, 6, s.NumEdgesDirected())
}

func TestBuildSkipsSentinelEndpoint(t *testing.T) {
	triples := []EdgeTriple{
		{Src: 0, Dst: 5, Weight: 1, HasWeight: true},
		{Src: 5, Dst: 0, Weight: 1, HasWeight: true},
	}
	s, err := Build(6, triples, BuildConfig{Symmetrize: true}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, s.OutDegree(5))
}

func TestBuildDirectedWithInvertMaintainsInEdges(t *testing.T) {
	triples := []EdgeTriple{{Src: 1, Dst: 2, Weight: 1, HasWeight: true}}
	s, err := Build(3, triples, BuildConfig{Invert: true}, nil, nil)
	require.NoError(t, err)

	require.True(t, s.Directed())
	require.Equal(t, 1, s.OutDegree(1))
	require.Equal(t, 1, s.InDegree(2))

	var in []uint32
	for n, _ := range s.InNeigh(2) {
		in = append(in, n)
	}
	require.Equal(t, []uint32{1}, in)
}

func TestSquishSortsAndCompactsContainer(t *testing.T) {
	s := NewStore(true, false, nil)
	for _, id := range []uint32{1, 2, 3} {
		s.AddVertex(id, nil)
	}
	s.AddEdge(1, 3, 1, false)
	s.AddEdge(1, 2, 1, false)

	Squish(s)

	var got []uint32
	for n, _ := range s.OutNeigh(1) {
		got = append(got, n)
	}
	require.Equal(t, []uint32{2, 3}, got)
}

func TestBuildDirectedRoundTripsEdgeListAfterDedup(t *testing.T) {
	// Duplicates collapse via Skip discipline (the second AddEdge of the
	// same (src,dst) pair finds the key already in the MDList and returns
	// Skip rather than growing the neighbourhood); self-loops never reach
	// this list at all, since insertEdge rejects Src==Dst before any
	// MDList entry is created (see TestSelfEdgeIsRejected in store_test.go).
	triples := []EdgeTriple{
		{Src: 1, Dst: 2, Weight: 1, HasWeight: true},
		{Src: 1, Dst: 3, Weight: 1, HasWeight: true},
		{Src: 1, Dst: 2, Weight: 1, HasWeight: true}, // duplicate, collapses
		{Src: 2, Dst: 3, Weight: 1, HasWeight: true},
	}
	s, err := Build(4, triples, BuildConfig{}, nil, nil)
	require.NoError(t, err)

	want := map[[2]uint32]bool{{1, 2}: true, {1, 3}: true, {2, 3}: true}

	got := map[[2]uint32]bool{}
	for v := range s.Vertices() {
		for n, _ := range s.OutNeigh(v) {
			got[[2]uint32{v, n}] = true
		}
	}
	require.Equal(t, want, got, "out_neigh multiset equals the edge list with duplicates collapsed")
}

func TestBuildMissingWeightWithoutRandSourceErrors(t *testing.T) {
	triples := []EdgeTriple{{Src: 1, Dst: 2}}
	_, err := Build(3, triples, BuildConfig{NeedsWeights: true}, nil, nil)
	require.ErrorIs(t, err, ErrMissingWeight)
}
