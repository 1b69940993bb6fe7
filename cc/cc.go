// Package cc implements the Afforest connected-components algorithm
// (spec §4.6): sample a few edges per vertex to seed union-find
// linking cheaply, then finish by linking every remaining edge of
// every vertex not already in the largest sampled component.
package cc

import "github.com/lftgraph/lftgraph"

// sampleSize caps how many vertices Run inspects when estimating the
// largest component by sampling, so the estimate stays cheap on large
// graphs.
const sampleSize = 1024

// DefaultNeighborRounds is Afforest's default sampling depth (spec §4.6).
const DefaultNeighborRounds = 2

// unionFind is a path-halving union-find over vertex ids.
type unionFind struct {
	parent map[uint32]uint32
}

func newUnionFind(g lftgraph.View) *unionFind {
	uf := &unionFind{parent: map[uint32]uint32{}}
	for v := range g.Vertices() {
		uf.parent[v] = v
	}
	return uf
}

func (uf *unionFind) find(v uint32) uint32 {
	for uf.parent[v] != v {
		uf.parent[v] = uf.parent[uf.parent[v]]
		v = uf.parent[v]
	}
	return v
}

func (uf *unionFind) link(u, v uint32) {
	ru, rv := uf.find(u), uf.find(v)
	if ru == rv {
		return
	}
	if ru < rv {
		uf.parent[rv] = ru
	} else {
		uf.parent[ru] = rv
	}
}

// Run returns each vertex's component representative. neighborRounds
// <= 0 defaults to DefaultNeighborRounds.
func Run(g lftgraph.View, neighborRounds int) map[uint32]uint32 {
	if neighborRounds <= 0 {
		neighborRounds = DefaultNeighborRounds
	}
	uf := newUnionFind(g)

	for round := 0; round < neighborRounds; round++ {
		for v := range g.Vertices() {
			i := 0
			for u, _ := range g.OutNeigh(v) {
				if i == round {
					uf.link(v, u)
					break
				}
				i++
			}
		}
	}

	largest := largestSampledComponent(g, uf)

	for v := range g.Vertices() {
		if uf.find(v) == largest {
			continue
		}
		for u, _ := range g.OutNeigh(v) {
			uf.link(v, u)
		}
	}

	result := make(map[uint32]uint32, g.NumNodes())
	for v := range g.Vertices() {
		result[v] = uf.find(v)
	}
	return result
}

// largestSampledComponent samples up to sampleSize vertices and
// returns the most frequent component representative among them —
// Afforest's heuristic for identifying (almost certainly) the giant
// component, so the finishing pass can skip linking its internal edges.
func largestSampledComponent(g lftgraph.View, uf *unionFind) uint32 {
	counts := map[uint32]int{}
	n := 0
	for v := range g.Vertices() {
		counts[uf.find(v)]++
		n++
		if n >= sampleSize {
			break
		}
	}
	var best uint32
	bestCount := -1
	for c, cnt := range counts {
		if cnt > bestCount {
			bestCount, best = cnt, c
		}
	}
	return best
}
