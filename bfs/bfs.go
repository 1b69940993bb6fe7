// Package bfs implements direction-optimising breadth-first search
// (spec §4.6), switching between a top-down frontier expansion and a
// bottom-up "unvisited nodes look for a parent" pass based on the
// Beamer-Asanović-Patterson α/β heuristic.
package bfs

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/lftgraph/lftgraph"
)

// alpha and beta are the direction-switch thresholds spec §4.6 names.
const (
	alpha = 15
	beta  = 18
)

// Parent is the BFS parent-array encoding spec §4.6 describes: a
// negative value names an unvisited vertex's out-degree (so the
// bottom-up pass can read degree without a second lookup); a
// non-negative value names the visited vertex's parent id.
type Parent int64

func negative(degree int) Parent    { return Parent(-int64(degree) - 1) }
func positive(parent uint32) Parent { return Parent(parent) }

// Visited reports whether this slot names a parent rather than a degree.
func (p Parent) Visited() bool { return p >= 0 }

// Degree returns the unvisited out-degree this slot encodes. Only
// meaningful when !Visited().
func (p Parent) Degree() int { return int(-int64(p)) - 1 }

// ParentID returns the BFS-tree parent this slot names. Only
// meaningful when Visited().
func (p Parent) ParentID() uint32 { return uint32(p) }

// Run computes the BFS parent array from source. Vertex ids are
// assumed dense-ish over [1, maxID] (true of every graph lftgraph's
// builder produces) so the bottom-up frontier bitmap can be sized
// directly off the largest observed id.
func Run(g lftgraph.View, source uint32) map[uint32]Parent {
	parent := make(map[uint32]Parent, g.NumNodes())
	var maxID uint32
	for v := range g.Vertices() {
		parent[v] = negative(g.OutDegree(v))
		if v > maxID {
			maxID = v
		}
	}
	if _, ok := parent[source]; !ok {
		return parent
	}
	parent[source] = positive(source)

	frontier := []uint32{source}
	edgesToCheck := g.NumEdgesDirected()
	scoutCount := g.OutDegree(source)

	for len(frontier) > 0 {
		if scoutCount > edgesToCheck/alpha {
			next := bottomUpStep(g, parent, frontier, maxID)
			edgesToCheck -= scoutCount
			frontier = next
			scoutCount = len(next) // next round re-evaluates the heuristic fresh
			continue
		}

		next, scout := topDownStep(g, parent, frontier)
		edgesToCheck -= scout
		frontier = next
		scoutCount = scout
		if len(frontier) > 0 && len(frontier) < g.NumNodes()/beta {
			scoutCount = 0 // force a top-down round while the frontier is thin
		}
	}

	return parent
}

// topDownStep expands frontier by visiting every unvisited out-neighbor
// of every frontier vertex.
func topDownStep(g lftgraph.View, parent map[uint32]Parent, frontier []uint32) ([]uint32, int) {
	var next []uint32
	scout := 0
	for _, u := range frontier {
		for v, _ := range g.OutNeigh(u) {
			p, ok := parent[v]
			if !ok || p.Visited() {
				continue
			}
			parent[v] = positive(u)
			next = append(next, v)
			scout += p.Degree() + 1
		}
	}
	return next, scout
}

// bottomUpStep has every still-unvisited vertex scan its in-neighbors
// (out-neighbors, via InNeigh's undirected alias) for a frontier
// member, claiming the first one found as its parent.
func bottomUpStep(g lftgraph.View, parent map[uint32]Parent, frontier []uint32, maxID uint32) []uint32 {
	frontierBits := bitset.New(uint(maxID) + 1)
	for _, v := range frontier {
		frontierBits.Set(uint(v))
	}

	var next []uint32
	for v, p := range parent {
		if p.Visited() {
			continue
		}
		for u, _ := range g.InNeigh(v) {
			if frontierBits.Test(uint(u)) {
				parent[v] = positive(u)
				next = append(next, v)
				break
			}
		}
	}
	return next
}
