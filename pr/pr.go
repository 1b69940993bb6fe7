// Package pr implements pull-direction iterative PageRank (spec §4.6).
//
// Pull direction reads each vertex's in-neighbors, so on a directed
// graph this kernel only sees real predecessors when the store was
// built with INVERT set (spec §9's open question) — otherwise In Neigh
// silently aliases OutNeigh and the result is meaningless. Undirected
// graphs need no such precondition, since in_neigh already aliases
// out_neigh by definition there.
package pr

import "github.com/lftgraph/lftgraph"

// Damping is the standard PageRank damping factor.
const Damping = 0.85

// Run iterates pull-direction PageRank until the summed absolute score
// delta drops below epsilon or maxIters is reached, returning each
// vertex's score.
func Run(g lftgraph.View, epsilon float64, maxIters int) map[uint32]float64 {
	n := g.NumNodes()
	if n == 0 {
		return map[uint32]float64{}
	}
	baseScore := (1 - Damping) / float64(n)

	scores := make(map[uint32]float64, n)
	for v := range g.Vertices() {
		scores[v] = 1.0 / float64(n)
	}

	contrib := make(map[uint32]float64, n)

	for iter := 0; iter < maxIters; iter++ {
		for v := range g.Vertices() {
			if d := g.OutDegree(v); d > 0 {
				contrib[v] = scores[v] / float64(d)
			} else {
				contrib[v] = 0
			}
		}

		var residual float64
		for v := range g.Vertices() {
			var incoming float64
			for u, _ := range g.InNeigh(v) {
				incoming += contrib[u]
			}
			next := baseScore + Damping*incoming
			residual += abs(next - scores[v])
			scores[v] = next
		}
		if residual < epsilon {
			break
		}
	}

	return scores
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
