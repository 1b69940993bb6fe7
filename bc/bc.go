// Package bc implements Brandes' betweenness centrality algorithm over
// a caller-supplied sample of source vertices (spec §4.6): a forward
// BFS accumulates shortest-path counts and predecessor pairs, then a
// reverse pass in decreasing-distance order back-propagates dependency
// scores into the centrality accumulator.
package bc

import "github.com/lftgraph/lftgraph"

// Run returns each vertex's (unnormalised) betweenness centrality,
// summed over the given sample of source vertices.
func Run(g lftgraph.View, sources []uint32) map[uint32]float64 {
	centrality := make(map[uint32]float64, g.NumNodes())
	for v := range g.Vertices() {
		centrality[v] = 0
	}

	for _, s := range sources {
		runFrom(g, s, centrality)
	}
	return centrality
}

func runFrom(g lftgraph.View, s uint32, centrality map[uint32]float64) {
	dist := map[uint32]int64{}
	sigma := map[uint32]float64{}
	preds := map[uint32][]uint32{}
	for v := range g.Vertices() {
		dist[v] = -1
	}
	if _, ok := dist[s]; !ok {
		return
	}
	dist[s] = 0
	sigma[s] = 1

	queue := []uint32{s}
	order := make([]uint32, 0, g.NumNodes())

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		order = append(order, v)

		for w, _ := range g.OutNeigh(v) {
			if dist[w] < 0 {
				dist[w] = dist[v] + 1
				queue = append(queue, w)
			}
			if dist[w] == dist[v]+1 {
				sigma[w] += sigma[v]
				preds[w] = append(preds[w], v)
			}
		}
	}

	delta := make(map[uint32]float64, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		w := order[i]
		if sigma[w] == 0 {
			continue
		}
		for _, v := range preds[w] {
			delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
		}
		if w != s {
			centrality[w] += delta[w]
		}
	}
}
