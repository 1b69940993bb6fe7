// Package sssp implements Δ-stepping single-source shortest paths
// (spec §4.6): vertices are processed in buckets indexed by
// ⌊dist/Δ⌋, light edges (weight ≤ Δ) are relaxed repeatedly within a
// bucket until it stops producing new members, then heavy edges
// (weight > Δ) are relaxed once for every vertex that settled in it.
package sssp

import "github.com/lftgraph/lftgraph"

// Dist is a shortest-path distance. Infinity marks an unreached vertex.
type Dist int64

const Infinity = Dist(1<<63 - 1)

// Run computes single-source shortest distances from source using
// bucket width delta, which must be positive.
func Run(g lftgraph.View, source uint32, delta int64) map[uint32]Dist {
	dist := make(map[uint32]Dist, g.NumNodes())
	for v := range g.Vertices() {
		dist[v] = Infinity
	}
	if _, ok := dist[source]; !ok {
		return dist
	}

	buckets := map[int64]map[uint32]bool{}
	var maxBucket int64

	bucketOf := func(d Dist) int64 { return int64(d) / delta }

	addToBucket := func(v uint32, d Dist) {
		b := bucketOf(d)
		if buckets[b] == nil {
			buckets[b] = map[uint32]bool{}
		}
		buckets[b][v] = true
		if b > maxBucket {
			maxBucket = b
		}
	}

	relax := func(v uint32, nd Dist) {
		if nd >= dist[v] {
			return
		}
		if old := dist[v]; old != Infinity {
			delete(buckets[bucketOf(old)], v)
		}
		dist[v] = nd
		addToBucket(v, nd)
	}

	dist[source] = 0
	addToBucket(source, 0)

	anyNonEmptyFrom := func(i int64) bool {
		for b, members := range buckets {
			if b >= i && len(members) > 0 {
				return true
			}
		}
		return false
	}

	for i := int64(0); anyNonEmptyFrom(i); i++ {
		if len(buckets[i]) == 0 {
			continue
		}

		settled := map[uint32]bool{}
		for len(buckets[i]) > 0 {
			round := make([]uint32, 0, len(buckets[i]))
			for v := range buckets[i] {
				round = append(round, v)
			}
			delete(buckets, i)

			for _, u := range round {
				settled[u] = true
				for v, w := range g.OutNeigh(u) {
					if int64(w) <= delta {
						relax(v, dist[u]+Dist(w))
					}
				}
			}
		}

		for u := range settled {
			for v, w := range g.OutNeigh(u) {
				if int64(w) > delta {
					relax(v, dist[u]+Dist(w))
				}
			}
		}
	}

	return dist
}
