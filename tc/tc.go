// Package tc implements ordered triangle counting (spec §4.6): for
// every edge u -> v with v < u, intersect out_neigh(u) and out_neigh(v)
// and count shared neighbors w < v, so each triangle (u > v > w) is
// counted exactly once. Relies on the squish invariant: every
// neighborhood is key-sorted and duplicate-free, which is what makes
// the merge-style intersection below correct and linear per pair.
package tc

import "github.com/lftgraph/lftgraph"

// Run counts triangles in g. g's neighborhoods must already be
// squished (sorted, deduplicated, self-loop-free) — true of any graph
// produced by this module's builder.
func Run(g lftgraph.View) int64 {
	var count int64
	for u := range g.Vertices() {
		nu := collect(g, u)
		for _, v := range nu {
			if v >= u {
				continue
			}
			nv := collect(g, v)
			count += intersectBelow(nu, nv, v)
		}
	}
	return count
}

// collect materializes a vertex's key-sorted out-neighborhood, since
// the merge-intersection below needs random access, not a lazy pull.
func collect(g lftgraph.View, v uint32) []uint32 {
	var out []uint32
	for n, _ := range g.OutNeigh(v) {
		out = append(out, n)
	}
	return out
}

// intersectBelow merge-intersects two sorted, duplicate-free neighbor
// lists and counts shared entries strictly less than bound.
func intersectBelow(a, b []uint32, bound uint32) int64 {
	var count int64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			if a[i] < bound {
				count++
			}
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return count
}
