package lftgraph

import (
	"iter"

	"github.com/lftgraph/lftgraph/internal/mdlist"
	"github.com/lftgraph/lftgraph/internal/txn"
)

// View is the narrow read interface kernels (C6) consume — spec §4.4.
// Every method here is safe to call concurrently with every other
// method and linearises relative to committed transactions.
type View interface {
	NumNodes() int
	Directed() bool
	NumEdgesDirected() int
	NumEdges() int
	OutDegree(v uint32) int
	InDegree(v uint32) int
	OutNeigh(v uint32) iter.Seq2[uint32, Weight]
	InNeigh(v uint32) iter.Seq2[uint32, Weight]
	Vertices() iter.Seq[uint32]
}

var _ View = (*Store)(nil)

// NumNodes counts committed non-sentinel vertices.
func (s *Store) NumNodes() int {
	n := 0
	for range s.Vertices() {
		n++
	}
	return n
}

// Directed reports the builder-supplied flag.
func (s *Store) Directed() bool { return s.directed }

// NumEdgesDirected is the raw per-direction edge count: the sum of
// every live vertex's out_edges size.
func (s *Store) NumEdgesDirected() int {
	total := 0
	for v := range s.Vertices() {
		total += s.OutDegree(v)
	}
	return total
}

// NumEdges halves NumEdgesDirected for undirected graphs, per spec
// §4.4 (each undirected edge is stored once in each endpoint's
// out_edges, so a raw per-direction count already counts it twice —
// directed graphs report the raw count unchanged).
func (s *Store) NumEdges() int {
	if s.directed {
		return s.NumEdgesDirected()
	}
	return s.NumEdgesDirected() / 2
}

func (s *Store) vertex(key uint32) *vertexNode {
	_, curr, _ := s.locatePred(key)
	if curr == nil || curr.Key != key || curr.isMarkedDeleted() {
		return nil
	}
	if !liveVertexPresent(curr.Desc.Load()) {
		return nil
	}
	return curr
}

// liveVertexPresent applies spec §3's presence rule to a vertex stamp
// read outside any in-flight transaction: Find overrides settle the
// question directly, otherwise the stamping Desc's own op classifier
// (the same classify used by store.go's op handlers) resolves it.
func liveVertexPresent(nd *txn.NodeDesc) bool {
	if nd == nil {
		return false
	}
	if nd.OverrideAsFind {
		return true
	}
	if nd.OverrideAsDelete {
		return false
	}
	return nd.IsLogicallyPresent(classify(nd.Desc))
}

// OutDegree is the out_edges MDList size, 0 for a missing vertex.
func (s *Store) OutDegree(v uint32) int {
	n := s.vertex(v)
	if n == nil {
		return 0
	}
	return int(n.outEdges.Size())
}

// InDegree is the in_edges MDList size (aliasing out_edges for
// undirected graphs and directed graphs without INVERT), 0 for a
// missing vertex.
func (s *Store) InDegree(v uint32) int {
	n := s.vertex(v)
	if n == nil {
		return 0
	}
	if s.directed && n.inEdges != nil {
		return int(n.inEdges.Size())
	}
	return int(n.outEdges.Size())
}

// OutNeigh returns a lazy key-ordered iterator over v's out_edges —
// not a snapshot (spec §9's Iterator invalidation note).
func (s *Store) OutNeigh(v uint32) iter.Seq2[uint32, Weight] {
	n := s.vertex(v)
	return func(yield func(uint32, Weight) bool) {
		if n == nil {
			return
		}
		stopped := false
		n.outEdges.Iterate(func(en *mdlist.Node[Weight]) {
			if w, ok := en.Value(); ok && !stopped && !yield(en.Key, w) {
				stopped = true
			}
		})
	}
}

// InNeigh aliases OutNeigh for undirected graphs and directed graphs
// without INVERT (spec §9's open question).
func (s *Store) InNeigh(v uint32) iter.Seq2[uint32, Weight] {
	n := s.vertex(v)
	return func(yield func(uint32, Weight) bool) {
		if n == nil {
			return
		}
		container := n.outEdges
		if s.directed && n.inEdges != nil {
			container = n.inEdges
		}
		stopped := false
		container.Iterate(func(en *mdlist.Node[Weight]) {
			if w, ok := en.Value(); ok && !stopped && !yield(en.Key, w) {
				stopped = true
			}
		})
	}
}

// Vertices iterates the outer list, skipping both sentinels and any
// vertex that is not currently logically present.
func (s *Store) Vertices() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		g := s.mgr.Pin()
		defer g.Unpin()

		n := s.head.nextNode()
		for n != nil && n.Key != tailKey {
			if !n.isMarkedDeleted() && liveVertexPresent(n.Desc.Load()) {
				if !yield(n.Key) {
					return
				}
			}
			n = n.nextNode()
		}
	}
}

// Value returns v's payload, if v exists and is logically present.
func (s *Store) Value(v uint32) (any, bool) {
	n := s.vertex(v)
	if n == nil {
		return nil, false
	}
	return n.value_()
}

// ReplaceOutEdges wholesale-replaces v's out_edges container contents —
// used only by the builder's squish pass (spec §4.4).
func (s *Store) ReplaceOutEdges(v uint32, edges []EdgeEntry) {
	n := s.vertex(v)
	if n == nil {
		return
	}
	fresh := mdlist.New[Weight]()
	for _, e := range edges {
		fresh.Insert(e.Neighbor, e.Weight)
	}
	n.outEdges = fresh
}

// ReplaceInEdges wholesale-replaces v's in_edges container contents.
// No-op for undirected graphs and directed graphs without INVERT,
// since those have no independent in_edges container to replace.
func (s *Store) ReplaceInEdges(v uint32, edges []EdgeEntry) {
	n := s.vertex(v)
	if n == nil || n.inEdges == nil {
		return
	}
	fresh := mdlist.New[Weight]()
	for _, e := range edges {
		fresh.Insert(e.Neighbor, e.Weight)
	}
	n.inEdges = fresh
}

// EdgeEntry is one (neighbor, weight) pair, the unit ReplaceOutEdges /
// ReplaceInEdges operate on.
type EdgeEntry struct {
	Neighbor uint32
	Weight   Weight
}

// --- Point-op wrappers (spec §4.4's "thin wrappers that construct a
// single-op transaction") ---

// AddVertex runs a single-op Insert transaction.
func (s *Store) AddVertex(key uint32, value any) txn.Status {
	d := txn.New([]txn.Operator{{Type: txn.OpInsert, Key: key, Value: value}})
	return s.Execute(d)
}

// RemoveVertex runs a single-op Delete transaction.
func (s *Store) RemoveVertex(key uint32) txn.Status {
	d := txn.New([]txn.Operator{{Type: txn.OpDelete, Key: key}})
	return s.Execute(d)
}

// FindVertex runs a single-op Find transaction.
func (s *Store) FindVertex(key uint32) txn.Status {
	d := txn.New([]txn.Operator{{Type: txn.OpFind, Key: key}})
	return s.Execute(d)
}

// AddEdge runs a single-op InsertEdge transaction.
func (s *Store) AddEdge(src, dst uint32, weight Weight, directionIn bool) txn.Status {
	d := txn.New([]txn.Operator{{
		Type: txn.OpInsertEdge, Src: src, Dst: dst,
		EdgeValue: int64(weight), DirectionIn: directionIn,
	}})
	return s.Execute(d)
}

// RemoveEdge runs a single-op DeleteEdge transaction.
func (s *Store) RemoveEdge(src, dst uint32, directionIn bool) txn.Status {
	d := txn.New([]txn.Operator{{
		Type: txn.OpDeleteEdge, Src: src, Dst: dst, DirectionIn: directionIn,
	}})
	return s.Execute(d)
}
