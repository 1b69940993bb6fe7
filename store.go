// Package lftgraph implements a lock-free, transactionally composable
// dynamic graph store (C1/C3/C4/C5), following Zhang et al.'s Lock-Free
// Transactional Transformation. Per-vertex adjacency is delegated to
// internal/mdlist (C2); this file is the outer transactional adjacency
// list (C3).
package lftgraph

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/lftgraph/lftgraph/internal/epoch"
	"github.com/lftgraph/lftgraph/internal/mdlist"
	"github.com/lftgraph/lftgraph/internal/txn"
)

// Store is the transactional adjacency list: a sorted singly linked
// outer list of vertexNodes between head/tail sentinels, each vertex
// carrying its own out_edges (and, conditionally, in_edges) MDList.
//
// Grounded on Jingwu-01-Owl-Database's skiplist find()/insert() shape
// (atomic.Pointer successor links, a pred/curr pair returned by a single
// locate function, marked-for-deletion detected and spliced lazily by
// whichever traversal next passes over it) generalized from a
// multi-level skiplist down to a single sorted level, since C3 needs
// ordering but not logarithmic skip — that job belongs to MDList.
type Store struct {
	head, tail *vertexNode
	cursor     atomic.Pointer[vertexNode]

	directed bool
	invert   bool

	mgr    *epoch.Manager
	logger *zap.Logger
}

// NewStore constructs an empty store. invert is only meaningful when
// directed is true (spec §9's open question: undirected graphs alias
// in_neigh to out_neigh and never allocate a second MDList).
func NewStore(directed, invert bool, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	head := newSentinel(headKey)
	tail := newSentinel(tailKey)
	head.next.Store(&nextSlot{node: tail})

	s := &Store{
		head:     head,
		tail:     tail,
		directed: directed,
		invert:   invert,
		mgr:      epoch.NewManager(),
		logger:   logger,
	}
	s.cursor.Store(head)
	return s
}

// helpStack is the thread-local stack of Desc pointers currently being
// helped (spec §4.3/§9). Since Go has no thread-local storage, this is
// threaded explicitly as a parameter through the call chain of one
// Execute invocation — functionally identical to a goroutine-local
// stack, since each Execute call owns exactly one such chain.
type helpStack struct {
	items []*txn.Desc
}

func (h *helpStack) contains(d *txn.Desc) bool {
	for _, x := range h.items {
		if x == d {
			return true
		}
	}
	return false
}

func (h *helpStack) push(d *txn.Desc) { h.items = append(h.items, d) }
func (h *helpStack) pop()             { h.items = h.items[:len(h.items)-1] }

// Execute runs d's operations to completion (commit or abort) and
// returns the final status.
func (s *Store) Execute(d *txn.Desc) txn.Status {
	s.run(d, 0, &helpStack{})
	return d.Status()
}

// run replays d's ops from index from, helping any transaction it meets
// along the way. Before helping a Desc already on hs, it aborts that
// Desc instead — the sole cycle-breaking rule (spec §9).
func (s *Store) run(d *txn.Desc, from int, hs *helpStack) {
	if hs.contains(d) {
		if d.TryAbort() {
			s.logger.Debug("cycle-breaking abort", zap.Stringer("txn_id", d.ID))
			s.finalize(d)
		}
		return
	}
	hs.push(d)
	defer hs.pop()

	aborted := false
	for i := from; i < len(d.Ops); i++ {
		if d.Status() != txn.Active {
			break
		}
		if r, ok := d.Result(i); ok && r.Outcome != txn.OutcomeFail {
			continue // already applied by an earlier helping pass
		}
		if s.executeOp(d, i, hs) == txn.OutcomeFail {
			aborted = true
			break
		}
	}

	switch {
	case aborted:
		if d.TryAbort() {
			s.logger.Debug("txn aborted", zap.Stringer("txn_id", d.ID))
			s.finalize(d)
		}
	case d.Status() == txn.Active:
		if d.TryCommit() {
			s.logger.Debug("txn committed", zap.Stringer("txn_id", d.ID))
			s.finalize(d)
		}
	}
}

// finalize performs the post-commit/post-abort bookkeeping spec §4.3
// describes: on commit, successful deletes are physically spliced out
// of the outer list; on abort, successful inserts are rolled back the
// same way. Neither step is required for logical correctness — a
// vertex's NodeDesc + the owning Desc's live Status already make
// IsLogicallyPresent answer correctly regardless of physical linkage —
// so finalize is a lazy cleanup pass, not a correctness gate, and it is
// safe for it to run after other transactions have already observed
// and re-stamped the same node.
func (s *Store) finalize(d *txn.Desc) {
	switch d.Status() {
	case txn.Committed:
		for i, op := range d.Ops {
			if op.Type != txn.OpDelete {
				continue
			}
			if curr := s.ownedNode(op.Key, d, i); curr != nil {
				s.physicallyUnlink(curr)
			}
		}
	case txn.Aborted:
		for i, op := range d.Ops {
			if op.Type != txn.OpInsert {
				continue
			}
			if curr := s.ownedNode(op.Key, d, i); curr != nil {
				s.physicallyUnlink(curr)
			}
		}
	}
}

// ownedNode returns the vertex at key if it is still stamped with
// (d, opid) — guards finalize against splicing a node some later
// transaction has since legitimately reused.
func (s *Store) ownedNode(key uint32, d *txn.Desc, opid int) *vertexNode {
	_, curr, _ := s.locatePred(key)
	if curr == nil || curr.Key != key {
		return nil
	}
	nd := curr.Desc.Load()
	if nd != nil && nd.Desc == d && nd.OpID == opid {
		return curr
	}
	return nil
}

// executeOp dispatches a single operator to its handler.
func (s *Store) executeOp(d *txn.Desc, opid int, hs *helpStack) txn.Outcome {
	switch d.Ops[opid].Type {
	case txn.OpInsert:
		return s.insertVertex(d, opid, hs)
	case txn.OpDelete:
		return s.deleteVertex(d, opid, hs)
	case txn.OpFind:
		return s.findVertex(d, opid, hs)
	case txn.OpInsertEdge:
		return s.insertEdge(d, opid, hs)
	case txn.OpDeleteEdge:
		return s.deleteEdge(d, opid, hs)
	default:
		return txn.OutcomeFail
	}
}

// classify tells NodeDesc.IsLogicallyPresent which ops in d count as
// insertions (Insert, InsertEdge) versus deletions (Delete, DeleteEdge).
func classify(d *txn.Desc) func(int) bool {
	return func(opid int) bool {
		switch d.Ops[opid].Type {
		case txn.OpInsert, txn.OpInsertEdge:
			return true
		default:
			return false
		}
	}
}

// neighborPresent answers whether key currently names a live vertex,
// helping along any transaction still active on it. Used by insertEdge
// to validate the non-owner endpoint: that vertex's NodeDesc is never
// stamped by the edge insert itself (spec §9's self-referential
// adjacency rule stores the neighbor as a bare tagged identifier, never
// an owning pointer), so this is a pure presence read, not a dependency
// the op takes a stamp on.
func (s *Store) neighborPresent(d *txn.Desc, key uint32, hs *helpStack) bool {
	for {
		_, curr, _ := s.locatePred(key)
		if curr == nil || curr.Key != key || curr.isMarkedDeleted() {
			return false
		}
		nd := curr.Desc.Load()
		if nd != nil && nd.Desc != d && nd.Desc.Status() == txn.Active {
			s.run(nd.Desc, 0, hs)
			continue
		}
		return dependentPresence(d, nd)
	}
}

// dependentPresence resolves whether a vertex stamped by nd should be
// treated as present from a *different* op's point of view within the
// same overall Execute call — needed only where an op depends on a
// vertex's presence without itself being a duplicate op on that vertex
// (InsertEdge/DeleteEdge locating their endpoint). IsLogicallyPresent
// alone is insufficient here: it gates on the stamping descriptor's
// transaction being Committed, which an op's own transaction never is
// while that same transaction is still mid-flight (spec §3's rule is
// written for cross-transaction visibility, not a transaction's view of
// its own earlier ops). When nd.Desc == d, resolve directly from
// whether the stamping op was an insertion; otherwise defer to the
// ordinary cross-transaction rule.
func dependentPresence(d *txn.Desc, nd *txn.NodeDesc) bool {
	if nd == nil {
		return false
	}
	if nd.Desc == d {
		return classify(d)(nd.OpID)
	}
	return nd.IsLogicallyPresent(classify(nd.Desc))
}

// locatePred descends the outer list to find the predecessor/candidate
// pair for key, splicing out any marked-deleted node it passes over —
// the Harris-list lazy physical removal spec §3's Lifecycle describes.
// predSlot is the exact nextSlot observed at pred at the moment curr was
// read from it — callers that go on to CAS pred.next must pass this
// back as the CAS's expected-old value (never a freshly reloaded one),
// or a concurrent insert landing between pred and curr gets silently
// overwritten (spec §5's CAS discipline; invariant 3).
func (s *Store) locatePred(key uint32) (pred, curr *vertexNode, predSlot *nextSlot) {
	for {
		pred = s.head
		predSlot = pred.next.Load()
		curr = predSlot.node
		restart := false

		for curr != nil && curr.Key < key {
			if curr.isMarkedDeleted() {
				nxt := curr.next.Load()
				spliced := &nextSlot{node: nxt.node}
				if !pred.next.CompareAndSwap(predSlot, spliced) {
					restart = true
					break
				}
				unlinked := curr
				s.mgr.Retire(func() { unlinked.next.Store(nil) })
				curr = nxt.node
				predSlot = spliced
				continue
			}
			pred = curr
			predSlot = curr.next.Load()
			curr = predSlot.node
		}
		if restart {
			continue
		}
		return pred, curr, predSlot
	}
}

// tryInsertAtCursor attempts to link n immediately after the cursor
// hint without a full locatePred descent (spec §4.3's cursor fast-path,
// supplemented per SPEC_FULL §3.1 from original_source's AtomicPtr
// hint). Returns false on any mismatch or race, leaving the caller to
// fall back to the general locate+CAS path.
func (s *Store) tryInsertAtCursor(key uint32, n *vertexNode) bool {
	c := s.cursor.Load()
	if c == nil || c == s.tail || c.Key >= key || c.isMarkedDeleted() {
		return false
	}
	slot := c.next.Load()
	if slot == nil || slot.deleted || slot.node == nil || slot.node.Key <= key {
		return false
	}
	n.next.Store(&nextSlot{node: slot.node})
	if !c.next.CompareAndSwap(slot, &nextSlot{node: n}) {
		return false
	}
	s.cursor.Store(n)
	return true
}

// physicallyUnlink sets the tombstone mark on n's own successor link.
// The actual splice-out of n from its predecessor happens lazily, the
// next time some locatePred traversal passes over it. Idempotent.
func (s *Store) physicallyUnlink(n *vertexNode) {
	for {
		slot := n.next.Load()
		if slot == nil || slot.deleted {
			return
		}
		marked := &nextSlot{node: slot.node, deleted: true}
		if n.next.CompareAndSwap(slot, marked) {
			return
		}
	}
}

// insertVertex implements spec §4.3's Insert vertex / shared op
// discipline.
func (s *Store) insertVertex(d *txn.Desc, opid int, hs *helpStack) txn.Outcome {
	op := d.Ops[opid]
	if op.Key == headKey || op.Key == tailKey {
		return fail(d, opid, "reserved key")
	}

	g := s.mgr.Pin()
	defer g.Unpin()

	for {
		pred, curr, predSlot := s.locatePred(op.Key)

		if curr != nil && curr.Key == op.Key {
			if curr.isMarkedDeleted() {
				// Same key, tombstoned: splice it before retrying so the
				// slot is free for a fresh node.
				nxt := curr.next.Load()
				pred.next.CompareAndSwap(predSlot, &nextSlot{node: nxt.node})
				continue
			}

			nd := curr.Desc.Load()
			if nd != nil && nd.Desc == d {
				return skip(d, opid)
			}
			if nd != nil && nd.Desc.Status() == txn.Active {
				s.run(nd.Desc, 0, hs)
				continue
			}

			newND := &txn.NodeDesc{Desc: d, OpID: opid}
			if !curr.Desc.CompareAndSwap(nd, newND) {
				continue
			}
			curr.setValue(op.Value)
			if nd != nil && nd.IsLogicallyPresent(classify(nd.Desc)) {
				return success(d, opid, txn.OutcomeSuccess)
			}
			return success(d, opid, txn.OutcomeInserted)
		}

		n := newVertexNode(op.Key, op.Value, s.directed, s.invert)
		n.Desc.Store(&txn.NodeDesc{Desc: d, OpID: opid})

		if s.tryInsertAtCursor(op.Key, n) {
			return success(d, opid, txn.OutcomeInserted)
		}

		n.next.Store(&nextSlot{node: curr})
		if pred.next.CompareAndSwap(predSlot, &nextSlot{node: n}) {
			s.cursor.Store(n)
			return success(d, opid, txn.OutcomeInserted)
		}
	}
}

// deleteVertex implements spec §4.3's Delete vertex: stamp, cascade
// post-order over both MDLists, then clear pending. The physical
// unlink this triggers is deferred to finalize (see its doc comment).
func (s *Store) deleteVertex(d *txn.Desc, opid int, hs *helpStack) txn.Outcome {
	op := d.Ops[opid]

	g := s.mgr.Pin()
	defer g.Unpin()

	for {
		_, curr, _ := s.locatePred(op.Key)
		if curr == nil || curr.Key != op.Key || curr.isMarkedDeleted() {
			return fail(d, opid, "vertex not found")
		}

		nd := curr.Desc.Load()
		if nd != nil && nd.Desc == d {
			return skip(d, opid)
		}
		if nd != nil && nd.Desc.Status() == txn.Active {
			s.run(nd.Desc, 0, hs)
			continue
		}
		if nd == nil || !nd.IsLogicallyPresent(classify(nd.Desc)) {
			return fail(d, opid, "vertex not found")
		}

		newND := &txn.NodeDesc{Desc: d, OpID: opid}
		if !curr.Desc.CompareAndSwap(nd, newND) {
			continue
		}

		stamp := func(en *mdlist.Node[Weight]) {
			en.Desc.Store(&txn.NodeDesc{Desc: d, OpID: opid, OverrideAsDelete: true})
		}
		curr.outEdges.PostOrder(stamp)
		if curr.inEdges != nil {
			curr.inEdges.PostOrder(stamp)
		}

		d.ClearPending(opid)
		return success(d, opid, txn.OutcomeDeleted)
	}
}

// findVertex implements spec §4.3's Find: locate, check logical
// presence, and CAS the descriptor to this Desc so the read joins the
// serialisation order.
func (s *Store) findVertex(d *txn.Desc, opid int, hs *helpStack) txn.Outcome {
	op := d.Ops[opid]

	g := s.mgr.Pin()
	defer g.Unpin()

	for {
		_, curr, _ := s.locatePred(op.Key)
		if curr == nil || curr.Key != op.Key || curr.isMarkedDeleted() {
			return fail(d, opid, "vertex not found")
		}

		nd := curr.Desc.Load()
		if nd != nil && nd.Desc == d {
			return skip(d, opid)
		}
		if nd != nil && nd.Desc.Status() == txn.Active {
			s.run(nd.Desc, 0, hs)
			continue
		}
		if nd == nil || !nd.IsLogicallyPresent(classify(nd.Desc)) {
			return fail(d, opid, "vertex not found")
		}

		newND := &txn.NodeDesc{Desc: d, OpID: opid, OverrideAsFind: true}
		if !curr.Desc.CompareAndSwap(nd, newND) {
			continue
		}
		return success(d, opid, txn.OutcomeFound)
	}
}

// endpoint resolves which vertex owns the MDList container an edge
// operator touches, and which key identifies the edge within it (the
// other endpoint's id — each vertex's MDList is already scoped to one
// direction, so no separate composite edge id is needed).
func endpoint(op txn.Operator) (owner, neighbor uint32) {
	if op.DirectionIn {
		return op.Dst, op.Src
	}
	return op.Src, op.Dst
}

func (s *Store) edgeContainer(v *vertexNode, directionIn bool) *mdlist.MDList[Weight] {
	if directionIn && v.inEdges != nil {
		return v.inEdges
	}
	return v.outEdges // undirected alias, or directed without INVERT storing only out_edges
}

// insertEdge implements spec §4.3's Insert edge. Before publishing the
// new MDList node, the owning vertex's descriptor is stamped with an
// override-as-find marker (skipped if it already belongs to this Desc)
// so a concurrent DeleteVertex's post-order cascade either observes
// this transaction's claim before the MDList insert publishes, or the
// insert completes and is caught directly by a post-insert recheck —
// see DESIGN.md ("InsertEdge's pre-publish guard") for why this is a
// documented simplification of the MDList-pred-level guard spec §4.3
// describes.
func (s *Store) insertEdge(d *txn.Desc, opid int, hs *helpStack) txn.Outcome {
	op := d.Ops[opid]
	if op.Src == op.Dst {
		return fail(d, opid, "self-edge")
	}
	if op.Src == headKey || op.Src == tailKey || op.Dst == headKey || op.Dst == tailKey {
		return fail(d, opid, "reserved key")
	}

	g := s.mgr.Pin()
	defer g.Unpin()

	owner, neighbor := endpoint(op)

	for {
		_, curr, _ := s.locatePred(owner)
		if curr == nil || curr.Key != owner || curr.isMarkedDeleted() {
			return fail(d, opid, "endpoint vertex not found")
		}

		nd := curr.Desc.Load()
		if nd != nil && nd.Desc != d && nd.Desc.Status() == txn.Active {
			s.run(nd.Desc, 0, hs)
			continue
		}
		if !dependentPresence(d, nd) {
			return fail(d, opid, "endpoint vertex not found")
		}
		if !s.neighborPresent(d, neighbor, hs) {
			return fail(d, opid, "endpoint vertex not found")
		}
		if nd.Desc != d {
			override := &txn.NodeDesc{Desc: d, OpID: opid, OverrideAsFind: true}
			if !curr.Desc.CompareAndSwap(nd, override) {
				continue
			}
		}

		container := s.edgeContainer(curr, op.DirectionIn)
		inserted := container.Insert(neighbor, Weight(op.EdgeValue))
		if !inserted {
			return skip(d, opid)
		}

		if latest := curr.Desc.Load(); !dependentPresence(d, latest) {
			// Vertex delete's cascade may have already swept past this
			// slot before the insert published; finish the job it missed.
			if en, ok := container.Find(neighbor); ok {
				en.Desc.Store(&txn.NodeDesc{Desc: d, OpID: opid, OverrideAsDelete: true})
			}
		}

		return success(d, opid, txn.OutcomeInserted)
	}
}

// deleteEdge implements spec §4.3's Delete edge: locate the owning
// vertex, then DELINV-tag the neighbor's slot in its MDList.
func (s *Store) deleteEdge(d *txn.Desc, opid int, hs *helpStack) txn.Outcome {
	op := d.Ops[opid]

	g := s.mgr.Pin()
	defer g.Unpin()

	owner, neighbor := endpoint(op)

	for {
		_, curr, _ := s.locatePred(owner)
		if curr == nil || curr.Key != owner || curr.isMarkedDeleted() {
			return fail(d, opid, "endpoint vertex not found")
		}

		nd := curr.Desc.Load()
		if nd != nil && nd.Desc != d && nd.Desc.Status() == txn.Active {
			s.run(nd.Desc, 0, hs)
			continue
		}
		if !dependentPresence(d, nd) {
			return fail(d, opid, "endpoint vertex not found")
		}

		container := s.edgeContainer(curr, op.DirectionIn)
		if container.Delete(neighbor) {
			return success(d, opid, txn.OutcomeDeleted)
		}
		return fail(d, opid, "edge not found")
	}
}

func fail(d *txn.Desc, opid int, reason string) txn.Outcome {
	d.SetResult(opid, txn.Result{Outcome: txn.OutcomeFail, Reason: reason})
	return txn.OutcomeFail
}

func skip(d *txn.Desc, opid int) txn.Outcome {
	d.SetResult(opid, txn.Result{Outcome: txn.OutcomeSkip})
	return txn.OutcomeSkip
}

func success(d *txn.Desc, opid int, outcome txn.Outcome) txn.Outcome {
	d.SetResult(opid, txn.Result{Outcome: outcome})
	return outcome
}
