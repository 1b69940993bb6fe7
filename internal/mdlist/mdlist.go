package mdlist

import (
	"sync/atomic"
)

// MDList is a per-vertex adjacency container: a lock-free 16-dimension
// digital trie keyed by a 32-bit edge id.
//
// MDList never physically unlinks a node (spec §4.2's Delete is a pure
// DELINV tag); that is solely the outer adjacency list's job (spec
// §4.3), so unlike the outer list MDList has no epoch dependency of its
// own — every node it ever allocates stays reachable for the life of
// its owning vertex.
type MDList[V any] struct {
	head *Node[V]
	size atomic.Int64
}

// New constructs an empty MDList. head carries coord all-zero and no
// payload, per spec §4.2.
func New[V any]() *MDList[V] {
	return &MDList[V]{head: &Node[V]{}}
}

// Size reports the number of structurally-inserted keys (not adjusted
// for logical deletes observed only through descriptors — callers that
// need the live count should iterate).
func (l *MDList[V]) Size() int64 {
	return l.size.Load()
}

// locateStatus is locate_pred's closed result set (spec §4.2).
type locateStatus int

const (
	locateFound locateStatus = iota
	locateLogicallyDeleted
)

// locatePred descends the trie dimension by dimension, following the
// children[dim] chain within each dimension the way a skip list follows
// next[level] (this is the structural analog grounded on
// Jingwu-01-Owl-Database's skiplist find()), completing any pending
// adoption it passes through along the way.
//
// Returns pred, curr, dim, predDim: when dim == Dimension, curr is the
// node whose key matches exactly and pred.children[predDim] is the slot
// that names it. When dim < Dimension, the key is absent and
// pred/predDim/dim/curr are the insertion point.
func (l *MDList[V]) locatePred(coord Coord) (pred, curr *Node[V], dim, predDim int, status locateStatus) {
	pred, curr = l.head, l.head
	dim, predDim = 0, 0
	status = locateFound

	for dim < Dimension {
		for curr != nil && curr.Coord[dim] < coord[dim] {
			l.completePendingIfCovers(curr, dim)

			slot := curr.child(dim)
			if slot != nil && slot.tag == tagDELINV {
				status = locateLogicallyDeleted
			}
			pred, predDim = curr, dim
			if slot == nil {
				curr = nil
				break
			}
			curr = slot.node
		}
		if curr != nil && curr.Coord[dim] == coord[dim] {
			dim++
			continue
		}
		break
	}
	return pred, curr, dim, predDim, status
}

// completePendingIfCovers finishes n's own pending adoption if dim falls
// within the range it still owes its displaced predecessor.
func (l *MDList[V]) completePendingIfCovers(n *Node[V], dim int) {
	pa := n.pending.Load()
	if pa == nil {
		return
	}
	if dim >= pa.PredDim && dim < pa.Dim {
		l.completeAdoption(n, pa)
	}
}

// completeAdoption transfers donor's children in [predDim, dim) to n,
// then clears n's pending slot. Each donor slot is stamped ADPINV via a
// fetch-or-style CAS loop before the recipient is given a copy, so any
// traversal still holding a reference to donor's old slot restarts
// rather than reading a half-adopted range (spec §4.2 step 4).
func (l *MDList[V]) completeAdoption(n *Node[V], pa *PendingAdoption[V]) {
	donor := pa.Curr
	for d := pa.PredDim; d < pa.Dim; d++ {
		for {
			old := donor.child(d)
			if old != nil && old.tag == tagADPINV {
				break // already stamped by a concurrent adopter
			}
			invalidated := &childSlot[V]{tag: tagADPINV}
			if old != nil {
				invalidated.node = old.node
			}
			if donor.casChild(d, old, invalidated) {
				if old != nil && old.node != nil {
					recipient := &childSlot[V]{node: old.node, tag: tagNone}
					n.children[d].CompareAndSwap(nil, recipient)
				}
				break
			}
		}
	}
	n.pending.CompareAndSwap(pa, nil)
}

// Insert adds key/value if absent. Returns false if key already exists
// (and is not logically deleted). On any CAS race this restarts
// locate_pred from the head — a safe simplification of spec §4.2 step 5's
// finer-grained retry classification.
func (l *MDList[V]) Insert(key uint32, value V) bool {
	coord := CoordOf(key)

	for {
		pred, curr, dim, predDim, _ := l.locatePred(coord)

		if dim == Dimension {
			slot := pred.child(predDim)
			if slot != nil && slot.node == curr {
				if slot.tag != tagDELINV {
					return false
				}
				// Key matches a logically-deleted node exactly (dim ==
				// Dimension: there is no dimension left to branch a
				// fresh node into, so children[dim] would index past
				// the array). Spec §4.2: restart by swinging the
				// DELINV slot back to the same node rather than
				// allocating a new one — curr already owns whatever
				// children diverged from it before the delete, and a
				// fresh node here would orphan that subtree.
				curr.SetValue(value)
				relinked := &childSlot[V]{node: curr, tag: tagNone}
				if !pred.casChild(predDim, slot, relinked) {
					continue
				}
				l.size.Add(1)
				return true
			}
			continue // pred's slot changed since locatePred read it
		}

		oldSlot := pred.child(predDim)
		if (oldSlot == nil && curr != nil) || (oldSlot != nil && (oldSlot.node != curr || oldSlot.tag == tagADPINV)) {
			continue // pred's slot changed since locatePred read it
		}

		n := newNode(key, value)
		for d := 0; d < predDim; d++ {
			n.children[d].Store(&childSlot[V]{tag: tagADPINV})
		}
		// A logically deleted curr stays deleted behind the new node.
		currTag := tagNone
		if oldSlot != nil && oldSlot.tag == tagDELINV {
			currTag = tagDELINV
		}
		n.children[dim].Store(&childSlot[V]{node: curr, tag: currTag})

		var pa *PendingAdoption[V]
		if predDim != dim {
			pa = &PendingAdoption[V]{Curr: curr, PredDim: predDim, Dim: dim}
			n.pending.Store(pa)
		}

		newSlot := &childSlot[V]{node: n, tag: tagNone}
		if !pred.casChild(predDim, oldSlot, newSlot) {
			continue
		}

		if curr != nil {
			if donorPending := curr.pending.Load(); donorPending != nil {
				l.completeAdoption(curr, donorPending)
			}
		}
		if pa != nil {
			l.completeAdoption(n, pa)
		}
		l.size.Add(1)
		return true
	}
}

// Delete logically removes key by DELINV-tagging the pred->curr slot.
// No physical unlink happens here: a later Insert of the same key
// relinks the tagged slot to the existing node, and an Insert that
// places a new node in front of a deleted one carries the DELINV tag
// onto the new node's slot that leads to it.
func (l *MDList[V]) Delete(key uint32) bool {
	coord := CoordOf(key)

	for {
		pred, curr, dim, predDim, _ := l.locatePred(coord)
		if dim != Dimension {
			return false
		}
		slot := pred.child(predDim)
		if slot == nil || slot.node != curr {
			return false
		}
		if slot.tag == tagDELINV {
			return false
		}
		marked := &childSlot[V]{node: curr, tag: tagDELINV}
		if pred.casChild(predDim, slot, marked) {
			l.size.Add(-1)
			return true
		}
		// lost the race; re-locate and retry
	}
}

// Find returns the node for key if it is structurally present (reached
// a slot at dim == Dimension that is not DELINV-tagged). Callers that
// need spec §3's full logical-presence rule combine this with a check
// of Node.Desc (see store.go).
func (l *MDList[V]) Find(key uint32) (*Node[V], bool) {
	coord := CoordOf(key)
	pred, curr, dim, predDim, _ := l.locatePred(coord)
	if dim != Dimension {
		return nil, false
	}
	slot := pred.child(predDim)
	if slot == nil || slot.node != curr || slot.tag == tagDELINV {
		return nil, false
	}
	return curr, true
}

// Iterate walks every live node, calling visit for each one whose
// incoming slot is not DELINV-tagged and whose payload is present
// ("Some"), matching spec §4.2's iteration contract. Safe under
// concurrent insertion: adoption preserves reachability of every live
// key from the root, so a key present when iteration starts is never
// missed, though concurrent inserts/deletes may or may not be observed.
//
// Every node is the child of exactly one non-ADPINV slot, so the walk
// descends into each slot's node once. A node's child in dimension d
// first differs from it at digit d, so its subtree holds smaller keys
// than the child in dimension d-1; slots are therefore walked from the
// last dimension to the first, which yields ascending key order.
// An ADPINV-tagged slot is never followed: its subtree's sole remaining
// path is through the node that adopted it, reached independently.
func (l *MDList[V]) Iterate(visit func(*Node[V])) {
	l.walk(l.head, false, visit)
}

func (l *MDList[V]) walk(n *Node[V], deleted bool, visit func(*Node[V])) {
	if n != l.head && !deleted {
		if _, ok := n.Value(); ok {
			visit(n)
		}
	}
	for d := Dimension - 1; d >= 0; d-- {
		if s := n.child(d); s != nil && s.tag != tagADPINV && s.node != nil {
			l.walk(s.node, s.tag == tagDELINV, visit)
		}
	}
}

// PostOrder walks every structurally-present node (DELINV included,
// ADPINV-frozen slots excluded) in post-order — used by vertex delete's
// cascade (spec §4.3), which must stamp every edge node's descriptor,
// including ones concurrently being deleted.
func (l *MDList[V]) PostOrder(visit func(*Node[V])) {
	l.postOrder(l.head, visit)
}

func (l *MDList[V]) postOrder(n *Node[V], visit func(*Node[V])) {
	for d := 0; d < Dimension; d++ {
		if s := n.child(d); s != nil && s.tag != tagADPINV && s.node != nil {
			l.postOrder(s.node, visit)
		}
	}
	if n != l.head {
		visit(n)
	}
}
