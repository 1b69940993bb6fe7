// Package txn implements the descriptor model (C1) that the rest of the
// store uses to compose multiple vertex/edge operations into a single
// lock-free, helpable transaction, following Zhang et al.'s Lock-Free
// Transactional Transformation (LFTT).
package txn

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// OpType names one kind of operation a Desc can carry.
type OpType int

const (
	OpInsert OpType = iota
	OpDelete
	OpFind
	OpInsertEdge
	OpDeleteEdge
)

func (t OpType) String() string {
	switch t {
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	case OpFind:
		return "find"
	case OpInsertEdge:
		return "insert_edge"
	case OpDeleteEdge:
		return "delete_edge"
	default:
		return "unknown"
	}
}

// Operator is one step of a Desc's operation list.
//
// Key addresses a vertex for Insert/Delete/Find. Src/Dst address the two
// endpoints of an edge operation; DirectionIn selects the destination
// vertex's in_edges container (true) or the source vertex's out_edges
// container (false), per spec §4.1.
type Operator struct {
	Type        OpType
	Key         uint32
	Value       any
	Src         uint32
	Dst         uint32
	EdgeValue   int64
	DirectionIn bool
}

// Status is the tri-state lifecycle of a Desc.
type Status int32

const (
	Active Status = iota
	Committed
	Aborted
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Outcome is the closed set of per-operation results from spec §7.
type Outcome int32

const (
	OutcomeSuccess Outcome = iota
	OutcomeInserted
	OutcomeDeleted
	OutcomeFound
	OutcomeSkip
	OutcomeFail
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeInserted:
		return "inserted"
	case OutcomeDeleted:
		return "deleted"
	case OutcomeFound:
		return "found"
	case OutcomeSkip:
		return "skip"
	case OutcomeFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Result is the terminal outcome of one op, cached on the Desc so a
// second helper short-circuits instead of re-executing a completed op
// (the mechanism behind the Skip discipline, spec testable property 5).
type Result struct {
	Outcome Outcome
	Reason  string
}

// Desc names an in-flight (or just-finished) multi-operation transaction.
//
// Ops is immutable for the lifetime of the Desc. status, pending and
// results are the only mutable state, and are always touched through
// atomic operations — Desc carries no mutex, per spec §5.
type Desc struct {
	ID      uuid.UUID
	Ops     []Operator
	status  atomic.Int32
	pending []atomic.Bool
	results []atomic.Pointer[Result]
}

// New builds an Active Desc for the given ops. pending[i] starts true
// for every op; only multi-phase ops (vertex deletion) ever consult it.
func New(ops []Operator) *Desc {
	d := &Desc{
		ID:      uuid.New(),
		Ops:     ops,
		pending: make([]atomic.Bool, len(ops)),
		results: make([]atomic.Pointer[Result], len(ops)),
	}
	for i := range d.pending {
		d.pending[i].Store(true)
	}
	return d
}

// Status returns the current lifecycle state.
func (d *Desc) Status() Status {
	return Status(d.status.Load())
}

// TryCommit attempts the Active -> Committed transition. Returns true
// iff this call performed the transition.
func (d *Desc) TryCommit() bool {
	return d.status.CompareAndSwap(int32(Active), int32(Committed))
}

// TryAbort attempts the Active -> Aborted transition. Returns true iff
// this call performed the transition.
func (d *Desc) TryAbort() bool {
	return d.status.CompareAndSwap(int32(Active), int32(Aborted))
}

// Pending reports whether op i's cascading work (vertex-delete stamping)
// is still outstanding.
func (d *Desc) Pending(opid int) bool {
	return d.pending[opid].Load()
}

// ClearPending performs the true->false CAS on op i's pending flag and
// reports whether this call won it. The store clears it once a vertex
// delete's cascade is done; the physical unlink does not depend on the
// winner and runs in the store's post-commit bookkeeping instead.
func (d *Desc) ClearPending(opid int) bool {
	return d.pending[opid].CompareAndSwap(true, false)
}

// Result returns the cached terminal result for op i, if any op has
// already recorded one.
func (d *Desc) Result(opid int) (*Result, bool) {
	r := d.results[opid].Load()
	return r, r != nil
}

// SetResult publishes op i's terminal result. Safe to call from multiple
// helpers racing on the same op: each call replaces the stored result, so
// later Result() calls see whichever publish landed last.
func (d *Desc) SetResult(opid int, r Result) {
	d.results[opid].Store(&r)
}
