package txn

// NodeDesc is stamped on a vertex or edge node by the last transaction
// that examined or modified it. OpID is the index of the op within
// Desc.Ops that produced this stamp.
//
// OverrideAsFind and OverrideAsDelete let a mid-transaction node appear
// to concurrent traversers as logically present/absent regardless of
// what Desc.Ops[OpID] actually says — used by InsertEdge's guard CAS
// (spec §4.3) so a concurrent vertex delete cannot race the publish of
// a brand-new edge.
type NodeDesc struct {
	Desc             *Desc
	OpID             int
	OverrideAsFind   bool
	OverrideAsDelete bool
}

// IsLogicallyPresent implements the presence rule from spec §3: a node
// is logically present iff its descriptor's transaction is Committed and
// the op at OpID is an insertion (or OverrideAsFind is set), or its
// descriptor's transaction is not Committed and the op is a deletion (or
// OverrideAsDelete is set).
//
// isInsertOp classifies Ops[OpID]: true for Insert/InsertEdge, false for
// Delete/DeleteEdge/Find. A successful Find stamps OverrideAsFind, so a
// committed Find stamp reads as present; a Find that fails leaves the
// existing stamp in place.
func (nd *NodeDesc) IsLogicallyPresent(isInsertOp func(opid int) bool) bool {
	if nd == nil {
		return false
	}
	if nd.Desc.Status() == Committed {
		return nd.OverrideAsFind || isInsertOp(nd.OpID)
	}
	return nd.OverrideAsDelete || !isInsertOp(nd.OpID)
}
