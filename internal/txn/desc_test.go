package txn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescCommitAbortAreExclusive(t *testing.T) {
	d := New([]Operator{{Type: OpInsert, Key: 1}})
	require.Equal(t, Active, d.Status())

	require.True(t, d.TryCommit())
	require.False(t, d.TryAbort(), "abort must fail once committed")
	require.Equal(t, Committed, d.Status())
}

func TestDescPendingClearedOnce(t *testing.T) {
	d := New([]Operator{{Type: OpDelete, Key: 1}})
	require.True(t, d.Pending(0))

	first := d.ClearPending(0)
	second := d.ClearPending(0)
	require.True(t, first)
	require.False(t, second, "only one thread may win the pending CAS")
	require.False(t, d.Pending(0))
}

func TestDescResultCache(t *testing.T) {
	d := New([]Operator{{Type: OpFind, Key: 1}})
	_, ok := d.Result(0)
	require.False(t, ok)

	d.SetResult(0, Result{Outcome: OutcomeFound})
	r, ok := d.Result(0)
	require.True(t, ok)
	require.Equal(t, OutcomeFound, r.Outcome)
}

func TestNodeDescLogicalPresence(t *testing.T) {
	d := New([]Operator{{Type: OpInsert, Key: 1}})
	isInsert := func(opid int) bool { return d.Ops[opid].Type == OpInsert || d.Ops[opid].Type == OpInsertEdge }

	nd := &NodeDesc{Desc: d, OpID: 0}
	require.False(t, nd.IsLogicallyPresent(isInsert), "active insert is not yet present")

	d.TryCommit()
	require.True(t, nd.IsLogicallyPresent(isInsert), "committed insert is present")
}
