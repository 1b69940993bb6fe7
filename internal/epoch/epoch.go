// Package epoch implements the deferred-reclamation discipline spec §3
// and §5 require: a reader pins an epoch for the duration of a
// traversal, a writer pins an epoch before any CAS whose target it will
// later dereference, and retired nodes are freed only once no pinned
// epoch can still observe them.
//
// This is a three-bag epoch reclaimer in the style of crossbeam-epoch,
// simplified to a single global pin counter rather than per-thread
// hazard slots: no ecosystem package in the retrieved corpus implements
// epoch-based GC, so this is built directly against spec §3/§5/§9 using
// only a sync.Mutex.
package epoch

import "sync"

// Manager is the process-wide epoch reclamation state. Per spec §9
// ("Global mutable state"), exactly one Manager is live for the lifetime
// of a Store.
type Manager struct {
	mu    sync.Mutex
	epoch uint64
	// pinned counts outstanding Guards across all epochs. A Guard taken
	// out while already holding one (a helped transaction traversing
	// while the helper is itself pinned) simply adds another count —
	// this is the reentrant pin the original's epoch manager allows.
	pinned int64
	bags   [3][]func()
}

// NewManager constructs an empty epoch manager.
func NewManager() *Manager {
	return &Manager{}
}

// Guard is a single pinned epoch, held for the duration of one
// traversal. A traversal started while the caller already holds a Guard
// takes out another one, which adds to the pin count.
type Guard struct {
	mgr   *Manager
	epoch uint64
}

// Pin registers the caller as observing the current epoch. The returned
// Guard must be released with Unpin when the traversal completes.
func (m *Manager) Pin() *Guard {
	m.mu.Lock()
	m.pinned++
	e := m.epoch
	m.mu.Unlock()
	return &Guard{mgr: m, epoch: e}
}

// Epoch returns the epoch this guard pinned.
func (g *Guard) Epoch() uint64 {
	return g.epoch
}

// Unpin releases the guard. It is the caller's responsibility to stop
// dereferencing any pointer obtained while pinned once Unpin returns.
func (g *Guard) Unpin() {
	m := g.mgr
	m.mu.Lock()
	m.pinned--
	stale := m.pinned == 0
	m.mu.Unlock()
	if stale {
		m.tryAdvance()
	}
}

// Retire schedules fn to run once no guard can still observe the node(s)
// it frees. fn is batched into the current epoch's bag; bags are only
// drained once the global epoch has advanced past them on both sides.
func (m *Manager) Retire(fn func()) {
	m.mu.Lock()
	idx := m.epoch % 3
	m.bags[idx] = append(m.bags[idx], fn)
	empty := m.pinned == 0
	m.mu.Unlock()
	if empty {
		m.tryAdvance()
	}
}

// tryAdvance moves the global epoch forward by one and frees the bag
// that is now two epochs stale, but only while no guard is pinned —
// a pinned guard from an older epoch could still be mid-traversal over
// a node a newer retire() call wants to free.
func (m *Manager) tryAdvance() {
	m.mu.Lock()
	if m.pinned != 0 {
		m.mu.Unlock()
		return
	}
	next := (m.epoch + 1) % 3
	free := m.bags[next]
	m.bags[next] = nil
	m.epoch++
	m.mu.Unlock()

	for _, fn := range free {
		fn()
	}
}

// Quiesce forces reclamation of everything currently retired. Intended
// for tests and for a clean shutdown, where callers know no concurrent
// traversal is in flight.
func (m *Manager) Quiesce() {
	m.tryAdvance()
	m.tryAdvance()
	m.tryAdvance()
}
