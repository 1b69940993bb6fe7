package lftgraph

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"go.uber.org/zap"

	"github.com/lftgraph/lftgraph/internal/txn"
)

// EdgeTriple is one input edge: source, destination, and an optional
// weight (spec §4.5 step 1; HasWeight false means "assign one").
type EdgeTriple struct {
	Src, Dst  uint32
	Weight    Weight
	HasWeight bool
}

// ErrZeroEndpoint names the condition of a triple naming the reserved
// sentinel id 0 as an endpoint. Build does not return it: its per-edge
// ingestion loop skips such triples without error (spec §4.5 step 3).
var ErrZeroEndpoint = errors.New("lftgraph: edge triple names reserved vertex id 0")

// ErrMissingWeight is returned when NeedsWeights is set, a triple lacks
// one, and no random source was supplied to synthesize it.
var ErrMissingWeight = errors.New("lftgraph: triple missing weight and no random source supplied")

// Build constructs a Store from n (exclusive upper bound on vertex ids,
// spec §4.5 step 2 inserts every id in [1, n)) and a list of edge
// triples, following the builder's four steps: weight synthesis,
// vertex insertion, edge linking per symmetrize/invert, and squish.
//
// rng supplies uniform-random weights in [1, 256) when cfg.NeedsWeights
// is set and a triple omits one (spec §4.5 step 1); pass nil if every
// triple already carries a weight, or if cfg.NeedsWeights is false.
func Build(n int, triples []EdgeTriple, cfg BuildConfig, rng *rand.Rand, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	directed := cfg.Directed()
	s := NewStore(directed, directed && cfg.Invert, logger)

	for id := 1; id < n; id++ {
		if st := s.AddVertex(uint32(id), nil); st != txn.Committed {
			return nil, fmt.Errorf("lftgraph: insert vertex %d: %v", id, st)
		}
	}

	for _, t := range triples {
		if t.Src == 0 || t.Dst == 0 {
			continue // spec §4.5 step 3: 0 is the sentinel, skip silently
		}
		w := t.Weight
		if cfg.NeedsWeights && !t.HasWeight {
			if rng == nil {
				return nil, ErrMissingWeight
			}
			w = Weight(1 + rng.IntN(255))
		}

		if cfg.Symmetrize {
			if st := s.AddEdge(t.Src, t.Dst, w, false); st == txn.Aborted {
				return nil, fmt.Errorf("lftgraph: link %d->%d: aborted", t.Src, t.Dst)
			}
			if st := s.AddEdge(t.Dst, t.Src, w, false); st == txn.Aborted {
				return nil, fmt.Errorf("lftgraph: link %d->%d: aborted", t.Dst, t.Src)
			}
			continue
		}

		if st := s.AddEdge(t.Src, t.Dst, w, false); st == txn.Aborted {
			return nil, fmt.Errorf("lftgraph: link %d->%d: aborted", t.Src, t.Dst)
		}
		if cfg.Invert {
			// directionIn routes this into t.Dst's in_edges container
			// (endpoint() resolves owner from Dst when DirectionIn is set),
			// recording t.Src as the predecessor — do not swap the
			// arguments the way the undirected out_edges call above does.
			if st := s.AddEdge(t.Src, t.Dst, w, true); st == txn.Aborted {
				return nil, fmt.Errorf("lftgraph: link %d->%d (in): aborted", t.Src, t.Dst)
			}
		}
	}

	Squish(s)
	return s, nil
}

// Squish sorts, deduplicates, and removes self-references from every
// vertex's out_edges (and, for directed graphs with INVERT, in_edges),
// per spec §4.5 step 4 / the GLOSSARY's Squish entry.
//
// MDList already stores entries key-sorted and deduplicated by
// construction (Insert on an existing key is a no-op and iteration is
// key-ordered), so the only residual work is dropping self-loops —
// still run through ReplaceOutEdges/ReplaceInEdges so the resulting
// container is a fresh, compacted MDList rather than one carrying
// DELINV tombstones from whatever churn produced it.
func Squish(s *Store) {
	for v := range s.Vertices() {
		squishOne(s, v, false)
		if s.directed && s.InDegree(v) > 0 {
			squishOne(s, v, true)
		}
	}
}

func squishOne(s *Store, v uint32, directionIn bool) {
	var entries []EdgeEntry
	neigh := s.OutNeigh(v)
	if directionIn {
		neigh = s.InNeigh(v)
	}
	for nb, w := range neigh {
		if nb == v {
			continue // self-loop, dropped per spec invariant 1
		}
		entries = append(entries, EdgeEntry{Neighbor: nb, Weight: w})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Neighbor < entries[j].Neighbor })

	if directionIn {
		s.ReplaceInEdges(v, entries)
	} else {
		s.ReplaceOutEdges(v, entries)
	}
}
