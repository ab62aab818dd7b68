package resource

import (
	"encoding/json"
	"sync"

	"github.com/ovis-games/ovis-ecs/errs"
	"github.com/ovis-games/ovis-ecs/id"
)

type reverseEntry struct {
	dense   uint32
	present bool
}

// SingleValueStorage is the sparse resource store single-value variant:
// a dense component vector plus forward/reverse arrays and a free list for
// reclaimed dense positions, as described for per-entity and per-viewport
// components. It does not lock internally — see Storage's doc comment.
type SingleValueStorage[S id.Space, B id.Bits, V any] struct {
	sync.RWMutex

	kind Kind

	dense     []V
	forward   []id.Id[S, B]
	denseLive []bool
	freeDense []uint32
	reverse   []reverseEntry
}

// NewSingleValueStorage creates an empty single-value store for the given
// resource kind (EntityComponent, ViewportComponent, or SceneComponent —
// a scene-level singleton is just a store with at most one live id).
func NewSingleValueStorage[S id.Space, B id.Bits, V any](kind Kind) *SingleValueStorage[S, B, V] {
	return &SingleValueStorage[S, B, V]{kind: kind}
}

func (s *SingleValueStorage[S, B, V]) Kind() Kind { return s.kind }
func (s *SingleValueStorage[S, B, V]) isStorage() {}

func (s *SingleValueStorage[S, B, V]) growReverse(idx uint32) {
	for uint32(len(s.reverse)) <= idx {
		s.reverse = append(s.reverse, reverseEntry{})
	}
}

// Insert writes v at theID, overwriting and returning the prior value if
// theID was already live.
func (s *SingleValueStorage[S, B, V]) Insert(theID id.Id[S, B], v V) (prev V, hadPrev bool) {
	idx := theID.Index()
	s.growReverse(idx)

	if s.reverse[idx].present {
		d := s.reverse[idx].dense
		prev = s.dense[d]
		s.dense[d] = v
		return prev, true
	}

	var d uint32
	if n := len(s.freeDense); n > 0 {
		d = s.freeDense[n-1]
		s.freeDense = s.freeDense[:n-1]
	} else {
		d = uint32(len(s.dense))
		var zero V
		var zeroID id.Id[S, B]
		s.dense = append(s.dense, zero)
		s.forward = append(s.forward, zeroID)
		s.denseLive = append(s.denseLive, false)
	}

	s.dense[d] = v
	s.forward[d] = theID
	s.denseLive[d] = true
	s.reverse[idx] = reverseEntry{dense: d, present: true}

	var zero V
	return zero, false
}

// Get returns the value stored at theID, if live.
func (s *SingleValueStorage[S, B, V]) Get(theID id.Id[S, B]) (*V, bool) {
	idx := theID.Index()
	if idx >= uint32(len(s.reverse)) || !s.reverse[idx].present {
		return nil, false
	}
	return &s.dense[s.reverse[idx].dense], true
}

// Remove releases theID, returning the value that was stored there.
func (s *SingleValueStorage[S, B, V]) Remove(theID id.Id[S, B]) (V, bool) {
	var zero V
	idx := theID.Index()
	if idx >= uint32(len(s.reverse)) || !s.reverse[idx].present {
		return zero, false
	}
	d := s.reverse[idx].dense
	v := s.dense[d]
	s.dense[d] = zero
	s.forward[d] = id.Id[S, B]{}
	s.denseLive[d] = false
	s.freeDense = append(s.freeDense, d)
	s.reverse[idx] = reverseEntry{}
	return v, true
}

// Each visits every live (id, value) pair in dense-position order, calling
// fn once per entry and stopping early if fn returns false.
func (s *SingleValueStorage[S, B, V]) Each(fn func(id.Id[S, B], *V) bool) {
	for d := range s.dense {
		if !s.denseLive[d] {
			continue
		}
		if !fn(s.forward[d], &s.dense[d]) {
			return
		}
	}
}

// Len returns the number of live entries.
func (s *SingleValueStorage[S, B, V]) Len() int {
	n := 0
	for _, live := range s.denseLive {
		if live {
			n++
		}
	}
	return n
}

// InsertJSON decodes data as a V and inserts it at eid — the erased
// deserializer entry point scene ingestion uses for unknown-at-compile-time
// component labels.
func (s *SingleValueStorage[S, B, V]) InsertJSON(theID id.Id[S, B], data []byte) error {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return errs.Wrap(errs.Configuration, errs.Here(), "failed to decode component value", err)
	}
	s.Insert(theID, v)
	return nil
}

// InsertDefault inserts the zero value of V at theID. Callers opt into this
// per label at registration (see RegisterEntityComponent's
// allowDefault parameter); not every component type is meaningful
// zero-initialized.
func (s *SingleValueStorage[S, B, V]) InsertDefault(theID id.Id[S, B]) {
	var zero V
	s.Insert(theID, zero)
}
