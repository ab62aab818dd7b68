package idstore

import (
	"sync"

	"github.com/ovis-games/ovis-ecs/id"
)

// IdMap pairs an IdStorage with a parallel value array, giving each live id
// exactly one stored V. Capacity tracks peak live count; removed slots are
// zeroed so dropped values release any references they hold (the Go
// analogue of the source's manual Drop that only touches live slots).
type IdMap[S id.Space, B id.Bits, V any] struct {
	mu      sync.RWMutex
	storage *IdStorage[S, B]
	values  []V
}

// NewIdMap creates an empty IdMap.
func NewIdMap[S id.Space, B id.Bits, V any]() *IdMap[S, B, V] {
	return &IdMap[S, B, V]{storage: NewIdStorage[S, B]()}
}

// Insert reserves a new id, stores v at it, and returns the id.
func (m *IdMap[S, B, V]) Insert(v V) id.Id[S, B] {
	m.mu.Lock()
	defer m.mu.Unlock()

	newID := m.storage.Reserve()
	idx := int(newID.Index())
	if idx == len(m.values) {
		m.values = append(m.values, v)
	} else {
		m.values[idx] = v
	}
	return newID
}

// Get returns the value stored at theID, if it is live.
func (m *IdMap[S, B, V]) Get(theID id.Id[S, B]) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var zero V
	if !m.storage.containsLocked(theID) {
		return zero, false
	}
	return m.values[theID.Index()], true
}

// GetMut exposes a pointer to the stored value for in-place mutation,
// requiring exclusive access to the map for the caller's duration (the
// caller must not retain the pointer past releasing whatever lock guards
// this IdMap at a higher level).
func (m *IdMap[S, B, V]) GetMut(theID id.Id[S, B]) (*V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.storage.containsLocked(theID) {
		return nil, false
	}
	return &m.values[theID.Index()], true
}

// Remove releases theID and returns the value that was stored there.
func (m *IdMap[S, B, V]) Remove(theID id.Id[S, B]) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	if !m.storage.containsLocked(theID) {
		return zero, false
	}
	idx := theID.Index()
	v := m.values[idx]
	m.values[idx] = zero
	m.storage.Free(theID)
	return v, true
}

// Contains reports whether theID is currently live in this map.
func (m *IdMap[S, B, V]) Contains(theID id.Id[S, B]) bool {
	return m.storage.Contains(theID)
}

// Len returns the number of live entries.
func (m *IdMap[S, B, V]) Len() int {
	return m.storage.Len()
}

// Each visits every live (id, value) pair in ascending index order, calling
// fn once per pair and stopping early if fn returns false.
func (m *IdMap[S, B, V]) Each(fn func(id.Id[S, B], V) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.storage.Each(func(theID id.Id[S, B]) bool {
		return fn(theID, m.values[theID.Index()])
	})
}
