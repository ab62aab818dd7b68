package resource

import (
	"sync"

	"github.com/ovis-games/ovis-ecs/id"
)

// block records one id's slice allocation within the backing array: a
// contiguous run starting at offset, with size live elements out of
// capacity reserved ones.
type block struct {
	offset, size, capacity uint32
}

// SliceStorage is the sparse resource store slice variant: each id maps to
// a contiguous block of zero or more values, backed by one growable array
// and a coalescing first-fit free-block map. Like SingleValueStorage it
// does not lock internally.
type SliceStorage[S id.Space, B id.Bits, V any] struct {
	sync.RWMutex

	kind Kind

	data       []V
	blocks     map[uint32]block
	freeBlocks map[uint32]uint32 // offset -> size
}

// NewSliceStorage creates an empty slice store.
func NewSliceStorage[S id.Space, B id.Bits, V any](kind Kind) *SliceStorage[S, B, V] {
	return &SliceStorage[S, B, V]{
		kind:       kind,
		blocks:     make(map[uint32]block),
		freeBlocks: make(map[uint32]uint32),
	}
}

func (s *SliceStorage[S, B, V]) Kind() Kind { return s.kind }
func (s *SliceStorage[S, B, V]) isStorage() {}

// allocateBlock finds a first-fit free block of at least size, splitting
// off any remainder, or grows the backing array if none fits.
func (s *SliceStorage[S, B, V]) allocateBlock(size uint32) uint32 {
	best, found := uint32(0), false
	for offset, fsize := range s.freeBlocks {
		if fsize >= size && (!found || offset < best) {
			best, found = offset, true
		}
	}
	if found {
		fsize := s.freeBlocks[best]
		delete(s.freeBlocks, best)
		if fsize > size {
			s.freeBlocks[best+size] = fsize - size
		}
		return best
	}
	offset := uint32(len(s.data))
	var zero V
	for i := uint32(0); i < size; i++ {
		s.data = append(s.data, zero)
	}
	return offset
}

// freeBlock returns a block's full capacity to the free map, merging with
// an adjacent free block on either side so adjacent free space never
// fragments indefinitely.
func (s *SliceStorage[S, B, V]) freeBlock(b block) {
	offset, size := b.offset, b.capacity

	if nextSize, ok := s.freeBlocks[offset+size]; ok {
		delete(s.freeBlocks, offset+size)
		size += nextSize
	}
	for prevOffset, prevSize := range s.freeBlocks {
		if prevOffset+prevSize == offset {
			delete(s.freeBlocks, prevOffset)
			offset = prevOffset
			size += prevSize
			break
		}
	}

	var zero V
	for i := uint32(0); i < b.capacity; i++ {
		s.data[b.offset+i] = zero
	}
	s.freeBlocks[offset] = size
}

// InsertSlice replaces theID's block with values, freeing any prior block.
func (s *SliceStorage[S, B, V]) InsertSlice(theID id.Id[S, B], values []V) {
	idx := theID.Index()
	if old, ok := s.blocks[idx]; ok {
		s.freeBlock(old)
	}
	size := uint32(len(values))
	offset := s.allocateBlock(size)
	copy(s.data[offset:offset+size], values)
	s.blocks[idx] = block{offset: offset, size: size, capacity: size}
}

// Get returns the live slice stored at theID.
func (s *SliceStorage[S, B, V]) Get(theID id.Id[S, B]) ([]V, bool) {
	b, ok := s.blocks[theID.Index()]
	if !ok {
		return nil, false
	}
	return s.data[b.offset : b.offset+b.size], true
}

// Push appends v to theID's block, growing capacity in place into an
// adjacent free block when possible, or reallocating and bulk-moving the
// block's contents otherwise.
func (s *SliceStorage[S, B, V]) Push(theID id.Id[S, B], v V) {
	idx := theID.Index()
	b, ok := s.blocks[idx]
	if !ok {
		s.InsertSlice(theID, []V{v})
		return
	}
	if b.size < b.capacity {
		s.data[b.offset+b.size] = v
		b.size++
		s.blocks[idx] = b
		return
	}

	newCap := b.capacity * 2
	if newCap == 0 {
		newCap = 1
	}
	grow := newCap - b.capacity

	if freeSize, ok := s.freeBlocks[b.offset+b.capacity]; ok && freeSize >= grow {
		delete(s.freeBlocks, b.offset+b.capacity)
		if freeSize > grow {
			s.freeBlocks[b.offset+b.capacity+grow] = freeSize - grow
		}
		var zero V
		for uint32(len(s.data)) < b.offset+newCap {
			s.data = append(s.data, zero)
		}
		b.capacity = newCap
		s.data[b.offset+b.size] = v
		b.size++
		s.blocks[idx] = b
		return
	}

	newOffset := s.allocateBlock(newCap)
	copy(s.data[newOffset:newOffset+b.size], s.data[b.offset:b.offset+b.size])
	s.freeBlock(block{offset: b.offset, capacity: b.capacity})
	b.offset = newOffset
	b.capacity = newCap
	s.data[b.offset+b.size] = v
	b.size++
	s.blocks[idx] = b
}

// Remove releases theID's block back to the free map.
func (s *SliceStorage[S, B, V]) Remove(theID id.Id[S, B]) bool {
	idx := theID.Index()
	b, ok := s.blocks[idx]
	if !ok {
		return false
	}
	delete(s.blocks, idx)
	s.freeBlock(b)
	return true
}
