package resource_test

import (
	"testing"

	"github.com/ovis-games/ovis-ecs/id"
	"github.com/ovis-games/ovis-ecs/resource"
	"github.com/stretchr/testify/require"
)

func TestSingleValueStorageRoundTrip(t *testing.T) {
	s := resource.NewSingleValueStorage[id.EntitySpace, id.Bits8, int](resource.EntityComponent)
	e := id.New[id.EntitySpace, id.Bits8](3, 0)

	s.Lock()
	defer s.Unlock()

	_, had := s.Insert(e, 42)
	require.False(t, had)

	v, ok := s.Get(e)
	require.True(t, ok)
	require.Equal(t, 42, *v)

	prev, had := s.Insert(e, 99)
	require.True(t, had)
	require.Equal(t, 42, prev)

	v, ok = s.Get(e)
	require.True(t, ok)
	require.Equal(t, 99, *v)

	removed, ok := s.Remove(e)
	require.True(t, ok)
	require.Equal(t, 99, removed)

	_, ok = s.Get(e)
	require.False(t, ok)
}

func TestSingleValueStorageIterationAfterSparseRemoval(t *testing.T) {
	// S2: 10,000 inserts, remove every even-indexed id, iterate yields
	// exactly the 5,000 odd-indexed entries.
	s := resource.NewSingleValueStorage[id.EntitySpace, id.Bits8, int](resource.EntityComponent)
	s.Lock()
	defer s.Unlock()

	ids := make([]id.Id[id.EntitySpace, id.Bits8], 10000)
	for i := 0; i < 10000; i++ {
		ids[i] = id.New[id.EntitySpace, id.Bits8](uint32(i), 0)
		s.Insert(ids[i], i)
	}
	for i := 0; i < 10000; i += 2 {
		s.Remove(ids[i])
	}

	seen := make(map[int]bool)
	s.Each(func(got id.Id[id.EntitySpace, id.Bits8], v *int) bool {
		seen[*v] = true
		return true
	})

	require.Len(t, seen, 5000)
	for i := 1; i < 10000; i += 2 {
		require.True(t, seen[i])
	}
	require.Equal(t, 5000, s.Len())
}

func TestSingleValueStorageInsertDefaultInsertsZeroValue(t *testing.T) {
	s := resource.NewSingleValueStorage[id.EntitySpace, id.Bits8, position](resource.EntityComponent)
	s.Lock()
	defer s.Unlock()

	e := id.New[id.EntitySpace, id.Bits8](4, 0)
	s.InsertDefault(e)

	v, ok := s.Get(e)
	require.True(t, ok)
	require.Equal(t, position{}, *v)
}

func TestSingleValueStorageReInsertIntoFreedDenseSlotDoesNotLeak(t *testing.T) {
	s := resource.NewSingleValueStorage[id.EntitySpace, id.Bits8, int](resource.EntityComponent)
	s.Lock()
	defer s.Unlock()

	a := id.New[id.EntitySpace, id.Bits8](0, 0)
	b := id.New[id.EntitySpace, id.Bits8](1, 0)
	s.Insert(a, 1)
	s.Insert(b, 2)
	s.Remove(a)
	s.Insert(a, 3)

	require.Equal(t, 2, s.Len())
	v, ok := s.Get(a)
	require.True(t, ok)
	require.Equal(t, 3, *v)

	// Dense-order iteration shows a back at position 0: the freed slot was
	// reused rather than a new one appended after b.
	var order []id.Id[id.EntitySpace, id.Bits8]
	s.Each(func(got id.Id[id.EntitySpace, id.Bits8], _ *int) bool {
		order = append(order, got)
		return true
	})
	require.Equal(t, []id.Id[id.EntitySpace, id.Bits8]{a, b}, order)
}
