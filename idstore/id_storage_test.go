package idstore_test

import (
	"testing"

	"github.com/ovis-games/ovis-ecs/id"
	"github.com/ovis-games/ovis-ecs/idstore"
	"github.com/stretchr/testify/require"
)

type entitySpace = id.EntitySpace

func TestIdStorageReserveFreeReserve(t *testing.T) {
	// S1: reserve x3 -> [{0,0},{1,0},{2,0}]; free({1,0}); reserve -> {1,1};
	// contains({1,0}) == false afterward.
	s := idstore.NewIdStorage[entitySpace, id.Bits8]()

	a := s.Reserve()
	b := s.Reserve()
	c := s.Reserve()

	require.Equal(t, uint32(0), a.Index())
	require.Equal(t, uint32(0), a.Version())
	require.Equal(t, uint32(1), b.Index())
	require.Equal(t, uint32(2), c.Index())

	s.Free(b)
	require.False(t, s.Contains(b))

	reused := s.Reserve()
	require.Equal(t, uint32(1), reused.Index())
	require.Equal(t, uint32(1), reused.Version())
	require.NotEqual(t, b, reused)
}

func TestIdStorageFreshnessWrapsAfterFullVersionCycle(t *testing.T) {
	s := idstore.NewIdStorage[entitySpace, id.Bits8]()
	first := s.Reserve()
	s.Free(first)

	var last id.Id[entitySpace, id.Bits8]
	for v := 0; v < 255; v++ {
		last = s.Reserve()
		s.Free(last)
	}
	wrapped := s.Reserve()
	require.Equal(t, first, wrapped, "version space should wrap back to the original id after 256 reserve/free cycles")
}

func TestIdStorageFreeOfNonLiveIdPanics(t *testing.T) {
	s := idstore.NewIdStorage[entitySpace, id.Bits8]()
	stale := id.New[entitySpace, id.Bits8](4, 0)
	require.Panics(t, func() { s.Free(stale) })
}

func TestIdStorageLenAndEach(t *testing.T) {
	s := idstore.NewIdStorage[entitySpace, id.Bits8]()
	var ids []id.Id[entitySpace, id.Bits8]
	for i := 0; i < 5; i++ {
		ids = append(ids, s.Reserve())
	}
	s.Free(ids[1])
	s.Free(ids[3])
	require.Equal(t, 3, s.Len())

	var seen []id.Id[entitySpace, id.Bits8]
	s.Each(func(got id.Id[entitySpace, id.Bits8]) bool {
		seen = append(seen, got)
		return true
	})
	require.ElementsMatch(t, []id.Id[entitySpace, id.Bits8]{ids[0], ids[2], ids[4]}, seen)
}
