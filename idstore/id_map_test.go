package idstore_test

import (
	"testing"

	"github.com/ovis-games/ovis-ecs/id"
	"github.com/ovis-games/ovis-ecs/idstore"
	"github.com/stretchr/testify/require"
)

func TestIdMapRoundTrip(t *testing.T) {
	m := idstore.NewIdMap[entitySpace, id.Bits8, string]()
	got := m.Insert("hello")

	v, ok := m.Get(got)
	require.True(t, ok)
	require.Equal(t, "hello", v)

	_, ok = m.Remove(got)
	require.True(t, ok)

	_, ok = m.Get(got)
	require.False(t, ok)
}

func TestIdMapReInsertReturnsDistinctId(t *testing.T) {
	m := idstore.NewIdMap[entitySpace, id.Bits8, int]()
	a := m.Insert(1)
	m.Remove(a)
	b := m.Insert(2)
	require.NotEqual(t, a, b)

	v, ok := m.Get(b)
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestIdMapIterationCompleteness(t *testing.T) {
	m := idstore.NewIdMap[entitySpace, id.Bits8, int]()
	ids := make([]id.Id[entitySpace, id.Bits8], 0, 10000)
	for i := 0; i < 10000; i++ {
		ids = append(ids, m.Insert(i))
	}
	for i, theID := range ids {
		if i%2 == 0 {
			m.Remove(theID)
		}
	}

	seen := make(map[int]int)
	m.Each(func(theID id.Id[entitySpace, id.Bits8], v int) bool {
		seen[v]++
		return true
	})

	require.Len(t, seen, 5000)
	for i := 1; i < 10000; i += 2 {
		require.Equal(t, 1, seen[i])
	}
	require.Equal(t, 5000, m.Len())
}
