package scenestate_test

import (
	"testing"

	"github.com/ovis-games/ovis-ecs/id"
	"github.com/ovis-games/ovis-ecs/resource"
	"github.com/ovis-games/ovis-ecs/scenestate"
	"github.com/stretchr/testify/require"
)

type velocity struct{ X, Y float32 }

func TestSceneStateResourceStorageFromLabel(t *testing.T) {
	reg := resource.NewRegistry()
	_, err := resource.RegisterEntityComponent[velocity](reg, "velocity", false)
	require.NoError(t, err)

	s := scenestate.New(reg, nil)

	storage, ok := s.ResourceStorageFromLabel("velocity")
	require.True(t, ok)
	require.Equal(t, resource.EntityComponent, storage.Kind())

	_, ok = s.ResourceStorageFromLabel("nonexistent")
	require.False(t, ok)
}

func TestSceneStateSpawnDespawnDrain(t *testing.T) {
	// S6: 3 spawns + 1 despawn of an existing entity -> net +2.
	reg := resource.NewRegistry()
	s := scenestate.New(reg, nil)

	existing := s.SpawnEntity()
	before := s.EntitiesLen()

	s.SubmitSpawn()
	s.SubmitSpawn()
	s.SubmitSpawn()
	s.SubmitDespawn(existing)

	spawned := s.DrainPostFrame()
	require.Len(t, spawned, 3)
	require.Equal(t, before+2, s.EntitiesLen())
	require.False(t, s.EntitiesContains(existing))
}

func TestSceneStateViewportLifecycle(t *testing.T) {
	reg := resource.NewRegistry()
	s := scenestate.New(reg, nil)

	v := scenestate.NewViewport(nil, nil)
	vid := s.AddViewport(v)
	require.Equal(t, 1, s.ViewportCount())

	got, ok := s.Viewport(vid)
	require.True(t, ok)
	require.Same(t, v, got)

	s.RemoveViewport(vid)
	require.Equal(t, 0, s.ViewportCount())
}

func TestSceneStateRequireResourceStorageErrorsWhenUnregistered(t *testing.T) {
	reg := resource.NewRegistry()
	s := scenestate.New(reg, nil)

	_, err := scenestate.RequireResourceStorage(s, id.New[id.ResourceSpace, id.Bits8](0, 0))
	require.Error(t, err)
}
