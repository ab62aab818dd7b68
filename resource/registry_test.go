package resource_test

import (
	"testing"

	"github.com/ovis-games/ovis-ecs/resource"
	"github.com/stretchr/testify/require"
)

type position struct {
	X, Y float32
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := resource.NewRegistry()

	rid, err := resource.RegisterEntityComponent[position](r, "position", false)
	require.NoError(t, err)

	found, ok := r.ResourceIDFromLabel("position")
	require.True(t, ok)
	require.Equal(t, rid, found)

	reg, ok := r.Lookup(rid)
	require.True(t, ok)
	require.Equal(t, resource.EntityComponent, reg.Kind)
	require.Equal(t, "position", reg.Label)
}

func TestRegistryDuplicateLabelIsConfigurationError(t *testing.T) {
	r := resource.NewRegistry()
	_, err := resource.RegisterEntityComponent[position](r, "position", false)
	require.NoError(t, err)

	_, err = resource.RegisterEntityComponent[position](r, "position", false)
	require.Error(t, err)
}

func TestRegistryUnknownLabelNotFound(t *testing.T) {
	r := resource.NewRegistry()
	_, ok := r.ResourceIDFromLabel("nonexistent")
	require.False(t, ok)
}
