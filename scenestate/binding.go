package scenestate

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/ovis-games/ovis-ecs/resource"
)

// ResourceBindGroupLayoutEntries concatenates the bind group layout entries
// of every registered storage that implements resource.BindingProvider.
// The entries are computed from the scene's storages on each call; nothing
// is precomputed or cached. Storages that don't implement the interface are
// skipped; neither SingleValueStorage nor SliceStorage implements it, so a
// scene holding only those storages gets no entries.
func (s *SceneState) ResourceBindGroupLayoutEntries() []wgpu.BindGroupLayoutEntry {
	var entries []wgpu.BindGroupLayoutEntry
	for _, storage := range s.resources {
		if storage == nil {
			continue
		}
		if provider, ok := storage.(resource.BindingProvider); ok {
			entries = append(entries, provider.BindGroupLayoutEntries()...)
		}
	}
	return entries
}

// ResourceBindGroupEntries is ResourceBindGroupLayoutEntries' counterpart
// for the per-GPU bind group entries themselves, likewise computed on each
// call.
func (s *SceneState) ResourceBindGroupEntries(gpuIndex int) []wgpu.BindGroupEntry {
	var entries []wgpu.BindGroupEntry
	for _, storage := range s.resources {
		if storage == nil {
			continue
		}
		if provider, ok := storage.(resource.BindingProvider); ok {
			entries = append(entries, provider.BindGroupEntries(gpuIndex)...)
		}
	}
	return entries
}
