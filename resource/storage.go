// Package resource implements the resource registry and the two sparse
// resource store families (single-value and slice) that back components,
// scene/viewport singletons, and events.
package resource

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/ovis-games/ovis-ecs/gpu"
	"github.com/ovis-games/ovis-ecs/id"
)

// Kind distinguishes the four resource categories named by the registry
// contract.
type Kind int

const (
	Event Kind = iota
	SceneComponent
	EntityComponent
	ViewportComponent
)

func (k Kind) String() string {
	switch k {
	case Event:
		return "event"
	case SceneComponent:
		return "scene-component"
	case EntityComponent:
		return "entity-component"
	case ViewportComponent:
		return "viewport-component"
	default:
		return "unknown"
	}
}

// Storage is the closed set of storage families a registered resource may
// use. The interface embeds sync.Locker plus the reader half so that the
// scheduler — not the storage itself — owns lock acquisition: a job
// declaring Read(R) causes the scheduler to RLock the storage before
// invoking the job function, Write/ReadWrite causes Lock. Storage methods
// below therefore assume the appropriate lock is already held and never
// lock internally; calling them without holding the right lock is a
// programmer error, exactly like the id-space assertions in idstore.
type Storage interface {
	sync.Locker
	RLock()
	RUnlock()

	// Kind reports which resource category this storage instance backs.
	Kind() Kind

	// isStorage seals the interface to this package's two implementations
	// (SingleValueStorage and SliceStorage), per the Design Notes
	// direction to use a tagged-variant wrapper over a closed set rather
	// than unbounded dynamic dispatch.
	isStorage()
}

// BindingProvider is implemented by storages that can describe themselves
// to a GPU bind group; Scene State collects these entries on demand
// (scenestate.ResourceBindGroupLayoutEntries/ResourceBindGroupEntries).
// Not every storage is GPU-backed, so callers type-assert for this
// interface rather than requiring it; neither SingleValueStorage nor
// SliceStorage implements it.
type BindingProvider interface {
	BindGroupLayoutEntries() []wgpu.BindGroupLayoutEntry
	BindGroupEntries(gpuIndex int) []wgpu.BindGroupEntry
}

// EntityJSONInserter is implemented by any EntityComponent storage
// (SingleValueStorage[id.EntitySpace, id.Bits8, V] for any V satisfies
// this structurally). Scene JSON ingestion type-asserts for this to
// decode an erased component value into a freshly-reserved entity without
// knowing V at the ingestion call site, and to fall back to the type's
// zero value for a label an ingested entity omits when its resource was
// registered with allowDefault.
type EntityJSONInserter interface {
	InsertJSON(eid id.EntityId, data []byte) error
	InsertDefault(eid id.EntityId)
}

// Factory allocates a fresh storage instance for one Scene, given the list
// of GPUs attached to that scene. Invoked exactly once per Scene per
// registered resource.
type Factory func(gpus []*gpu.Device) Storage
