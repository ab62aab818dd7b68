// Package scenestate holds the live world a Scene coordinates: entities,
// viewports, and per-resource-id storages, all behind the reader-writer
// discipline described for Scene State. It has no knowledge of jobs or
// scheduling — scheduler and job both depend on this package, not the
// other way around, so none of the three import cycles back.
package scenestate

import (
	"sync"

	"github.com/ovis-games/ovis-ecs/errs"
	"github.com/ovis-games/ovis-ecs/gpu"
	"github.com/ovis-games/ovis-ecs/id"
	"github.com/ovis-games/ovis-ecs/idstore"
	"github.com/ovis-games/ovis-ecs/resource"
)

// spawnQueueCapacity and despawnQueueCapacity bound the per-frame
// spawn/despawn channels. A job that queues more than this many requests
// in a single frame blocks until the post-frame drain runs — documented
// per §7's "document the choice" requirement rather than left unbounded.
const (
	spawnQueueCapacity   = 4096
	despawnQueueCapacity = 4096
)

// SceneState owns the live EntityId storage, the viewport map, and the
// sparse vector of resource storages indexed by index(ResourceId). All
// mutable substructures are guarded by reader-writer locks; resource
// storages are each independently lockable (Storage embeds sync.RWMutex)
// so jobs with disjoint resource access proceed in parallel.
type SceneState struct {
	// entities and viewports are each internally synchronized by
	// idstore/IdMap's own RWMutex; Viewports takes one snapshot under the
	// IdMap's read lock so the scheduler reads the viewport set once per
	// frame. viewportsMu additionally serializes AddViewport/RemoveViewport.
	viewportsMu sync.RWMutex

	entities  *idstore.IdStorage[id.EntitySpace, id.Bits8]
	viewports *idstore.IdMap[id.ViewportSpace, id.Bits8, *Viewport]

	registry  *resource.Registry
	resources []resource.Storage // index(ResourceId) -> storage, nil if unregistered-for-this-scene

	spawnRequests   chan struct{}
	despawnRequests chan id.EntityId
}

// New creates a SceneState for the given registry, allocating one storage
// instance per registration via its Factory (invoked once per Scene, given
// gpus, per the resource registry contract).
func New(registry *resource.Registry, gpus []*gpu.Device) *SceneState {
	s := &SceneState{
		entities:        idstore.NewIdStorage[id.EntitySpace, id.Bits8](),
		viewports:       idstore.NewIdMap[id.ViewportSpace, id.Bits8, *Viewport](),
		registry:        registry,
		spawnRequests:   make(chan struct{}, spawnQueueCapacity),
		despawnRequests: make(chan id.EntityId, despawnQueueCapacity),
	}

	registry.Each(func(reg *resource.Registration) bool {
		idx := int(reg.ID.Index())
		for len(s.resources) <= idx {
			s.resources = append(s.resources, nil)
		}
		s.resources[idx] = reg.Factory(gpus)
		return true
	})

	return s
}

// ResourceStorage returns the storage registered for rid in this scene.
// Absent is not an error: a job with an optional resource sees (nil,
// false) and proceeds; a job that requires the resource must surface the
// absence itself as an error.
func (s *SceneState) ResourceStorage(rid id.ResourceId) (resource.Storage, bool) {
	idx := int(rid.Index())
	if idx >= len(s.resources) || s.resources[idx] == nil {
		return nil, false
	}
	return s.resources[idx], true
}

// ResourceStorageFromLabel resolves a label through the registry, then
// looks up this scene's storage instance for it.
func (s *SceneState) ResourceStorageFromLabel(label string) (resource.Storage, bool) {
	rid, ok := s.registry.ResourceIDFromLabel(label)
	if !ok {
		return nil, false
	}
	return s.ResourceStorage(rid)
}

// Registry returns the resource registry this scene state was built from,
// used by scene ingestion to resolve component labels.
func (s *SceneState) Registry() *resource.Registry {
	return s.registry
}

// EntitiesContains reports whether eid currently names a live entity.
func (s *SceneState) EntitiesContains(eid id.EntityId) bool {
	return s.entities.Contains(eid)
}

// EntitiesLen returns the live entity count.
func (s *SceneState) EntitiesLen() int {
	return s.entities.Len()
}

// EntitiesEach visits every live entity id in index order.
func (s *SceneState) EntitiesEach(fn func(id.EntityId) bool) {
	s.entities.Each(fn)
}

// SpawnEntity reserves and returns a new entity id directly, bypassing the
// spawn-request channel. Used by scene ingestion (building entities from a
// JSON document, outside any frame) and by tests.
func (s *SceneState) SpawnEntity() id.EntityId {
	return s.entities.Reserve()
}

// DespawnEntity frees eid directly, bypassing the despawn-request channel.
func (s *SceneState) DespawnEntity(eid id.EntityId) {
	s.entities.Free(eid)
}

// SubmitSpawn queues an entity-spawn request from within a job's frame
// body; the new id is reserved during post-frame bookkeeping, not
// immediately, since entity storage is write-locked only between frames.
func (s *SceneState) SubmitSpawn() {
	s.spawnRequests <- struct{}{}
}

// SubmitDespawn queues eid for removal during post-frame bookkeeping.
func (s *SceneState) SubmitDespawn(eid id.EntityId) {
	s.despawnRequests <- eid
}

// DrainPostFrame processes queued spawn/despawn requests after a
// successful frame: despawns first (freeing ids), then spawns (reserving
// new ones), matching the frame protocol's documented order. Returns the
// newly spawned ids.
func (s *SceneState) DrainPostFrame() []id.EntityId {
	for {
		select {
		case eid := <-s.despawnRequests:
			s.entities.Free(eid)
			continue
		default:
		}
		break
	}

	var spawned []id.EntityId
	for {
		select {
		case <-s.spawnRequests:
			spawned = append(spawned, s.entities.Reserve())
			continue
		default:
		}
		break
	}
	return spawned
}

// Viewports returns a snapshot of the current live viewport ids, taken
// under the viewport map's own read lock — the frame protocol's "snapshot
// of the current viewport set... read lock" step.
func (s *SceneState) Viewports() []id.ViewportId {
	var snapshot []id.ViewportId
	s.viewports.Each(func(vid id.ViewportId, _ *Viewport) bool {
		snapshot = append(snapshot, vid)
		return true
	})
	return snapshot
}

// ViewportCount returns the number of live viewports, used by the
// scheduler's saturation rule (per_viewport_predecessors * viewport_count).
func (s *SceneState) ViewportCount() int {
	return s.viewports.Len()
}

// Viewport returns the live viewport for vid.
func (s *SceneState) Viewport(vid id.ViewportId) (*Viewport, bool) {
	return s.viewports.Get(vid)
}

// AddViewport registers a new viewport, returning its id. Viewports are
// written only between frames, per the concurrency model.
func (s *SceneState) AddViewport(v *Viewport) id.ViewportId {
	s.viewportsMu.Lock()
	defer s.viewportsMu.Unlock()
	return s.viewports.Insert(v)
}

// RemoveViewport releases vid. Viewports are written only between frames.
func (s *SceneState) RemoveViewport(vid id.ViewportId) {
	s.viewportsMu.Lock()
	defer s.viewportsMu.Unlock()
	s.viewports.Remove(vid)
}

// RequireResourceStorage is a convenience for job functions that cannot
// proceed without rid: it returns a JobRuntime error rather than a silent
// nil when the resource is unregistered for this scene.
func RequireResourceStorage(s *SceneState, rid id.ResourceId) (resource.Storage, error) {
	storage, ok := s.ResourceStorage(rid)
	if !ok {
		return nil, errs.New(errs.JobRuntime, errs.Here(), "required resource is not registered for this scene")
	}
	return storage, nil
}
