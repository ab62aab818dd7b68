package resource

import (
	"fmt"
	"sync"

	"github.com/ovis-games/ovis-ecs/errs"
	"github.com/ovis-games/ovis-ecs/gpu"
	"github.com/ovis-games/ovis-ecs/id"
	"github.com/ovis-games/ovis-ecs/idstore"
)

// Registration is everything the registry records about one resource:
// its kind, label, and the factory a Scene uses to allocate its storage
// instance. AllowDefault and the entity-component JSON decoder are only
// meaningful for EntityComponent kind resources.
type Registration struct {
	ID           id.ResourceId
	Kind         Kind
	Label        string
	Factory      Factory
	AllowDefault bool
}

// Registry is the process-wide resource registry, made an explicit value
// per the Design Notes' preference (threaded through scene construction
// instead of global mutable state) so tests get isolation between scenes
// without sharing registration state.
type Registry struct {
	mu      sync.RWMutex
	ids     *idstore.IdStorage[id.ResourceSpace, id.Bits8]
	byID    map[uint32]*Registration
	byLabel map[string]id.ResourceId
}

// NewRegistry creates an empty resource registry.
func NewRegistry() *Registry {
	return &Registry{
		ids:     idstore.NewIdStorage[id.ResourceSpace, id.Bits8](),
		byID:    make(map[uint32]*Registration),
		byLabel: make(map[string]id.ResourceId),
	}
}

// Register allocates a ResourceId for (kind, label, factory). A duplicate
// label is a configuration error: it would make ResourceIDFromLabel
// ambiguous.
func (r *Registry) Register(kind Kind, label string, factory Factory) (id.ResourceId, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byLabel[label]; exists {
		return id.ResourceId{}, errs.New(errs.Configuration, errs.Here(),
			fmt.Sprintf("resource label %q already registered", label))
	}

	newID := r.ids.Reserve()
	r.byID[newID.Raw()] = &Registration{ID: newID, Kind: kind, Label: label, Factory: factory}
	r.byLabel[label] = newID
	return newID, nil
}

// RegisterEntityComponent is Register specialized for EntityComponent
// storages, additionally recording whether InsertDefault is a valid
// ingestion fallback for an entity that omits this label.
func RegisterEntityComponent[V any](r *Registry, label string, allowDefault bool) (id.ResourceId, error) {
	newID, err := r.Register(EntityComponent, label, func(gpus []*gpu.Device) Storage {
		return NewSingleValueStorage[id.EntitySpace, id.Bits8, V](EntityComponent)
	})
	if err != nil {
		return id.ResourceId{}, err
	}

	r.mu.Lock()
	r.byID[newID.Raw()].AllowDefault = allowDefault
	r.mu.Unlock()
	return newID, nil
}

// RegisterViewportComponent is Register specialized for ViewportComponent
// storages (per-viewport singleton data, e.g. a resolved render target
// descriptor).
func RegisterViewportComponent[V any](r *Registry, label string) (id.ResourceId, error) {
	return r.Register(ViewportComponent, label, func(gpus []*gpu.Device) Storage {
		return NewSingleValueStorage[id.ViewportSpace, id.Bits8, V](ViewportComponent)
	})
}

// RegisterSceneComponent is Register specialized for SceneComponent
// storages — a scene-wide singleton addressed by its own ResourceId rather
// than an entity or viewport id.
func RegisterSceneComponent[V any](r *Registry, label string) (id.ResourceId, error) {
	return r.Register(SceneComponent, label, func(gpus []*gpu.Device) Storage {
		return NewSingleValueStorage[id.ResourceSpace, id.Bits8, V](SceneComponent)
	})
}

// ResourceIDFromLabel looks up a resource's id by its registered label.
func (r *Registry) ResourceIDFromLabel(label string) (id.ResourceId, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rid, ok := r.byLabel[label]
	return rid, ok
}

// Lookup returns the full registration for rid.
func (r *Registry) Lookup(rid id.ResourceId) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.byID[rid.Raw()]
	return reg, ok
}

// Each visits every registration, in registration order by id index.
func (r *Registry) Each(fn func(*Registration) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.ids.Each(func(rid id.ResourceId) bool {
		return fn(r.byID[rid.Raw()])
	})
}
