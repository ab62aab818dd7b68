package job

import (
	"sync"

	"github.com/ovis-games/ovis-ecs/id"
	"github.com/ovis-games/ovis-ecs/idstore"
)

// Registry is the process-wide job registry, made an explicit value for
// the same test-isolation reason as resource.Registry.
type Registry struct {
	mu   sync.RWMutex
	ids  *idstore.IdStorage[id.JobSpace, id.Bits8]
	byID map[uint32]*Job
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{
		ids:  idstore.NewIdStorage[id.JobSpace, id.Bits8](),
		byID: make(map[uint32]*Job),
	}
}

// Register allocates a JobId for fn, with the given kind, resource access,
// and per-viewport flag. Dependencies are attached afterward via
// AddDependency.
func (r *Registry) Register(kind Kind, fn Function, access []ResourceAccess, perViewport bool) id.JobId {
	r.mu.Lock()
	defer r.mu.Unlock()

	newID := r.ids.Reserve()
	r.byID[newID.Raw()] = &Job{
		ID:             newID,
		Kind:           kind,
		Function:       fn,
		Predecessors:   make(map[id.JobId]struct{}),
		ResourceAccess: access,
		PerViewport:    perViewport,
	}
	return newID
}

// AddDependency records that predecessor must complete before job. A no-op
// if the two jobs are of different kinds (Setup and Update run in
// separate, independent DAGs) — mirroring the source's same no-op rule
// rather than erroring, since cross-kind dependencies are simply
// meaningless, not malformed.
func (r *Registry) AddDependency(job, predecessor id.JobId) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, jOK := r.byID[job.Raw()]
	p, pOK := r.byID[predecessor.Raw()]
	if !jOK || !pOK || j.Kind != p.Kind {
		return
	}
	j.Predecessors[predecessor] = struct{}{}
}

// Lookup returns the full Job for id.
func (r *Registry) Lookup(jobID id.JobId) (*Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.byID[jobID.Raw()]
	return j, ok
}

// JobsOfKind returns every registered job of kind, in registration order.
// Used by Scheduler construction to build one DAG per kind.
func (r *Registry) JobsOfKind(kind Kind) []*Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var jobs []*Job
	r.ids.Each(func(jobID id.JobId) bool {
		j := r.byID[jobID.Raw()]
		if j.Kind == kind {
			jobs = append(jobs, j)
		}
		return true
	})
	return jobs
}

// Jobs returns every registered job, regardless of kind.
func (r *Registry) Jobs() []*Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	jobs := make([]*Job, 0, len(r.byID))
	r.ids.Each(func(jobID id.JobId) bool {
		jobs = append(jobs, r.byID[jobID.Raw()])
		return true
	})
	return jobs
}
