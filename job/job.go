// Package job defines the registered job type the scheduler executes: an
// immutable function plus its declared predecessors and resource access.
package job

import (
	"github.com/ovis-games/ovis-ecs/id"
	"github.com/ovis-games/ovis-ecs/scenestate"
)

// Kind distinguishes the two job phases a Scene schedules independently —
// each gets its own Scheduler instance over its own DAG.
type Kind int

const (
	Setup Kind = iota
	Update
)

func (k Kind) String() string {
	if k == Setup {
		return "setup"
	}
	return "update"
}

// AccessMode is how a job touches one declared resource.
type AccessMode int

const (
	Read AccessMode = iota
	Write
	ReadWrite
)

// ResourceAccess declares one resource a job touches and how. The
// scheduler uses this to decide whether to RLock or Lock the resource's
// storage before invoking the job, and to validate (at scheduler
// construction) that any two jobs sharing a write-accessed resource are
// connected by a DAG path.
type ResourceAccess struct {
	Resource id.ResourceId
	Mode     AccessMode
}

// Function is a job's body: given this invocation's SystemResources and
// the scene's live state, do work and report an error if it fails.
type Function func(sys scenestate.SystemResources, state *scenestate.SceneState) error

// Job is immutable after registration.
type Job struct {
	ID             id.JobId
	Kind           Kind
	Function       Function
	Predecessors   map[id.JobId]struct{}
	ResourceAccess []ResourceAccess

	// PerViewport makes this job's ResourceAccess and Function execute once
	// per live viewport per frame rather than once per frame. Explicit per
	// job, per the Design Notes' redesign direction (the source treated
	// per-viewport-ness as implicit for every job).
	PerViewport bool
}
