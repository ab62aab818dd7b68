// Package scene is the top-level per-instance orchestrator: it owns a
// scene's state and its two job schedulers (one Setup DAG run once at
// construction, one Update DAG run every tick), and ingests JSON scene
// documents into entities.
package scene

import (
	"time"

	"github.com/ovis-games/ovis-ecs/gpu"
	"github.com/ovis-games/ovis-ecs/id"
	"github.com/ovis-games/ovis-ecs/job"
	"github.com/ovis-games/ovis-ecs/resource"
	"github.com/ovis-games/ovis-ecs/scenestate"
	"github.com/ovis-games/ovis-ecs/scheduler"
)

// Scene ties a live SceneState to the Setup and Update schedulers compiled
// from a shared job registry.
type Scene struct {
	state    *scenestate.SceneState
	setup    *scheduler.Scheduler
	update   *scheduler.Scheduler
	gameTime time.Duration

	setupRan bool

	viewportsChanged bool
}

// New builds a Scene's state from resourceRegistry and compiles its Setup
// and Update schedulers from jobRegistry, then immediately runs the Setup
// DAG once (per the source's "setup jobs run once when the scene is
// created" rule). A Configuration error from either scheduler's DAG
// validation, or a job-runtime error from the Setup run, aborts
// construction.
func New(resourceRegistry *resource.Registry, jobRegistry *job.Registry, gpus []*gpu.Device, schedulerOpts ...scheduler.Option) (*Scene, error) {
	state := scenestate.New(resourceRegistry, gpus)

	setupSched, err := scheduler.New(jobRegistry, job.Setup, state, schedulerOpts...)
	if err != nil {
		return nil, err
	}
	updateSched, err := scheduler.New(jobRegistry, job.Update, state, schedulerOpts...)
	if err != nil {
		return nil, err
	}

	s := &Scene{state: state, setup: setupSched, update: updateSched}

	if err := setupSched.RunJobs(0, 0); err != nil {
		return nil, err
	}
	s.setupRan = true
	state.DrainPostFrame()

	return s, nil
}

// State returns the scene's live state container.
func (s *Scene) State() *scenestate.SceneState {
	return s.state
}

// AddViewport attaches a viewport to the scene, marking the pipeline cache
// stale so the next Tick rebuilds it.
func (s *Scene) AddViewport(v *scenestate.Viewport) id.ViewportId {
	vid := s.state.AddViewport(v)
	s.viewportsChanged = true
	return vid
}

// RemoveViewport detaches a viewport, marking the pipeline cache stale.
func (s *Scene) RemoveViewport(vid id.ViewportId) {
	s.state.RemoveViewport(vid)
	s.viewportsChanged = true
}

// Tick advances the scene by deltaTime: if the viewport set changed since
// the last tick, the Update scheduler's pipeline cache is rebuilt; then
// the Update DAG runs once. Entity spawn/despawn bookkeeping is drained
// only on success — per spec.md §7, a failing frame leaves queued
// requests queued for retry on the next successful frame.
func (s *Scene) Tick(deltaTime time.Duration) error {
	if s.viewportsChanged {
		s.update.RebuildPipelineCache()
		s.viewportsChanged = false
	}

	s.gameTime += deltaTime
	if err := s.update.RunJobs(s.gameTime, deltaTime); err != nil {
		return err
	}

	s.state.DrainPostFrame()
	return nil
}

// Close releases both schedulers' worker pools.
func (s *Scene) Close() {
	s.setup.Close()
	s.update.Close()
}
