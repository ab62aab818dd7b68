package scheduler_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ovis-games/ovis-ecs/id"
	"github.com/ovis-games/ovis-ecs/job"
	"github.com/ovis-games/ovis-ecs/resource"
	"github.com/ovis-games/ovis-ecs/scenestate"
	"github.com/ovis-games/ovis-ecs/scheduler"
	"github.com/stretchr/testify/require"
)

func noopFn(scenestate.SystemResources, *scenestate.SceneState) error { return nil }

func newTwoViewportState() *scenestate.SceneState {
	reg := resource.NewRegistry()
	s := scenestate.New(reg, nil)
	s.AddViewport(scenestate.NewViewport(nil, nil))
	s.AddViewport(scenestate.NewViewport(nil, nil))
	return s
}

// TestSchedulerPerViewportFanOutAndOrdering is S3: A and B are per-viewport
// predecessors of per-frame C across two viewports. A and B must each run
// twice, C exactly once, and C must not start before every A/B completion.
func TestSchedulerPerViewportFanOutAndOrdering(t *testing.T) {
	reg := job.NewRegistry()
	state := newTwoViewportState()

	var aRuns, bRuns, cRuns int32
	var seq int64
	var mu sync.Mutex
	var aMaxSeq, bMaxSeq, cSeq int64

	a := reg.Register(job.Update, func(scenestate.SystemResources, *scenestate.SceneState) error {
		atomic.AddInt32(&aRuns, 1)
		s := atomic.AddInt64(&seq, 1)
		mu.Lock()
		if s > aMaxSeq {
			aMaxSeq = s
		}
		mu.Unlock()
		return nil
	}, nil, true)

	b := reg.Register(job.Update, func(scenestate.SystemResources, *scenestate.SceneState) error {
		atomic.AddInt32(&bRuns, 1)
		s := atomic.AddInt64(&seq, 1)
		mu.Lock()
		if s > bMaxSeq {
			bMaxSeq = s
		}
		mu.Unlock()
		return nil
	}, nil, true)

	c := reg.Register(job.Update, func(scenestate.SystemResources, *scenestate.SceneState) error {
		atomic.AddInt32(&cRuns, 1)
		atomic.StoreInt64(&cSeq, atomic.AddInt64(&seq, 1))
		return nil
	}, nil, false)
	reg.AddDependency(c, a)
	reg.AddDependency(c, b)

	sched, err := scheduler.New(reg, job.Update, state)
	require.NoError(t, err)

	require.NoError(t, sched.RunJobs(0, time.Millisecond))

	require.EqualValues(t, 2, aRuns)
	require.EqualValues(t, 2, bRuns)
	require.EqualValues(t, 1, cRuns)
	require.GreaterOrEqual(t, cSeq, aMaxSeq)
	require.GreaterOrEqual(t, cSeq, bMaxSeq)
}

// TestSchedulerFailingJobThenSuccess is S4: a failing job's error surfaces
// from RunJobs, and a following frame (once the failure condition clears)
// runs normally.
func TestSchedulerFailingJobThenSuccess(t *testing.T) {
	reg := job.NewRegistry()
	state := newTwoViewportState()

	var shouldFail atomic.Bool
	shouldFail.Store(true)

	reg.Register(job.Update, func(scenestate.SystemResources, *scenestate.SceneState) error {
		if shouldFail.Load() {
			return errors.New("boom")
		}
		return nil
	}, nil, false)

	sched, err := scheduler.New(reg, job.Update, state)
	require.NoError(t, err)

	err = sched.RunJobs(0, time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")

	shouldFail.Store(false)
	require.NoError(t, sched.RunJobs(0, time.Millisecond))
}

// TestSchedulerDrainsInFlightSiblingsBeforeReturning reproduces the
// leftover-sibling-task hazard directly: one root job fails instantly, an
// unrelated sibling root is still sleeping when the error is delivered.
// RunJobs must not return until that sibling has actually finished, or a
// subsequent RunJobs call on the same Scheduler could reset
// resultCh/jobsFinished/resultSent out from under the still-running
// sibling task, corrupting the next frame's completion count.
func TestSchedulerDrainsInFlightSiblingsBeforeReturning(t *testing.T) {
	reg := job.NewRegistry()
	state := newTwoViewportState()

	var shouldFail atomic.Bool
	shouldFail.Store(true)
	var failRuns, slowRuns int32

	reg.Register(job.Update, func(scenestate.SystemResources, *scenestate.SceneState) error {
		atomic.AddInt32(&failRuns, 1)
		if shouldFail.Load() {
			return errors.New("boom")
		}
		return nil
	}, nil, false)
	reg.Register(job.Update, func(scenestate.SystemResources, *scenestate.SceneState) error {
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&slowRuns, 1)
		return nil
	}, nil, false)

	sched, err := scheduler.New(reg, job.Update, state)
	require.NoError(t, err)

	err = sched.RunJobs(0, time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
	require.EqualValues(t, 1, slowRuns, "RunJobs returned before its slow sibling task drained")

	shouldFail.Store(false)
	require.NoError(t, sched.RunJobs(time.Millisecond, time.Millisecond))
	require.EqualValues(t, 2, failRuns)
	require.EqualValues(t, 2, slowRuns)
}

// TestSchedulerExactlyOncePerFrameAcrossMultipleRuns exercises invariants 7
// and 8: each frame re-enters the same per-frame job exactly once, which is
// only possible if dependencies_finished/jobs_finished were fully reset
// between frames.
func TestSchedulerExactlyOncePerFrameAcrossMultipleRuns(t *testing.T) {
	reg := job.NewRegistry()
	state := newTwoViewportState()

	var runs int32
	reg.Register(job.Update, func(scenestate.SystemResources, *scenestate.SceneState) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}, nil, false)

	sched, err := scheduler.New(reg, job.Update, state)
	require.NoError(t, err)

	require.NoError(t, sched.RunJobs(0, time.Millisecond))
	require.EqualValues(t, 1, runs)

	require.NoError(t, sched.RunJobs(0, time.Millisecond))
	require.EqualValues(t, 2, runs)
}

func TestSchedulerConstructionDetectsCycle(t *testing.T) {
	reg := job.NewRegistry()
	state := newTwoViewportState()

	a := reg.Register(job.Update, noopFn, nil, false)
	b := reg.Register(job.Update, noopFn, nil, false)
	reg.AddDependency(a, b)
	reg.AddDependency(b, a)

	_, err := scheduler.New(reg, job.Update, state)
	require.Error(t, err)
}

func TestSchedulerConstructionRejectsUnorderedDoubleWrite(t *testing.T) {
	reg := job.NewRegistry()
	state := newTwoViewportState()

	rid := id.New[id.ResourceSpace, id.Bits8](0, 0)
	reg.Register(job.Update, noopFn, []job.ResourceAccess{{Resource: rid, Mode: job.Write}}, false)
	reg.Register(job.Update, noopFn, []job.ResourceAccess{{Resource: rid, Mode: job.Write}}, false)

	_, err := scheduler.New(reg, job.Update, state)
	require.Error(t, err)
}

func TestSchedulerAllowsOrderedDoubleWrite(t *testing.T) {
	reg := job.NewRegistry()
	state := newTwoViewportState()

	rid := id.New[id.ResourceSpace, id.Bits8](0, 0)
	a := reg.Register(job.Update, noopFn, []job.ResourceAccess{{Resource: rid, Mode: job.Write}}, false)
	b := reg.Register(job.Update, noopFn, []job.ResourceAccess{{Resource: rid, Mode: job.Write}}, false)
	reg.AddDependency(b, a)

	sched, err := scheduler.New(reg, job.Update, state)
	require.NoError(t, err)
	require.NoError(t, sched.RunJobs(0, time.Millisecond))
}
