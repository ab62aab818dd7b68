package job_test

import (
	"testing"

	"github.com/ovis-games/ovis-ecs/job"
	"github.com/ovis-games/ovis-ecs/scenestate"
	"github.com/stretchr/testify/require"
)

func noop(scenestate.SystemResources, *scenestate.SceneState) error { return nil }

func TestRegistryAddDependency(t *testing.T) {
	r := job.NewRegistry()
	a := r.Register(job.Update, noop, nil, false)
	b := r.Register(job.Update, noop, nil, false)
	r.AddDependency(b, a)

	bJob, ok := r.Lookup(b)
	require.True(t, ok)
	_, has := bJob.Predecessors[a]
	require.True(t, has)
}

func TestRegistryAddDependencyAcrossKindsIsNoOp(t *testing.T) {
	r := job.NewRegistry()
	setupJob := r.Register(job.Setup, noop, nil, false)
	updateJob := r.Register(job.Update, noop, nil, false)
	r.AddDependency(updateJob, setupJob)

	uJob, ok := r.Lookup(updateJob)
	require.True(t, ok)
	require.Empty(t, uJob.Predecessors)
}

func TestRegistryJobsOfKind(t *testing.T) {
	r := job.NewRegistry()
	r.Register(job.Setup, noop, nil, false)
	r.Register(job.Update, noop, nil, false)
	r.Register(job.Update, noop, nil, true)

	require.Len(t, r.JobsOfKind(job.Setup), 1)
	require.Len(t, r.JobsOfKind(job.Update), 2)
}
