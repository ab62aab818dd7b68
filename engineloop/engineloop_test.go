package engineloop_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ovis-games/ovis-ecs/engineloop"
	"github.com/ovis-games/ovis-ecs/job"
	"github.com/ovis-games/ovis-ecs/resource"
	"github.com/ovis-games/ovis-ecs/scene"
	"github.com/ovis-games/ovis-ecs/scenestate"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsHeadlessSceneTicksUntilQuit(t *testing.T) {
	resReg := resource.NewRegistry()
	jobReg := job.NewRegistry()

	var ticks int32
	jobReg.Register(job.Update, func(scenestate.SystemResources, *scenestate.SceneState) error {
		atomic.AddInt32(&ticks, 1)
		return nil
	}, nil, false)

	s, err := scene.New(resReg, jobReg, nil)
	require.NoError(t, err)
	defer s.Close()

	loop := engineloop.New(
		engineloop.WithTickRate(200),
		engineloop.WithScene(0, s),
	)

	done := make(chan struct{})
	go func() {
		loop.Run()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	loop.Quit()
	<-done

	require.Greater(t, atomic.LoadInt32(&ticks), int32(0))
}
