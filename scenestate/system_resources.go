package scenestate

import (
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/ovis-games/ovis-ecs/id"
)

// SystemResources is the per-job-invocation context the scheduler builds
// when it dequeues a ready job: frame timing plus, for per-viewport jobs,
// the active viewport and its resolved render pipeline.
type SystemResources struct {
	GameTime  time.Duration
	DeltaTime time.Duration

	// ViewportID and Viewport are the zero value/nil for per-frame jobs
	// (PerViewport == false on the Job).
	ViewportID id.ViewportId
	Viewport   *Viewport

	// Pipeline is the render pipeline the scheduler's pipeline cache
	// resolved for (job, viewport); nil if no PipelineResolver was
	// configured or it returned nil. The core never builds pipelines, only
	// caches and forwards whatever the resolver returns.
	Pipeline *wgpu.RenderPipeline
}
