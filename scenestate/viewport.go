package scenestate

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
	"github.com/ovis-games/ovis-ecs/gpu"
)

// Viewport is a presentation target: a reference to a GPU, a surface
// configuration, and the currently-acquired frame texture and view, both
// nil outside the frame body (acquired by the host loop before tick and
// released after present, per the host-loop contract).
type Viewport struct {
	GPU           *gpu.Device
	SurfaceConfig *wgpu.SurfaceConfiguration

	// Surface is nil for a headless/synthetic viewport (no presentation
	// target). A windowed viewport sets this once, at creation, to the
	// surface obtained from the host window's SurfaceDescriptor.
	Surface *wgpu.Surface

	Texture     *wgpu.Texture
	TextureView *wgpu.TextureView

	// Label is a debug-only identifier, generated fresh per viewport
	// (collision-free, unlike the original engine's ad hoc "name + suffix"
	// labels) so log lines and panics can name a viewport unambiguously.
	Label string
}

// NewViewport creates a Viewport targeting gpuDevice with the given surface
// configuration. Texture/TextureView start nil; the host loop populates
// them for the duration of one tick.
func NewViewport(gpuDevice *gpu.Device, surfaceConfig *wgpu.SurfaceConfiguration) *Viewport {
	return &Viewport{
		GPU:           gpuDevice,
		SurfaceConfig: surfaceConfig,
		Label:         uuid.NewString(),
	}
}

// BeginFrame attaches the acquired swap-chain texture and view for the
// duration of one frame's job execution.
func (v *Viewport) BeginFrame(texture *wgpu.Texture, view *wgpu.TextureView) {
	v.Texture = texture
	v.TextureView = view
}

// EndFrame clears the acquired texture/view after present, restoring the
// "both nil outside the frame body" invariant.
func (v *Viewport) EndFrame() {
	v.Texture = nil
	v.TextureView = nil
}

// AcquireFrame pulls the next swap-chain texture and view from Surface and
// attaches them via BeginFrame. A no-op on a headless viewport (Surface ==
// nil), which is what lets synthetic scenes share the same host loop as a
// windowed one.
func (v *Viewport) AcquireFrame() error {
	if v.Surface == nil {
		return nil
	}
	texture, err := v.Surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		return err
	}
	v.BeginFrame(texture, view)
	return nil
}

// Present releases the acquired texture/view back to the surface. A no-op
// on a headless viewport.
func (v *Viewport) Present() {
	if v.Surface == nil {
		return
	}
	if v.Texture != nil {
		v.Surface.Present()
	}
	v.EndFrame()
}
