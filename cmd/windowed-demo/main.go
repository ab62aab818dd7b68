// Command windowed-demo opens a real GLFW window, requests a WebGPU
// adapter/device against its surface, and runs a scene with one
// per-viewport job against that window's swap chain. It has no rendering
// of its own — the job just logs which frame it was invoked for — this is
// a wiring demonstration of the window/gpu/scene/engineloop boundary, not
// a renderer.
package main

import (
	"log"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/ovis-games/ovis-ecs/engineloop"
	"github.com/ovis-games/ovis-ecs/gpu"
	"github.com/ovis-games/ovis-ecs/job"
	"github.com/ovis-games/ovis-ecs/resource"
	"github.com/ovis-games/ovis-ecs/scene"
	"github.com/ovis-games/ovis-ecs/scenestate"
	"github.com/ovis-games/ovis-ecs/window"
)

func main() {
	runtime.LockOSThread()

	win := window.NewWindow(
		window.WithTitle("ovis-ecs windowed demo"),
		window.WithWidth(1280),
		window.WithHeight(720),
	)

	device, surfaceConfig, surface := mustCreateGPU(win)

	resReg := resource.NewRegistry()
	jobReg := job.NewRegistry()
	jobReg.Register(job.Update, func(sys scenestate.SystemResources, _ *scenestate.SceneState) error {
		if sys.Viewport != nil {
			log.Printf("windowed-demo: frame for viewport %s at t=%s", sys.Viewport.Label, sys.GameTime)
		}
		return nil
	}, nil, true)

	s, err := scene.New(resReg, jobReg, []*gpu.Device{device})
	if err != nil {
		log.Fatalf("build scene: %v", err)
	}
	defer s.Close()

	vp := scenestate.NewViewport(device, surfaceConfig)
	vp.Surface = surface
	s.AddViewport(vp)

	loop := engineloop.New(
		engineloop.WithProfiling(true),
		engineloop.WithTickRate(60),
		engineloop.WithWindow(win),
		engineloop.WithScene(0, s),
	)
	loop.Run()
}

func mustCreateGPU(win window.Window) (*gpu.Device, *wgpu.SurfaceConfiguration, *wgpu.Surface) {
	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(win.SurfaceDescriptor())

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
	})
	if err != nil {
		log.Fatalf("request adapter: %v", err)
	}

	wgpuDevice, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "windowed-demo device",
	})
	if err != nil {
		log.Fatalf("request device: %v", err)
	}

	capabilities := surface.GetCapabilities(adapter)
	config := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      capabilities.Formats[0],
		Width:       uint32(win.Width()),
		Height:      uint32(win.Height()),
		PresentMode: wgpu.PresentModeImmediate,
		AlphaMode:   capabilities.AlphaModes[0],
	}
	surface.Configure(adapter, wgpuDevice, config)

	device := gpu.NewDevice(0, adapter, wgpuDevice, wgpuDevice.GetQueue())
	return device, config, surface
}
