// Package gpu is the thin GPU boundary the core consumes without ever
// issuing draw calls or building pipelines itself (those remain an
// external collaborator's concern). It wraps github.com/cogentcore/webgpu
// types in the shape the original engine's Gpu struct used
// (adapter/device/queue), trimmed to what resource binding and viewport
// presentation need.
package gpu

import "github.com/cogentcore/webgpu/wgpu"

// Device is one GPU adapter/device/queue triple a Scene can target.
// Index identifies its position in a Scene's attached-GPU list, used as
// the gpu_index parameter to resource binding and pipeline resolution.
type Device struct {
	Index   int
	Adapter *wgpu.Adapter
	Device  *wgpu.Device
	Queue   *wgpu.Queue
}

// NewDevice wraps an already-created adapter/device/queue triple. Creating
// those is an external collaborator's responsibility (instance/surface
// negotiation is windowing- and rendering-adjacent); this module only
// needs somewhere to hang the handles it threads through resource binding.
func NewDevice(index int, adapter *wgpu.Adapter, device *wgpu.Device, queue *wgpu.Queue) *Device {
	return &Device{Index: index, Adapter: adapter, Device: device, Queue: queue}
}
