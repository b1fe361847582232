package renderer

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/platform"
	"github.com/spaghettifunk/lumen/engine/renderer/headless"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/vulkan"
)

type RendererType uint8

const (
	Vulkan RendererType = iota
	Headless
)

// Renderer is the front-end the systems talk to. It owns exactly one
// backend and forwards to it; frame ordering (table commits strictly
// before BeginFrame) is enforced by the system manager above.
type Renderer struct {
	backend RendererBackend
}

func New(rendererType RendererType, p *platform.Platform) (*Renderer, error) {
	var backend RendererBackend
	switch rendererType {
	case Vulkan:
		backend = vulkan.New(p, nil)
	case Headless:
		backend = headless.New()
	default:
		return nil, fmt.Errorf("unsupported renderer type `%d`", rendererType)
	}
	return &Renderer{
		backend: backend,
	}, nil
}

func (r *Renderer) Initialize(appName string, appWidth, appHeight uint32) error {
	if err := r.backend.Initialize(appName, appWidth, appHeight); err != nil {
		core.LogError("renderer backend failed to initialize: %s", err.Error())
		return err
	}
	return nil
}

func (r *Renderer) Shutdown() error {
	return r.backend.Shutdown()
}

func (r *Renderer) OnResize(width, height uint16) error {
	return r.backend.Resized(width, height)
}

func (r *Renderer) BeginFrame(deltaTime float64) error {
	return r.backend.BeginFrame(deltaTime)
}

func (r *Renderer) EndFrame(deltaTime float64) error {
	return r.backend.EndFrame(deltaTime)
}

func (r *Renderer) AccelTableResize(newLength uint32) error {
	return r.backend.AccelTableResize(newLength)
}

func (r *Renderer) AccelTableWrite(slot uint32, handle metadata.AccelerationStructureHandle) error {
	return r.backend.AccelTableWrite(slot, handle)
}

func (r *Renderer) AccelTableLength() uint32 {
	return r.backend.AccelTableLength()
}

func (r *Renderer) ImageTableResize(newLength uint32) error {
	return r.backend.ImageTableResize(newLength)
}

func (r *Renderer) ImageTableWrite(slot uint32, handle metadata.ImageHandle) error {
	return r.backend.ImageTableWrite(slot, handle)
}

func (r *Renderer) ImageTableLength() uint32 {
	return r.backend.ImageTableLength()
}

func (r *Renderer) CreateGeometry(geometry *metadata.Geometry, vertices []math.Vec3, indices []uint32) error {
	return r.backend.CreateGeometry(geometry, vertices, indices)
}

func (r *Renderer) DestroyGeometry(geometry *metadata.Geometry) {
	r.backend.DestroyGeometry(geometry)
}

func (r *Renderer) VertexAt(address metadata.DeviceAddress, i uint32) math.Vec3 {
	return r.backend.VertexAt(address, i)
}

func (r *Renderer) IndexAt(address metadata.DeviceAddress, i uint32) uint32 {
	return r.backend.IndexAt(address, i)
}

func (r *Renderer) CreateAccelerationStructure(geometry *metadata.Geometry) (metadata.AccelerationStructureHandle, error) {
	return r.backend.CreateAccelerationStructure(geometry)
}

func (r *Renderer) DestroyAccelerationStructure(handle metadata.AccelerationStructureHandle) {
	r.backend.DestroyAccelerationStructure(handle)
}

func (r *Renderer) CreateRenderTarget(name string, width, height uint32) (metadata.ImageHandle, error) {
	return r.backend.CreateRenderTarget(name, width, height)
}

func (r *Renderer) TraceRays(constants *metadata.RayDispatchConstants, width, height uint32) error {
	return r.backend.TraceRays(constants, width, height)
}

func (r *Renderer) IsMultithreaded() bool {
	return r.backend.IsMultithreaded()
}

// Backend exposes the underlying backend for callers that need
// backend-specific capabilities, e.g. frame capture on the headless one.
func (r *Renderer) Backend() RendererBackend {
	return r.backend
}
