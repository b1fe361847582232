package renderer

import (
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type RendererBackend interface {
	Initialize(appName string, appWidth, appHeight uint32) error
	Shutdown() error
	Resized(width, height uint16) error
	BeginFrame(deltaTime float64) error
	EndFrame(deltaTime float64) error

	// Bindless table mutation. Legal only between frames; once a frame has
	// begun both tables are read-only until EndFrame.
	AccelTableResize(newLength uint32) error
	AccelTableWrite(slot uint32, handle metadata.AccelerationStructureHandle) error
	AccelTableLength() uint32
	ImageTableResize(newLength uint32) error
	ImageTableWrite(slot uint32, handle metadata.ImageHandle) error
	ImageTableLength() uint32

	// Geometry upload into the buffer-device-address arena.
	CreateGeometry(geometry *metadata.Geometry, vertices []math.Vec3, indices []uint32) error
	DestroyGeometry(geometry *metadata.Geometry)
	VertexAt(address metadata.DeviceAddress, i uint32) math.Vec3
	IndexAt(address metadata.DeviceAddress, i uint32) uint32

	// Acceleration-structure builds and render-target creation belong to
	// external collaborators on GPU backends. The headless backend implements
	// them so scenes can run end to end without a device.
	CreateAccelerationStructure(geometry *metadata.Geometry) (metadata.AccelerationStructureHandle, error)
	DestroyAccelerationStructure(handle metadata.AccelerationStructureHandle)
	CreateRenderTarget(name string, width, height uint32) (metadata.ImageHandle, error)

	// TraceRays records one ray dispatch carrying the given push-constant
	// block over a width x height invocation grid.
	TraceRays(constants *metadata.RayDispatchConstants, width, height uint32) error

	IsMultithreaded() bool
}
