package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/**
 * @brief DispatchSystem builds and submits per-dispatch resource descriptors.
 * All validation happens here, at construction time on the host: slot ranges,
 * populated table entries, monotonic time, zero padding. Once a descriptor is
 * handed to the renderer, everything downstream resolves it unchecked.
 */
type DispatchSystem struct {
	renderer *renderer.Renderer
	accels   *AccelTableSystem
	images   *BindlessImageSystem

	// Highest time value handed out so far. Descriptor time never decreases
	// across dispatches within a session.
	lastTime float32
	mutex    sync.Mutex
}

func NewDispatchSystem(r *renderer.Renderer, accels *AccelTableSystem, images *BindlessImageSystem) (*DispatchSystem, error) {
	if accels == nil || images == nil {
		return nil, fmt.Errorf("func NewDispatchSystem - both table systems are required")
	}
	return &DispatchSystem{
		renderer: r,
		accels:   accels,
		images:   images,
	}, nil
}

func (ds *DispatchSystem) Shutdown() error {
	return nil
}

/**
 * @brief Builds a validated dispatch descriptor.
 *
 * @param outputImage Slot in the storage-image table to write into.
 * @param accelIndex Slot in the acceleration-structure table to traverse.
 * @param geometry The uploaded geometry the hit shaders will fetch from.
 * @param time Elapsed session time in seconds.
 * @return The descriptor or nil with an error naming the violated invariant.
 */
func (ds *DispatchSystem) BuildConstants(outputImage, accelIndex uint32, geometry *metadata.Geometry, time float32) (*metadata.RayDispatchConstants, error) {
	if accelIndex >= ds.accels.Length() {
		return nil, fmt.Errorf("accel_index %d: %w (table length %d)", accelIndex, core.ErrSlotOutOfRange, ds.accels.Length())
	}
	if !ds.accels.Populated(accelIndex) {
		return nil, fmt.Errorf("accel_index %d: %w", accelIndex, core.ErrSlotNotPopulated)
	}
	if outputImage >= ds.images.Length() {
		return nil, fmt.Errorf("output_image %d: %w (table length %d)", outputImage, core.ErrSlotOutOfRange, ds.images.Length())
	}
	if !ds.images.Populated(outputImage) {
		return nil, fmt.Errorf("output_image %d: %w", outputImage, core.ErrSlotNotPopulated)
	}
	if geometry == nil || geometry.VertexAddress == 0 || geometry.IndexAddress == 0 {
		return nil, fmt.Errorf("dispatch descriptor needs an uploaded geometry")
	}

	ds.mutex.Lock()
	if time < ds.lastTime {
		last := ds.lastTime
		ds.mutex.Unlock()
		return nil, fmt.Errorf("time %f after %f: %w", time, last, core.ErrTimeNotMonotonic)
	}
	ds.lastTime = time
	ds.mutex.Unlock()

	constants := &metadata.RayDispatchConstants{
		OutputImage:   outputImage,
		AccelIndex:    accelIndex,
		VertexAddress: geometry.VertexAddress,
		IndexAddress:  geometry.IndexAddress,
		Time:          time,
	}
	if err := constants.Validate(); err != nil {
		return nil, err
	}
	return constants, nil
}

// Dispatch submits one descriptor over the given grid. Must run between
// BeginFrame and EndFrame.
func (ds *DispatchSystem) Dispatch(constants *metadata.RayDispatchConstants, width, height uint32) error {
	if err := ds.renderer.TraceRays(constants, width, height); err != nil {
		return err
	}
	core.MetricsDispatchSubmitted()
	return nil
}

// ResolveAccel mirrors the shader-side table fetch for a descriptor.
func (ds *DispatchSystem) ResolveAccel(constants *metadata.RayDispatchConstants) metadata.AccelerationStructureHandle {
	return ds.accels.Resolve(constants.AccelIndex)
}

// ResolveOutput mirrors the shader-side image table fetch for a descriptor.
func (ds *DispatchSystem) ResolveOutput(constants *metadata.RayDispatchConstants) metadata.ImageHandle {
	return ds.images.Resolve(constants.OutputImage)
}

// VertexAt fetches a vertex through a descriptor's geometry reference, the
// way a closest-hit invocation does.
func (ds *DispatchSystem) VertexAt(constants *metadata.RayDispatchConstants, i uint32) math.Vec3 {
	return ds.renderer.VertexAt(constants.VertexAddress, i)
}

// IndexAt fetches an index through a descriptor's geometry reference.
func (ds *DispatchSystem) IndexAt(constants *metadata.RayDispatchConstants, i uint32) uint32 {
	return ds.renderer.IndexAt(constants.IndexAddress, i)
}
