package headless

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

const defaultArenaCapacity uint64 = 16 * 1024 * 1024

/**
 * @brief A render target registered in the bindless image table. Pixels are
 * RGBA8, row-major.
 */
type RenderTarget struct {
	Name   string
	Width  uint32
	Height uint32
	Pixels []uint8
	// Number of dispatches that wrote into this target.
	Writes uint64
}

type accelerationStructure struct {
	geometry *metadata.Geometry
	// Uniform colour baked per material-ish bucket so traced output is
	// visually distinguishable between structures.
	tint math.Vec3
}

// TraceRecord remembers which structure a dispatch traversed and which
// image it wrote. Tests assert dispatch routing through these.
type TraceRecord struct {
	Accel  metadata.AccelerationStructureHandle
	Output metadata.ImageHandle
	Time   float32
}

/**
 * @brief HeadlessRenderer is a device-free backend. It keeps both bindless
 * tables and the device-address arena in host memory and simulates dispatch
 * just far enough to honor the binding contract: traversal reads exactly the
 * structure at accel_index, output goes exactly to the image at output_image,
 * geometry is reached only through the two raw addresses.
 */
type HeadlessRenderer struct {
	arena *DeviceArena

	accelTable []metadata.AccelerationStructureHandle
	imageTable []metadata.ImageHandle

	accels     map[metadata.AccelerationStructureHandle]*accelerationStructure
	nextAccel  metadata.AccelerationStructureHandle
	targets    map[metadata.ImageHandle]*RenderTarget
	nextTarget metadata.ImageHandle

	traces []TraceRecord

	frameActive bool
	mutex       sync.Mutex
}

func New() *HeadlessRenderer {
	return &HeadlessRenderer{
		arena:      NewDeviceArena(defaultArenaCapacity),
		accels:     make(map[metadata.AccelerationStructureHandle]*accelerationStructure),
		targets:    make(map[metadata.ImageHandle]*RenderTarget),
		nextAccel:  0x7000_0000_0000_0000,
		nextTarget: 0x3000_0000_0000_0000,
	}
}

func (hr *HeadlessRenderer) Initialize(appName string, appWidth, appHeight uint32) error {
	core.LogInfo("headless renderer initialized for `%s` (%dx%d)", appName, appWidth, appHeight)
	return nil
}

func (hr *HeadlessRenderer) Shutdown() error {
	hr.accelTable = nil
	hr.imageTable = nil
	return nil
}

func (hr *HeadlessRenderer) Resized(width, height uint16) error {
	return nil
}

func (hr *HeadlessRenderer) BeginFrame(deltaTime float64) error {
	hr.mutex.Lock()
	defer hr.mutex.Unlock()
	hr.frameActive = true
	return nil
}

func (hr *HeadlessRenderer) EndFrame(deltaTime float64) error {
	hr.mutex.Lock()
	defer hr.mutex.Unlock()
	hr.frameActive = false
	return nil
}

func (hr *HeadlessRenderer) AccelTableResize(newLength uint32) error {
	hr.mutex.Lock()
	defer hr.mutex.Unlock()
	if hr.frameActive {
		return fmt.Errorf("acceleration table resize while a frame is in flight")
	}
	if newLength < uint32(len(hr.accelTable)) {
		return fmt.Errorf("acceleration table may only grow (have %d, requested %d)", len(hr.accelTable), newLength)
	}
	grown := make([]metadata.AccelerationStructureHandle, newLength)
	copy(grown, hr.accelTable)
	hr.accelTable = grown
	return nil
}

func (hr *HeadlessRenderer) AccelTableWrite(slot uint32, handle metadata.AccelerationStructureHandle) error {
	hr.mutex.Lock()
	defer hr.mutex.Unlock()
	if hr.frameActive {
		return fmt.Errorf("acceleration table write while a frame is in flight")
	}
	if slot >= uint32(len(hr.accelTable)) {
		return fmt.Errorf("slot %d: %w (table length %d)", slot, core.ErrSlotOutOfRange, len(hr.accelTable))
	}
	hr.accelTable[slot] = handle
	return nil
}

func (hr *HeadlessRenderer) AccelTableLength() uint32 {
	return uint32(len(hr.accelTable))
}

func (hr *HeadlessRenderer) ImageTableResize(newLength uint32) error {
	hr.mutex.Lock()
	defer hr.mutex.Unlock()
	if hr.frameActive {
		return fmt.Errorf("image table resize while a frame is in flight")
	}
	if newLength < uint32(len(hr.imageTable)) {
		return fmt.Errorf("image table may only grow (have %d, requested %d)", len(hr.imageTable), newLength)
	}
	grown := make([]metadata.ImageHandle, newLength)
	copy(grown, hr.imageTable)
	hr.imageTable = grown
	return nil
}

func (hr *HeadlessRenderer) ImageTableWrite(slot uint32, handle metadata.ImageHandle) error {
	hr.mutex.Lock()
	defer hr.mutex.Unlock()
	if hr.frameActive {
		return fmt.Errorf("image table write while a frame is in flight")
	}
	if slot >= uint32(len(hr.imageTable)) {
		return fmt.Errorf("slot %d: %w (table length %d)", slot, core.ErrSlotOutOfRange, len(hr.imageTable))
	}
	hr.imageTable[slot] = handle
	return nil
}

func (hr *HeadlessRenderer) ImageTableLength() uint32 {
	return uint32(len(hr.imageTable))
}

func (hr *HeadlessRenderer) CreateGeometry(geometry *metadata.Geometry, vertices []math.Vec3, indices []uint32) error {
	if len(vertices) == 0 || len(indices) == 0 {
		return fmt.Errorf("geometry `%s` has no data", geometry.Name)
	}
	geometry.VertexAddress = hr.arena.WriteVertices(vertices)
	geometry.VertexCount = uint32(len(vertices))
	geometry.VertexBufferOffset = uint64(geometry.VertexAddress - arenaBaseAddress)
	geometry.IndexAddress = hr.arena.WriteIndices(indices)
	geometry.IndexCount = uint32(len(indices))
	geometry.IndexBufferOffset = uint64(geometry.IndexAddress - arenaBaseAddress)
	geometry.Generation++
	return nil
}

func (hr *HeadlessRenderer) DestroyGeometry(geometry *metadata.Geometry) {
	// Arena allocations are never reclaimed individually; just drop the
	// addresses so stale reads fail loudly.
	geometry.VertexAddress = 0
	geometry.IndexAddress = 0
	geometry.Generation = metadata.InvalidID
}

func (hr *HeadlessRenderer) VertexAt(address metadata.DeviceAddress, i uint32) math.Vec3 {
	return hr.arena.VertexAt(address, i)
}

func (hr *HeadlessRenderer) IndexAt(address metadata.DeviceAddress, i uint32) uint32 {
	return hr.arena.IndexAt(address, i)
}

func (hr *HeadlessRenderer) CreateAccelerationStructure(geometry *metadata.Geometry) (metadata.AccelerationStructureHandle, error) {
	if geometry.VertexAddress == 0 || geometry.IndexAddress == 0 {
		return 0, fmt.Errorf("geometry `%s` was not uploaded before the acceleration structure build", geometry.Name)
	}
	hr.mutex.Lock()
	defer hr.mutex.Unlock()
	hr.nextAccel++
	handle := hr.nextAccel
	hr.accels[handle] = &accelerationStructure{
		geometry: geometry,
		tint:     math.NewVec3(0.6, 0.6, 0.6),
	}
	return handle, nil
}

func (hr *HeadlessRenderer) DestroyAccelerationStructure(handle metadata.AccelerationStructureHandle) {
	hr.mutex.Lock()
	defer hr.mutex.Unlock()
	delete(hr.accels, handle)
}

func (hr *HeadlessRenderer) CreateRenderTarget(name string, width, height uint32) (metadata.ImageHandle, error) {
	if width == 0 || height == 0 {
		return 0, fmt.Errorf("render target `%s` must have non-zero extent", name)
	}
	hr.mutex.Lock()
	defer hr.mutex.Unlock()
	hr.nextTarget++
	handle := hr.nextTarget
	hr.targets[handle] = &RenderTarget{
		Name:   name,
		Width:  width,
		Height: height,
		Pixels: make([]uint8, width*height*4),
	}
	return handle, nil
}

// TraceRays simulates one dispatch. Resolution follows the contract exactly:
// the acceleration structure comes from accel_table[accel_index], the write
// target from the image table at output_image, geometry only through the raw
// addresses. Indexing is unchecked; an invalid index panics like the real
// thing faults.
func (hr *HeadlessRenderer) TraceRays(constants *metadata.RayDispatchConstants, width, height uint32) error {
	handle := hr.accelTable[constants.AccelIndex]
	if handle == 0 {
		return fmt.Errorf("accel index %d: %w", constants.AccelIndex, core.ErrSlotNotPopulated)
	}
	imageHandle := hr.imageTable[constants.OutputImage]
	target, ok := hr.targets[imageHandle]
	if !ok {
		return fmt.Errorf("output image %d: %w", constants.OutputImage, core.ErrSlotNotPopulated)
	}
	accel := hr.accels[handle]

	hr.shade(accel, target, constants, width, height)

	hr.mutex.Lock()
	target.Writes++
	hr.traces = append(hr.traces, TraceRecord{
		Accel:  handle,
		Output: imageHandle,
		Time:   constants.Time,
	})
	hr.mutex.Unlock()
	return nil
}

// shade runs the invocation grid: one goroutine per row block, no
// cross-invocation communication, every invocation reading its own copy of
// the constants.
func (hr *HeadlessRenderer) shade(accel *accelerationStructure, target *RenderTarget, constants *metadata.RayDispatchConstants, width, height uint32) {
	w := math.Min(width, target.Width)
	h := math.Min(height, target.Height)

	// A cheap stand-in for traversal: the first triangle's plane, lit by the
	// fixed directional light. Geometry is reached exclusively through the
	// descriptor's raw addresses.
	i0 := hr.arena.IndexAt(constants.IndexAddress, 0)
	i1 := hr.arena.IndexAt(constants.IndexAddress, 1)
	i2 := hr.arena.IndexAt(constants.IndexAddress, 2)
	v0 := hr.arena.VertexAt(constants.VertexAddress, i0)
	v1 := hr.arena.VertexAt(constants.VertexAddress, i1)
	v2 := hr.arena.VertexAt(constants.VertexAddress, i2)
	normal := v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
	lambert := math.Clamp(normal.Dot(metadata.LightDir), 0.0, 1.0)
	// Elapsed time drives a deterministic pulse; two dispatches with the
	// same constants produce identical pixels.
	pulse := 0.75 + 0.25*(constants.Time-float32(int(constants.Time)))
	colour := accel.tint.Mul(metadata.LightColor).MulScalar(lambert * pulse)

	var wg sync.WaitGroup
	for y := uint32(0); y < h; y++ {
		wg.Add(1)
		go func(y uint32) {
			defer wg.Done()
			for x := uint32(0); x < w; x++ {
				o := (y*target.Width + x) * 4
				fade := 0.5 + 0.5*float32(x+y)/float32(w+h)
				target.Pixels[o+0] = uint8(math.Clamp(colour.X*fade, 0, 1) * 255)
				target.Pixels[o+1] = uint8(math.Clamp(colour.Y*fade, 0, 1) * 255)
				target.Pixels[o+2] = uint8(math.Clamp(colour.Z*fade, 0, 1) * 255)
				target.Pixels[o+3] = 255
			}
		}(y)
	}
	wg.Wait()
}

// Target returns the render target registered under the given handle.
func (hr *HeadlessRenderer) Target(handle metadata.ImageHandle) *RenderTarget {
	hr.mutex.Lock()
	defer hr.mutex.Unlock()
	return hr.targets[handle]
}

// Traces returns the dispatch routing log, in submission order.
func (hr *HeadlessRenderer) Traces() []TraceRecord {
	hr.mutex.Lock()
	defer hr.mutex.Unlock()
	out := make([]TraceRecord, len(hr.traces))
	copy(out, hr.traces)
	return out
}

func (hr *HeadlessRenderer) IsMultithreaded() bool {
	return true
}
