package vulkan

import (
	"encoding/binary"
	"fmt"
	m "math"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/containers"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/platform"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

const defaultArenaSize uint64 = 64 * 1024 * 1024

/**
 * @brief VulkanRenderer is the device-backed backend. It owns the bindless
 * descriptor set (acceleration structures at binding 5, storage images at
 * binding 6 of set 0), the buffer-device-address arena geometry lives in and
 * the push-constant recording of per-dispatch descriptors. Everything else
 * of the ray pipeline (device, pipeline, acceleration-structure builds,
 * swapchain images) is owned by external collaborators and handed in
 * through VulkanContext.
 */
type VulkanRenderer struct {
	platform *platform.Platform
	context  *VulkanContext
	lockPool *VulkanLockPool

	bindlessLayout vk.DescriptorSetLayout
	descriptorPool vk.DescriptorPool
	bindlessSet    vk.DescriptorSet

	// Table writes staged since the last frame, flushed in BeginFrame
	// before any dispatch of the new frame is recorded.
	pendingWrites *containers.RingQueue

	accelTableLength uint32
	imageTableLength uint32

	arena *VulkanBufferArena

	frameActive bool
	frameNumber uint64
}

func New(p *platform.Platform, context *VulkanContext) *VulkanRenderer {
	return &VulkanRenderer{
		platform:      p,
		context:       context,
		lockPool:      NewVulkanLockPool(),
		pendingWrites: containers.NewRingQueue(VULKAN_MAX_PENDING_TABLE_WRITES),
	}
}

func (vr *VulkanRenderer) Initialize(appName string, appWidth, appHeight uint32) error {
	if vr.context == nil || vr.context.Device == nil {
		return fmt.Errorf("vulkan backend needs a VulkanContext from the device owner: %w", core.ErrExternalCollaborator)
	}
	vr.context.FramebufferWidth = appWidth
	vr.context.FramebufferHeight = appHeight

	if err := vr.createBindlessLayout(); err != nil {
		return err
	}

	arena, err := NewVulkanBufferArena(vr.context, defaultArenaSize)
	if err != nil {
		return err
	}
	vr.arena = arena

	core.LogInfo("vulkan renderer initialized for `%s` (%dx%d)", appName, appWidth, appHeight)
	return nil
}

func (vr *VulkanRenderer) Shutdown() error {
	if vr.arena != nil {
		vr.arena.Destroy()
	}
	if vr.descriptorPool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(vr.context.Device, vr.descriptorPool, vr.context.Allocator)
	}
	if vr.bindlessLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(vr.context.Device, vr.bindlessLayout, vr.context.Allocator)
	}
	return nil
}

func (vr *VulkanRenderer) Resized(width, height uint16) error {
	vr.context.FramebufferWidth = uint32(width)
	vr.context.FramebufferHeight = uint32(height)
	return nil
}

// BeginFrame flushes staged table writes before any dispatch of the frame,
// so every dispatch observes the most recent committed population and never
// a partial one.
func (vr *VulkanRenderer) BeginFrame(deltaTime float64) error {
	if err := vr.flushTableWrites(); err != nil {
		return err
	}
	vr.frameActive = true
	return nil
}

func (vr *VulkanRenderer) EndFrame(deltaTime float64) error {
	vr.frameActive = false
	vr.frameNumber++
	return nil
}

func (vr *VulkanRenderer) AccelTableResize(newLength uint32) error {
	if newLength > VULKAN_MAX_ACCEL_STRUCTURE_COUNT {
		return fmt.Errorf("acceleration table length %d exceeds the layout's %d descriptors", newLength, VULKAN_MAX_ACCEL_STRUCTURE_COUNT)
	}
	if newLength < vr.accelTableLength {
		return fmt.Errorf("acceleration table may only grow (have %d, requested %d)", vr.accelTableLength, newLength)
	}
	vr.accelTableLength = newLength
	return nil
}

func (vr *VulkanRenderer) AccelTableWrite(slot uint32, handle metadata.AccelerationStructureHandle) error {
	if vr.frameActive {
		return fmt.Errorf("acceleration table write while a frame is in flight")
	}
	if slot >= vr.accelTableLength {
		return fmt.Errorf("slot %d: %w (table length %d)", slot, core.ErrSlotOutOfRange, vr.accelTableLength)
	}
	return vr.pendingWrites.Enqueue(pendingAccelWrite{Slot: slot, Handle: handle})
}

func (vr *VulkanRenderer) AccelTableLength() uint32 {
	return vr.accelTableLength
}

func (vr *VulkanRenderer) ImageTableResize(newLength uint32) error {
	if newLength > VULKAN_MAX_STORAGE_IMAGE_COUNT {
		return fmt.Errorf("image table length %d exceeds the layout's %d descriptors", newLength, VULKAN_MAX_STORAGE_IMAGE_COUNT)
	}
	if newLength < vr.imageTableLength {
		return fmt.Errorf("image table may only grow (have %d, requested %d)", vr.imageTableLength, newLength)
	}
	vr.imageTableLength = newLength
	return nil
}

func (vr *VulkanRenderer) ImageTableWrite(slot uint32, handle metadata.ImageHandle) error {
	if vr.frameActive {
		return fmt.Errorf("image table write while a frame is in flight")
	}
	if slot >= vr.imageTableLength {
		return fmt.Errorf("slot %d: %w (table length %d)", slot, core.ErrSlotOutOfRange, vr.imageTableLength)
	}
	return vr.pendingWrites.Enqueue(pendingImageWrite{Slot: slot, Handle: handle})
}

func (vr *VulkanRenderer) ImageTableLength() uint32 {
	return vr.imageTableLength
}

func (vr *VulkanRenderer) CreateGeometry(geometry *metadata.Geometry, vertices []math.Vec3, indices []uint32) error {
	if len(vertices) == 0 || len(indices) == 0 {
		return fmt.Errorf("geometry `%s` has no data", geometry.Name)
	}
	return vr.lockPool.SafeCall(BufferManagement, func() error {
		vertexBytes := packVertices(vertices)
		address, offset, err := vr.arena.Allocate(uint64(len(vertexBytes)), metadata.VertexAddressAlignment)
		if err != nil {
			return err
		}
		vr.arena.Write(offset, vertexBytes)
		geometry.VertexAddress = address
		geometry.VertexBufferOffset = offset
		geometry.VertexCount = uint32(len(vertices))

		indexBytes := packIndices(indices)
		address, offset, err = vr.arena.Allocate(uint64(len(indexBytes)), metadata.IndexStride)
		if err != nil {
			return err
		}
		vr.arena.Write(offset, indexBytes)
		geometry.IndexAddress = address
		geometry.IndexBufferOffset = offset
		geometry.IndexCount = uint32(len(indices))

		geometry.Generation++
		return nil
	})
}

func (vr *VulkanRenderer) DestroyGeometry(geometry *metadata.Geometry) {
	// Arena space is not reclaimed per geometry; drop the addresses so a
	// stale descriptor is caught by host-side validation.
	geometry.VertexAddress = 0
	geometry.IndexAddress = 0
	geometry.Generation = metadata.InvalidID
}

func (vr *VulkanRenderer) VertexAt(address metadata.DeviceAddress, i uint32) math.Vec3 {
	return vr.arena.VertexAt(address, i)
}

func (vr *VulkanRenderer) IndexAt(address metadata.DeviceAddress, i uint32) uint32 {
	return vr.arena.IndexAt(address, i)
}

// Acceleration-structure builds belong to the host's AS builder; this
// backend only binds the resulting handles into the table.
func (vr *VulkanRenderer) CreateAccelerationStructure(geometry *metadata.Geometry) (metadata.AccelerationStructureHandle, error) {
	return 0, fmt.Errorf("acceleration structure build: %w", core.ErrExternalCollaborator)
}

func (vr *VulkanRenderer) DestroyAccelerationStructure(handle metadata.AccelerationStructureHandle) {
	core.LogWarn("acceleration structure destruction is owned by the host's builder")
}

// Render-target creation belongs to the image/swapchain owner.
func (vr *VulkanRenderer) CreateRenderTarget(name string, width, height uint32) (metadata.ImageHandle, error) {
	return 0, fmt.Errorf("render target creation: %w", core.ErrExternalCollaborator)
}

// TraceRays records the push-constant block and the trace command into the
// frame's command buffer. The block is exactly the wire layout the shaders
// read; no validation happens here, this is the per-dispatch hot path.
func (vr *VulkanRenderer) TraceRays(constants *metadata.RayDispatchConstants, width, height uint32) error {
	if !vr.frameActive {
		return fmt.Errorf("TraceRays outside BeginFrame/EndFrame")
	}
	if vr.context.CmdTraceRays == nil {
		return fmt.Errorf("trace command recording: %w", core.ErrExternalCollaborator)
	}
	payload := constants.Marshal()
	vk.CmdPushConstants(vr.context.CommandBuffer, vr.context.PipelineLayout,
		vk.ShaderStageFlags(vk.ShaderStageAll), 0, uint32(len(payload)), unsafe.Pointer(&payload[0]))
	vr.context.CmdTraceRays(vr.context.CommandBuffer, width, height)
	return nil
}

func (vr *VulkanRenderer) IsMultithreaded() bool {
	return false
}

func packVertices(vertices []math.Vec3) []byte {
	buf := make([]byte, uint64(len(vertices))*metadata.VertexStride)
	for i, v := range vertices {
		o := i * int(metadata.VertexStride)
		binary.LittleEndian.PutUint32(buf[o:], m.Float32bits(v.X))
		binary.LittleEndian.PutUint32(buf[o+4:], m.Float32bits(v.Y))
		binary.LittleEndian.PutUint32(buf[o+8:], m.Float32bits(v.Z))
	}
	return buf
}

func packIndices(indices []uint32) []byte {
	buf := make([]byte, uint64(len(indices))*metadata.IndexStride)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*int(metadata.IndexStride):], idx)
	}
	return buf
}
