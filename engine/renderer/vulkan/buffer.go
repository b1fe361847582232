package vulkan

import (
	"encoding/binary"
	"fmt"
	m "math"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// VK_STRUCTURE_TYPE_MEMORY_ALLOCATE_FLAGS_INFO / the device-address
// allocate flag; both newer than what the binding wraps.
const structureTypeMemoryAllocateFlagsInfo uint32 = 1000060000
const memoryAllocateDeviceAddressBit uint32 = 0x00000002

type memoryAllocateFlagsInfo struct {
	sType      uint32
	pNext      unsafe.Pointer
	flags      uint32
	deviceMask uint32
}

/**
 * @brief VulkanBufferArena is a single host-visible buffer whose contents
 * shaders reach through buffer-device-address. Geometry uploads are packed
 * into it at the declared alignments; a host-side mirror keeps reads off the
 * mapped pointer.
 */
type VulkanBufferArena struct {
	context *VulkanContext

	handle vk.Buffer
	memory vk.DeviceMemory
	mapped unsafe.Pointer
	mirror []byte

	baseAddress metadata.DeviceAddress
	totalSize   uint64
	next        uint64
}

func NewVulkanBufferArena(context *VulkanContext, totalSize uint64) (*VulkanBufferArena, error) {
	arena := &VulkanBufferArena{
		context:   context,
		totalSize: totalSize,
		mirror:    make([]byte, totalSize),
	}

	usage := vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit) |
		vk.BufferUsageFlags(bufferUsageShaderDeviceAddressBit) |
		vk.BufferUsageFlags(bufferUsageAccelBuildInputReadOnlyBit)
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(totalSize),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	if res := vk.CreateBuffer(context.Device, &bufferInfo, context.Allocator, &arena.handle); res != vk.Success {
		return nil, fmt.Errorf("failed to create buffer arena: %s", VulkanResultString(res))
	}

	var memRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device, arena.handle, &memRequirements)
	memRequirements.Deref()

	memoryIndex := context.FindMemoryIndex(memRequirements.MemoryTypeBits,
		uint32(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if memoryIndex < 0 {
		return nil, fmt.Errorf("no host-visible memory type for the buffer arena")
	}

	flagsInfo := &memoryAllocateFlagsInfo{
		sType: structureTypeMemoryAllocateFlagsInfo,
		flags: memoryAllocateDeviceAddressBit,
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		PNext:           unsafe.Pointer(flagsInfo),
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}
	if res := vk.AllocateMemory(context.Device, &allocInfo, context.Allocator, &arena.memory); res != vk.Success {
		return nil, fmt.Errorf("failed to allocate buffer arena memory: %s", VulkanResultString(res))
	}
	if res := vk.BindBufferMemory(context.Device, arena.handle, arena.memory, 0); res != vk.Success {
		return nil, fmt.Errorf("failed to bind buffer arena memory: %s", VulkanResultString(res))
	}
	if res := vk.MapMemory(context.Device, arena.memory, 0, vk.DeviceSize(totalSize), 0, &arena.mapped); res != vk.Success {
		return nil, fmt.Errorf("failed to map buffer arena memory: %s", VulkanResultString(res))
	}

	// The device-address proc is loaded by the device owner; without it the
	// arena cannot hand out references.
	if context.GetBufferDeviceAddress == nil {
		return nil, fmt.Errorf("VulkanContext.GetBufferDeviceAddress was not provided by the device owner")
	}
	arena.baseAddress = context.GetBufferDeviceAddress(arena.handle)
	return arena, nil
}

func (a *VulkanBufferArena) Destroy() {
	if a.memory != vk.NullDeviceMemory {
		vk.UnmapMemory(a.context.Device, a.memory)
		vk.FreeMemory(a.context.Device, a.memory, a.context.Allocator)
	}
	if a.handle != vk.NullBuffer {
		vk.DestroyBuffer(a.context.Device, a.handle, a.context.Allocator)
	}
	a.mirror = nil
}

// Allocate reserves size bytes at the given alignment and returns the
// device address of the region and its offset inside the arena.
func (a *VulkanBufferArena) Allocate(size, alignment uint64) (metadata.DeviceAddress, uint64, error) {
	offset := metadata.GetAligned(a.next, alignment)
	if offset+size > a.totalSize {
		return 0, 0, fmt.Errorf("buffer arena exhausted (%d of %d bytes used)", a.next, a.totalSize)
	}
	a.next = offset + size
	return a.baseAddress + metadata.DeviceAddress(offset), offset, nil
}

// Write copies data into the arena at offset, through both the mapped
// pointer and the host mirror.
func (a *VulkanBufferArena) Write(offset uint64, data []byte) {
	copy(a.mirror[offset:], data)
	vk.Memcopy(unsafe.Pointer(uintptr(a.mapped)+uintptr(offset)), data)
}

func (a *VulkanBufferArena) offsetOf(address metadata.DeviceAddress) uint64 {
	return uint64(address - a.baseAddress)
}

// VertexAt reads the i-th packed vertex position from the host mirror.
// Unchecked by design; this mirrors the shader-side access exactly.
func (a *VulkanBufferArena) VertexAt(address metadata.DeviceAddress, i uint32) math.Vec3 {
	o := a.offsetOf(address) + uint64(i)*metadata.VertexStride
	return math.Vec3{
		X: m.Float32frombits(binary.LittleEndian.Uint32(a.mirror[o:])),
		Y: m.Float32frombits(binary.LittleEndian.Uint32(a.mirror[o+4:])),
		Z: m.Float32frombits(binary.LittleEndian.Uint32(a.mirror[o+8:])),
	}
}

// IndexAt reads the i-th packed index from the host mirror.
func (a *VulkanBufferArena) IndexAt(address metadata.DeviceAddress, i uint32) uint32 {
	o := a.offsetOf(address) + uint64(i)*metadata.IndexStride
	return binary.LittleEndian.Uint32(a.mirror[o:])
}
