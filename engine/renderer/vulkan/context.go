package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/**
 * @brief VulkanContext carries the device-level state this backend needs.
 * Instance/device/pipeline creation and acceleration-structure builds are
 * owned by the host's setup code; it fills in the handles and extension
 * procs below before the backend is initialized.
 */
type VulkanContext struct {
	// The framebuffer's current width.
	FramebufferWidth uint32
	// The framebuffer's current height.
	FramebufferHeight uint32

	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks

	Device         vk.Device
	PhysicalDevice vk.PhysicalDevice

	// Layout of the ray pipeline the push-constant block is recorded
	// against. Created by the pipeline owner.
	PipelineLayout vk.PipelineLayout

	// Command buffer dispatches are recorded into for the current frame.
	CommandBuffer vk.CommandBuffer

	// Extension procs the binding does not wrap; loaded by the device owner.
	// GetBufferDeviceAddress resolves a buffer to its raw device address.
	GetBufferDeviceAddress func(buffer vk.Buffer) metadata.DeviceAddress
	// CmdTraceRays records the actual trace command over the given grid.
	CmdTraceRays func(commandBuffer vk.CommandBuffer, width, height uint32)
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter, propertyFlags uint32) int32 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (uint32(memoryProperties.MemoryTypes[i].PropertyFlags)&propertyFlags) == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}
