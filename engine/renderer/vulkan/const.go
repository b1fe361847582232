package vulkan

import vk "github.com/goki/vulkan"

// Bindless binding slots in descriptor set 0. Shared by convention with the
// shader-side header (shaders/rt_bindless.h); adjacent slots belong to other
// bindless resource kinds declared there. Both sides must change together.
const (
	/** @brief The descriptor set carrying every bindless table. */
	BINDLESS_SET_INDEX uint32 = 0
	/** @brief Binding of the acceleration-structure table. */
	BINDLESS_BINDING_ACCEL_STRUCTURES uint32 = 5
	/** @brief Binding of the storage-image table. */
	BINDLESS_BINDING_STORAGE_IMAGES uint32 = 6
)

/**
 * @brief Max number of simultaneously bound acceleration structures
 * @todo TODO: make configurable
 */
const VULKAN_MAX_ACCEL_STRUCTURE_COUNT uint32 = 1024

/**
 * @brief Max number of simultaneously bound storage images
 * @todo TODO: make configurable
 */
const VULKAN_MAX_STORAGE_IMAGE_COUNT uint32 = 1024

/** @brief Max number of table writes that can be staged between two frames. */
const VULKAN_MAX_PENDING_TABLE_WRITES = 4096

// The ray-tracing extension is not wrapped by the binding, so its registry
// values are declared here.
const (
	// VK_DESCRIPTOR_TYPE_ACCELERATION_STRUCTURE_KHR
	descriptorTypeAccelerationStructure vk.DescriptorType = 1000150000
	// VK_STRUCTURE_TYPE_WRITE_DESCRIPTOR_SET_ACCELERATION_STRUCTURE_KHR
	structureTypeWriteDescriptorSetAccelerationStructure uint32 = 1000150007
	// VK_BUFFER_USAGE_SHADER_DEVICE_ADDRESS_BIT
	bufferUsageShaderDeviceAddressBit vk.BufferUsageFlagBits = 0x00020000
	// VK_BUFFER_USAGE_ACCELERATION_STRUCTURE_BUILD_INPUT_READ_ONLY_BIT_KHR
	bufferUsageAccelBuildInputReadOnlyBit vk.BufferUsageFlagBits = 0x00080000
)
