package metadata

/** @brief An invalid id used for unregistered resources. */
const InvalidID uint32 = 4294967295

/** @brief An invalid 64-bit id. */
const InvalidIDUint64 uint64 = 18446744073709551615

/**
 * @brief An opaque handle to a GPU-resident acceleration structure (BVH).
 * 64 bits wide like any Vulkan non-dispatchable handle. The zero value is
 * never a live handle. Builds and destruction are owned by the host's
 * acceleration-structure builder, never by the bindless layer.
 */
type AccelerationStructureHandle uint64

/**
 * @brief An opaque handle to a GPU image usable as a storage-image write
 * target. Creation and lifetime belong to the image/swapchain owner.
 */
type ImageHandle uint64

/**
 * @brief A raw GPU buffer address obtained through buffer-device-address.
 * Shader code dereferences it directly, bypassing descriptor binding.
 * There is no bounds metadata and no ownership tracking at this layer;
 * whoever produced the address guarantees its validity.
 */
type DeviceAddress uint64

/**
 * @brief Alignment (in bytes) required of any DeviceAddress used as the
 * base of a vertex position array. Matches the buffer_reference_align
 * declared on the shader side.
 */
const VertexAddressAlignment uint64 = 16

/** @brief Byte stride of one packed vertex position (3 x f32, no padding). */
const VertexStride uint64 = 12

/** @brief Byte stride of one packed index (u32). */
const IndexStride uint64 = 4
