package metadata

import "github.com/spaghettifunk/lumen/engine/math"

/**
 * @brief Configuration for a geometry upload: packed vertex positions and
 * u32 indices, exactly the formats the geometry reference buffers carry.
 */
type GeometryConfig struct {
	/** @brief The geometry name. */
	Name string
	/** @brief Packed vertex positions (12 bytes each on the wire). */
	Vertices []math.Vec3
	/** @brief Packed triangle indices. */
	Indices []uint32
}

/**
 * @brief An uploaded geometry. The two device addresses are what a
 * per-dispatch descriptor carries; everything else is host-side bookkeeping.
 */
type Geometry struct {
	/** @brief The unique geometry identifier. */
	ID uint32
	/** @brief The geometry generation. Incremented every time the geometry data changes. */
	Generation uint32
	/** @brief The geometry name. */
	Name string
	/** @brief The vertex count. */
	VertexCount uint32
	/** @brief The offset in bytes in the vertex buffer. */
	VertexBufferOffset uint64
	/** @brief Base device address of the packed vertex positions. 16-byte aligned. */
	VertexAddress DeviceAddress
	/** @brief The index count. */
	IndexCount uint32
	/** @brief The offset in bytes in the index buffer. */
	IndexBufferOffset uint64
	/** @brief Base device address of the packed indices. */
	IndexAddress DeviceAddress
}

/**
 * @brief One scene instance: a geometry placed in the world with a material
 * identifier riding on its custom index.
 */
type Instance struct {
	/** @brief The name of the geometry this instance references. */
	GeometryName string
	/** @brief Material identifier carried out-of-band via the instance custom index. */
	Material MaterialID
	/** @brief World position of the instance. */
	Position math.Vec3
	/** @brief Uniform scale of the instance. */
	Scale float32
}

/**
 * @brief Work for one frame: the per-dispatch descriptors to submit, in order.
 */
type RenderPacket struct {
	DeltaTime  float64
	Width      uint32
	Height     uint32
	Dispatches []*RayDispatchConstants
}
