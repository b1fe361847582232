package metadata

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/spaghettifunk/lumen/engine/core"
)

// Byte layout of RayDispatchConstants. This is an ABI shared with the
// push-constant block declared in shaders/rt_shared.h; both sides must
// change together.
const (
	RayDispatchOutputImageOffset   = 0
	RayDispatchAccelIndexOffset    = 4
	RayDispatchVertexAddressOffset = 8
	RayDispatchIndexAddressOffset  = 16
	RayDispatchTimeOffset          = 24
	RayDispatchPaddingOffset       = 28
	/** @brief Total record size: 40 bytes of fields rounded up to a
	16-byte-aligned 48 bytes by the reserved padding. */
	RayDispatchConstantsSize = 48
)

/**
 * @brief The per-dispatch resource descriptor, pushed to every ray-tracing
 * dispatch as its push-constant block. It is the only state a ray-generation
 * or closest-hit invocation gets: where to write, what to traverse and where
 * the raw geometry lives. Exactly one is built per dispatch by the host.
 */
type RayDispatchConstants struct {
	/** @brief Index into the bindless storage-image table identifying the write target. */
	OutputImage uint32
	/** @brief Index into the bindless acceleration-structure table. */
	AccelIndex uint32
	/** @brief Base address of the packed vertex position array (3 x f32 per element). */
	VertexAddress DeviceAddress
	/** @brief Base address of the packed u32 index array. */
	IndexAddress DeviceAddress
	/** @brief Elapsed session time in seconds. Monotonically non-decreasing across dispatches. */
	Time float32
	/** @brief Reserved. Must stay zero-filled; exists only for the 16-byte record alignment. */
	Padding [3]float32
}

// Size returns the size of the record in bytes as laid out on the wire.
func (c *RayDispatchConstants) Size() int {
	return RayDispatchConstantsSize
}

// Marshal serializes the record into the exact little-endian byte layout the
// shader side reads. All padding bytes are written as zero.
func (c *RayDispatchConstants) Marshal() []byte {
	buf := make([]byte, RayDispatchConstantsSize)
	binary.LittleEndian.PutUint32(buf[RayDispatchOutputImageOffset:], c.OutputImage)
	binary.LittleEndian.PutUint32(buf[RayDispatchAccelIndexOffset:], c.AccelIndex)
	binary.LittleEndian.PutUint64(buf[RayDispatchVertexAddressOffset:], uint64(c.VertexAddress))
	binary.LittleEndian.PutUint64(buf[RayDispatchIndexAddressOffset:], uint64(c.IndexAddress))
	binary.LittleEndian.PutUint32(buf[RayDispatchTimeOffset:], math.Float32bits(c.Time))
	// bytes 28..48 stay zero
	return buf
}

// UnmarshalRayDispatchConstants reads a record back from its byte layout.
func UnmarshalRayDispatchConstants(buf []byte) (*RayDispatchConstants, error) {
	if len(buf) < RayDispatchConstantsSize {
		return nil, fmt.Errorf("ray dispatch constants need %d bytes, got %d", RayDispatchConstantsSize, len(buf))
	}
	c := &RayDispatchConstants{
		OutputImage:   binary.LittleEndian.Uint32(buf[RayDispatchOutputImageOffset:]),
		AccelIndex:    binary.LittleEndian.Uint32(buf[RayDispatchAccelIndexOffset:]),
		VertexAddress: DeviceAddress(binary.LittleEndian.Uint64(buf[RayDispatchVertexAddressOffset:])),
		IndexAddress:  DeviceAddress(binary.LittleEndian.Uint64(buf[RayDispatchIndexAddressOffset:])),
		Time:          math.Float32frombits(binary.LittleEndian.Uint32(buf[RayDispatchTimeOffset:])),
	}
	for i := 0; i < 3; i++ {
		c.Padding[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[RayDispatchPaddingOffset+i*4:]))
	}
	return c, nil
}

// Validate checks the host-side construction invariants: zero padding and a
// vertex address honoring the declared buffer-reference alignment. It never
// checks index ranges; those belong to the systems that own the tables.
func (c *RayDispatchConstants) Validate() error {
	if c.Padding[0] != 0 || c.Padding[1] != 0 || c.Padding[2] != 0 {
		return fmt.Errorf("ray dispatch constants: %w", core.ErrPaddingNotZero)
	}
	if uint64(c.VertexAddress)%VertexAddressAlignment != 0 {
		return fmt.Errorf("ray dispatch constants: vertex address %#x not %d-byte aligned", uint64(c.VertexAddress), VertexAddressAlignment)
	}
	return nil
}
