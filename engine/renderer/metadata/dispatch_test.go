package metadata

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/lumen/engine/core"
)

func TestRayDispatchConstantsLayout(t *testing.T) {
	c := &RayDispatchConstants{
		OutputImage:   7,
		AccelIndex:    2,
		VertexAddress: 0x0000_0001_0000_0040,
		IndexAddress:  0x0000_0001_0000_1000,
		Time:          1.5,
	}

	buf := c.Marshal()
	assert.Equal(t, RayDispatchConstantsSize, len(buf))
	assert.Equal(t, RayDispatchConstantsSize, c.Size())

	// Field offsets are a wire contract with the shader push-constant block.
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(buf[0:]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(buf[4:]))
	assert.Equal(t, uint64(0x0000_0001_0000_0040), binary.LittleEndian.Uint64(buf[8:]))
	assert.Equal(t, uint64(0x0000_0001_0000_1000), binary.LittleEndian.Uint64(buf[16:]))
	assert.Equal(t, float32(1.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[24:])))
	for i := RayDispatchPaddingOffset; i < RayDispatchConstantsSize; i++ {
		assert.Equal(t, uint8(0), buf[i], "padding byte %d must be zero", i)
	}
}

func TestRayDispatchConstantsRoundTrip(t *testing.T) {
	c := &RayDispatchConstants{
		OutputImage:   1,
		AccelIndex:    42,
		VertexAddress: 0xdeadbeef0,
		IndexAddress:  0xcafebabe0,
		Time:          987.25,
	}
	back, err := UnmarshalRayDispatchConstants(c.Marshal())
	assert.NoError(t, err)
	assert.Equal(t, c, back)

	_, err = UnmarshalRayDispatchConstants(make([]byte, RayDispatchConstantsSize-1))
	assert.Error(t, err)
}

func TestRayDispatchConstantsValidate(t *testing.T) {
	c := &RayDispatchConstants{
		VertexAddress: 0x40,
		IndexAddress:  0x80,
	}
	assert.NoError(t, c.Validate())

	c.Padding[1] = 3.0
	err := c.Validate()
	assert.True(t, errors.Is(err, core.ErrPaddingNotZero))
	c.Padding[1] = 0

	c.VertexAddress = 0x44 // 4-byte aligned only
	assert.Error(t, c.Validate())
}
