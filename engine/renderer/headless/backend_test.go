package headless

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

func uploadTriangle(t *testing.T, hr *HeadlessRenderer, name string) *metadata.Geometry {
	t.Helper()
	geometry := &metadata.Geometry{Name: name}
	err := hr.CreateGeometry(geometry,
		[]math.Vec3{
			math.NewVec3(-1, 0, -1),
			math.NewVec3(1, 0, -1),
			math.NewVec3(0, 0, 1),
		},
		[]uint32{0, 1, 2})
	require.NoError(t, err)
	return geometry
}

func TestTableGrowOnlyAndBounds(t *testing.T) {
	hr := New()
	require.NoError(t, hr.AccelTableResize(4))
	assert.Equal(t, uint32(4), hr.AccelTableLength())

	// Shrinking would orphan slots that dispatches may still index.
	assert.Error(t, hr.AccelTableResize(2))

	err := hr.AccelTableWrite(4, 1)
	assert.True(t, errors.Is(err, core.ErrSlotOutOfRange))

	require.NoError(t, hr.ImageTableResize(2))
	err = hr.ImageTableWrite(2, 1)
	assert.True(t, errors.Is(err, core.ErrSlotOutOfRange))
}

func TestTableWritesRejectedDuringFrame(t *testing.T) {
	hr := New()
	require.NoError(t, hr.AccelTableResize(4))
	require.NoError(t, hr.ImageTableResize(4))

	require.NoError(t, hr.BeginFrame(0.016))
	assert.Error(t, hr.AccelTableWrite(0, 1))
	assert.Error(t, hr.ImageTableWrite(0, 1))
	assert.Error(t, hr.AccelTableResize(8))
	require.NoError(t, hr.EndFrame(0.016))

	assert.NoError(t, hr.AccelTableWrite(0, 1))
	assert.NoError(t, hr.ImageTableWrite(0, 1))
}

func TestGeometryUploadAddresses(t *testing.T) {
	hr := New()
	geometry := uploadTriangle(t, hr, "tri")

	assert.NotZero(t, geometry.VertexAddress)
	assert.NotZero(t, geometry.IndexAddress)
	assert.Zero(t, uint64(geometry.VertexAddress)%metadata.VertexAddressAlignment)
	assert.Equal(t, uint32(3), geometry.VertexCount)
	assert.Equal(t, uint32(3), geometry.IndexCount)

	// Reads go through the raw addresses the way the hit shaders fetch.
	assert.Equal(t, math.NewVec3(-1, 0, -1), hr.VertexAt(geometry.VertexAddress, 0))
	assert.Equal(t, uint32(2), hr.IndexAt(geometry.IndexAddress, 2))
}

// A structure bound at slot 2 must be exactly what a dispatch carrying
// accel_index=2 traverses, with output routed by output_image alone.
func TestDispatchRouting(t *testing.T) {
	hr := New()
	require.NoError(t, hr.AccelTableResize(8))
	require.NoError(t, hr.ImageTableResize(4))

	geometry := uploadTriangle(t, hr, "structure-a")
	handleA, err := hr.CreateAccelerationStructure(geometry)
	require.NoError(t, err)

	other := uploadTriangle(t, hr, "structure-b")
	handleB, err := hr.CreateAccelerationStructure(other)
	require.NoError(t, err)

	require.NoError(t, hr.AccelTableWrite(2, handleA))
	require.NoError(t, hr.AccelTableWrite(3, handleB))

	target, err := hr.CreateRenderTarget("out", 16, 16)
	require.NoError(t, err)
	require.NoError(t, hr.ImageTableWrite(0, target))

	constants := &metadata.RayDispatchConstants{
		OutputImage:   0,
		AccelIndex:    2,
		VertexAddress: geometry.VertexAddress,
		IndexAddress:  geometry.IndexAddress,
		Time:          0.5,
	}

	require.NoError(t, hr.BeginFrame(0.016))
	require.NoError(t, hr.TraceRays(constants, 16, 16))
	require.NoError(t, hr.EndFrame(0.016))

	traces := hr.Traces()
	require.Len(t, traces, 1)
	assert.Equal(t, handleA, traces[0].Accel)
	assert.Equal(t, target, traces[0].Output)
	assert.Equal(t, float32(0.5), traces[0].Time)
	assert.Equal(t, uint64(1), hr.Target(target).Writes)
}

func TestDispatchUnpopulatedSlot(t *testing.T) {
	hr := New()
	require.NoError(t, hr.AccelTableResize(4))
	require.NoError(t, hr.ImageTableResize(4))

	geometry := uploadTriangle(t, hr, "tri")
	constants := &metadata.RayDispatchConstants{
		AccelIndex:    1, // in range but never written
		VertexAddress: geometry.VertexAddress,
		IndexAddress:  geometry.IndexAddress,
	}

	require.NoError(t, hr.BeginFrame(0.016))
	err := hr.TraceRays(constants, 8, 8)
	assert.True(t, errors.Is(err, core.ErrSlotNotPopulated))
}

// Two dispatches with identical constants must produce identical pixels.
func TestDispatchDeterminism(t *testing.T) {
	hr := New()
	require.NoError(t, hr.AccelTableResize(4))
	require.NoError(t, hr.ImageTableResize(4))

	geometry := uploadTriangle(t, hr, "tri")
	handle, err := hr.CreateAccelerationStructure(geometry)
	require.NoError(t, err)
	require.NoError(t, hr.AccelTableWrite(0, handle))

	targetA, err := hr.CreateRenderTarget("a", 32, 32)
	require.NoError(t, err)
	targetB, err := hr.CreateRenderTarget("b", 32, 32)
	require.NoError(t, err)
	require.NoError(t, hr.ImageTableWrite(0, targetA))
	require.NoError(t, hr.ImageTableWrite(1, targetB))

	base := metadata.RayDispatchConstants{
		AccelIndex:    0,
		VertexAddress: geometry.VertexAddress,
		IndexAddress:  geometry.IndexAddress,
		Time:          2.25,
	}
	first := base
	first.OutputImage = 0
	second := base
	second.OutputImage = 1

	require.NoError(t, hr.BeginFrame(0.016))
	require.NoError(t, hr.TraceRays(&first, 32, 32))
	require.NoError(t, hr.TraceRays(&second, 32, 32))
	require.NoError(t, hr.EndFrame(0.016))

	assert.Equal(t, hr.Target(targetA).Pixels, hr.Target(targetB).Pixels)
}

// Rebinding a slot between frames: dispatches of the next frame see the new
// structure, never a partial state.
func TestSlotRebindBetweenFrames(t *testing.T) {
	hr := New()
	require.NoError(t, hr.AccelTableResize(4))
	require.NoError(t, hr.ImageTableResize(4))

	geometry := uploadTriangle(t, hr, "tri")
	first, err := hr.CreateAccelerationStructure(geometry)
	require.NoError(t, err)
	second, err := hr.CreateAccelerationStructure(geometry)
	require.NoError(t, err)

	target, err := hr.CreateRenderTarget("out", 8, 8)
	require.NoError(t, err)
	require.NoError(t, hr.ImageTableWrite(0, target))
	require.NoError(t, hr.AccelTableWrite(1, first))

	constants := &metadata.RayDispatchConstants{
		AccelIndex:    1,
		VertexAddress: geometry.VertexAddress,
		IndexAddress:  geometry.IndexAddress,
	}

	require.NoError(t, hr.BeginFrame(0.016))
	require.NoError(t, hr.TraceRays(constants, 8, 8))
	require.NoError(t, hr.EndFrame(0.016))

	require.NoError(t, hr.AccelTableWrite(1, second))

	require.NoError(t, hr.BeginFrame(0.016))
	require.NoError(t, hr.TraceRays(constants, 8, 8))
	require.NoError(t, hr.EndFrame(0.016))

	traces := hr.Traces()
	require.Len(t, traces, 2)
	assert.Equal(t, first, traces[0].Accel)
	assert.Equal(t, second, traces[1].Accel)
}
