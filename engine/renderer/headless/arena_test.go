package headless

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

func TestDeviceArenaAlignment(t *testing.T) {
	arena := NewDeviceArena(1024)

	// A 12-byte vertex run followed by another forces alignment padding.
	first := arena.WriteVertices([]math.Vec3{math.NewVec3(1, 2, 3)})
	second := arena.WriteVertices([]math.Vec3{math.NewVec3(4, 5, 6)})

	assert.Zero(t, uint64(first)%metadata.VertexAddressAlignment)
	assert.Zero(t, uint64(second)%metadata.VertexAddressAlignment)
	assert.NotEqual(t, first, second)
}

func TestDeviceArenaReadBack(t *testing.T) {
	arena := NewDeviceArena(1024)

	vertices := []math.Vec3{
		math.NewVec3(-0.5, 0, -0.5),
		math.NewVec3(0.5, 0, -0.5),
		math.NewVec3(0, 1, 0),
	}
	indices := []uint32{0, 1, 2}

	va := arena.WriteVertices(vertices)
	ia := arena.WriteIndices(indices)

	for i, want := range vertices {
		got := arena.VertexAt(va, uint32(i))
		assert.Equal(t, want, got, "vertex %d", i)
	}
	for i, want := range indices {
		assert.Equal(t, want, arena.IndexAt(ia, uint32(i)), "index %d", i)
	}
}

func TestDeviceArenaGrowth(t *testing.T) {
	arena := NewDeviceArena(16)

	vertices := make([]math.Vec3, 64)
	for i := range vertices {
		vertices[i] = math.NewVec3(float32(i), 0, 0)
	}
	address := arena.WriteVertices(vertices)

	assert.Equal(t, float32(63), arena.VertexAt(address, 63).X)
	assert.GreaterOrEqual(t, arena.Used(), uint64(len(vertices))*metadata.VertexStride)
}
