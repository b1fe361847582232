package metadata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/lumen/engine/core"
)

func TestMaterialIDClosedSet(t *testing.T) {
	assert.True(t, MaterialGround.Valid())
	assert.True(t, MaterialRedMetal.Valid())
	assert.True(t, MaterialBlueReflective.Valid())
	assert.True(t, MaterialGreen.Valid())
	assert.False(t, MaterialID(4).Valid())

	// Identifier values ride on the instance custom index and are an ABI.
	assert.Equal(t, uint32(0), uint32(MaterialGround))
	assert.Equal(t, uint32(1), uint32(MaterialRedMetal))
	assert.Equal(t, uint32(2), uint32(MaterialBlueReflective))
	assert.Equal(t, uint32(3), uint32(MaterialGreen))
}

func TestMaterialIDFromCustomIndex(t *testing.T) {
	m, err := MaterialIDFromCustomIndex(2)
	assert.NoError(t, err)
	assert.Equal(t, MaterialBlueReflective, m)

	_, err = MaterialIDFromCustomIndex(4)
	assert.True(t, errors.Is(err, core.ErrInvalidMaterial))
	_, err = MaterialIDFromCustomIndex(255)
	assert.True(t, errors.Is(err, core.ErrInvalidMaterial))
}

func TestLightingConstants(t *testing.T) {
	// LIGHT_DIR is normalized from (0.5, 0.8, -0.3) on both sides of the ABI.
	assert.InDelta(t, 1.0, float64(LightDir.Length()), 1e-6)
	assert.InDelta(t, 0.5/0.8, float64(LightDir.X/LightDir.Y), 1e-6)
	assert.InDelta(t, -0.3/0.8, float64(LightDir.Z/LightDir.Y), 1e-6)
	assert.Greater(t, LightDir.Y, float32(0))

	assert.Equal(t, float32(1.0), LightColor.X)
	assert.Equal(t, float32(0.95), LightColor.Y)
	assert.Equal(t, float32(0.8), LightColor.Z)
}
