package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3Arithmetic(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, 5, 6)

	assert.Equal(t, NewVec3(5, 7, 9), a.Add(b))
	assert.Equal(t, NewVec3(-3, -3, -3), a.Sub(b))
	assert.Equal(t, NewVec3(2, 4, 6), a.MulScalar(2))
	assert.Equal(t, float32(32), a.Dot(b))
}

func TestVec3CrossAndNormalize(t *testing.T) {
	x := NewVec3(1, 0, 0)
	y := NewVec3(0, 1, 0)
	z := NewVec3(0, 0, 1)

	assert.True(t, x.Cross(y).Compare(z, K_FLOAT_EPSILON))
	assert.True(t, y.Cross(z).Compare(x, K_FLOAT_EPSILON))

	v := NewVec3(3, 4, 0)
	assert.InDelta(t, 5.0, float64(v.Length()), 1e-6)
	n := v.Normalize()
	assert.InDelta(t, 1.0, float64(n.Length()), 1e-6)
	assert.InDelta(t, 0.6, float64(n.X), 1e-6)
	assert.InDelta(t, 0.8, float64(n.Y), 1e-6)
}

func TestFRandomInRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		v := FRandomInRange(-2.5, 7.5)
		assert.GreaterOrEqual(t, v, float32(-2.5))
		assert.LessOrEqual(t, v, float32(7.5))
	}
}

func TestClampMinMax(t *testing.T) {
	assert.Equal(t, float32(1.0), Clamp(float32(3.0), 0.0, 1.0))
	assert.Equal(t, float32(0.0), Clamp(float32(-3.0), 0.0, 1.0))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0.0, 1.0))
	assert.Equal(t, uint32(3), Min(uint32(3), 9))
	assert.Equal(t, uint32(9), Max(uint32(3), 9))
}
