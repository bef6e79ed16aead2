package light

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectional_Diffuse(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithDirection(0, -1, 0), WithIntensity(2))

	up := l.Diffuse([3]float32{5, 0, 5}, [3]float32{0, 1, 0})
	assert.InDelta(t, 2, up[0], 1e-5)

	down := l.Diffuse([3]float32{}, [3]float32{0, -1, 0})
	assert.Equal(t, [3]float32{}, down)
}

func TestPoint_Attenuation(t *testing.T) {
	l := NewLight(LightTypePoint, WithPosition(0, 0, 0), WithRange(4))

	dir, near := l.Incidence([3]float32{1, 0, 0})
	assert.InDelta(t, -1, dir[0], 1e-5)
	_, far := l.Incidence([3]float32{3, 0, 0})
	_, out := l.Incidence([3]float32{5, 0, 0})

	assert.Greater(t, near, far)
	assert.Zero(t, out)
}

func TestSpot_Cone(t *testing.T) {
	l := NewLight(LightTypeSpot, WithPosition(0, 5, 0), WithDirection(0, -1, 0), WithRange(20), WithSpotCone(10, 20))

	_, inside := l.Incidence([3]float32{0, 0, 0})
	_, outside := l.Incidence([3]float32{5, 0, 0})
	assert.Positive(t, inside)
	assert.Zero(t, outside)
}

func TestDisabled(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithEnabled(false))
	assert.Equal(t, [3]float32{}, l.Diffuse([3]float32{}, [3]float32{0, 1, 0}))
	assert.Equal(t, "directional", l.Type().String())
}
