package game_object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGameObject_Defaults(t *testing.T) {
	obj := NewGameObject(WithName("result"))

	assert.True(t, obj.Enabled())
	sx, sy, sz := obj.Scale()
	assert.Equal(t, [3]float32{1, 1, 1}, [3]float32{sx, sy, sz})
	assert.Equal(t, "result", obj.Name())
	assert.Nil(t, obj.Model())
}

func TestGameObject_Advance(t *testing.T) {
	obj := NewGameObject(WithRotationSpeed(0, 0.5, 0))

	obj.Advance(2)
	_, ry, _ := obj.Rotation()
	assert.InDelta(t, 1.0, ry, 1e-6)

	for i := 0; i < 100; i++ {
		obj.Advance(1)
	}
	_, ry, _ = obj.Rotation()
	assert.Less(t, ry, float32(6.2831855))
}

func TestGameObject_ModelMatrix(t *testing.T) {
	obj := NewGameObject(WithPosition(1, 2, 3), WithScale(2, 2, 2))
	m := obj.ModelMatrix()

	assert.Equal(t, float32(2), m[0])
	assert.Equal(t, float32(2), m[5])
	assert.Equal(t, float32(2), m[10])
	assert.Equal(t, [3]float32{1, 2, 3}, [3]float32{m[12], m[13], m[14]})
}
