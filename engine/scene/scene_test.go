package scene

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/Carmen-Shannon/oxy-csg/engine/camera"
	"github.com/Carmen-Shannon/oxy-csg/engine/game_object"
	"github.com/Carmen-Shannon/oxy-csg/engine/geometry"
	"github.com/Carmen-Shannon/oxy-csg/engine/light"
	"github.com/Carmen-Shannon/oxy-csg/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangleObject(opts ...game_object.GameObjectBuilderOption) game_object.GameObject {
	g := geometry.NewGeometry(geometry.WithPositions([]math32.Vector3{
		math32.Vec3(-0.5, 0, 0), math32.Vec3(0.5, 0, 0), math32.Vec3(0, 0.5, 0),
	}))
	opts = append([]game_object.GameObjectBuilderOption{game_object.WithModel(model.NewModel(model.WithName("tri"), model.WithGeometry(g)))}, opts...)
	return game_object.NewGameObject(opts...)
}

func newTestScene(t *testing.T, opts ...SceneBuilderOption) Scene {
	t.Helper()
	s := NewScene("test", append([]SceneBuilderOption{WithComputeWorkers(2)}, opts...)...)
	t.Cleanup(s.Close)
	return s
}

func TestScene_AddGetRemove(t *testing.T) {
	s := newTestScene(t)

	id, err := s.Add(triangleObject())
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, 1, s.Count())
	assert.NotNil(t, s.Get(id))

	assert.True(t, s.Remove(id))
	assert.False(t, s.Remove(id))
	assert.Zero(t, s.Count())

	_, err = s.Add(game_object.NewGameObject())
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestScene_Slots(t *testing.T) {
	s := newTestScene(t)

	first := triangleObject()
	id, err := s.SetSlot("result", first)
	require.NoError(t, err)
	assert.Same(t, first, s.Slot("result"))

	_, err = s.SetSlot("result", triangleObject())
	assert.ErrorIs(t, err, ErrSlotOccupied)
	assert.Equal(t, 1, s.Count())

	removed, ok := s.ClearSlot("result")
	require.True(t, ok)
	assert.Equal(t, id, removed.ID())
	assert.Nil(t, s.Slot("result"))
	assert.Zero(t, s.Count())

	_, ok = s.ClearSlot("result")
	assert.False(t, ok)
}

func TestScene_RemoveFreesSlot(t *testing.T) {
	s := newTestScene(t)
	id, err := s.SetSlot("result", triangleObject())
	require.NoError(t, err)

	s.Remove(id)
	_, err = s.SetSlot("result", triangleObject())
	assert.NoError(t, err)
}

func TestScene_PrepareComputeAdvancesObjects(t *testing.T) {
	s := newTestScene(t)
	spinning := triangleObject(game_object.WithRotationSpeed(0, 1, 0))
	still := triangleObject(game_object.WithRotationSpeed(0, 1, 0), game_object.WithEnabled(false))
	_, err := s.Add(spinning)
	require.NoError(t, err)
	_, err = s.Add(still)
	require.NoError(t, err)

	s.PrepareCompute(0.5)

	_, ry, _ := spinning.Rotation()
	assert.InDelta(t, 0.5, ry, 1e-6)
	_, ry, _ = still.Rotation()
	assert.Zero(t, ry)
}

func TestScene_FrameCullsOutsideFrustum(t *testing.T) {
	cam := camera.NewCamera(camera.WithController(camera.NewOrbitController(camera.WithRadius(4))))
	sun := light.NewLight(light.LightTypeDirectional)
	s := newTestScene(t, WithCamera(cam), WithLights(sun))

	_, err := s.Add(triangleObject())
	require.NoError(t, err)
	_, err = s.Add(triangleObject(game_object.WithPosition(0, 0, -500)))
	require.NoError(t, err)

	f := s.Frame()
	assert.Len(t, f.Items, 1)
	assert.Equal(t, 1, f.Culled)
	assert.Len(t, f.Lights, 1)
	assert.Equal(t, cam.Eye(), f.Eye)
}

func TestScene_FrameWithoutCameraDrawsEverything(t *testing.T) {
	s := newTestScene(t)
	_, err := s.Add(triangleObject(game_object.WithPosition(0, 0, -500)))
	require.NoError(t, err)

	f := s.Frame()
	assert.Len(t, f.Items, 1)
	assert.Zero(t, f.Culled)
}
