package brush

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/primitive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBrush_Defaults(t *testing.T) {
	r := primitive.NewRegistry(primitive.WithResolution(primitive.ResolutionLow))

	b, err := NewBrush(r, primitive.KindSphere)
	require.NoError(t, err)

	assert.Equal(t, "sphere", b.Name())
	assert.Equal(t, primitive.KindSphere, b.Kind())
	assert.Equal(t, common.IdentityPlacement(), b.Placement())
	assert.False(t, b.Baked())
	assert.NotNil(t, b.Mesh())
}

func TestNewBrush_UnknownKind(t *testing.T) {
	r := primitive.NewRegistry()
	b, err := NewBrush(r, primitive.Kind(77))
	assert.Nil(t, b)
	assert.ErrorIs(t, err, primitive.ErrUnknownKind)
}

func TestBrush_BakeDoesNotMutate(t *testing.T) {
	r := primitive.NewRegistry(primitive.WithResolution(primitive.ResolutionLow))
	b, err := NewBrush(r, primitive.KindBox, WithName("brush2"), WithPosition(0.4, 0, 0))
	require.NoError(t, err)

	baked := b.Bake()
	assert.False(t, b.Baked(), "original stays unbaked")
	assert.True(t, baked.Baked())
	assert.Same(t, baked, baked.Bake())

	m := baked.WorldMatrix()
	assert.InDelta(t, 0.4, m[12], 1e-6)
	assert.InDelta(t, 1.0, m[0], 1e-6)
	assert.Equal(t, "brush2", baked.Name())
	assert.Same(t, b.Mesh(), baked.Mesh(), "base mesh is shared")
}

func TestBrush_WithPlacementUnbakes(t *testing.T) {
	r := primitive.NewRegistry(primitive.WithResolution(primitive.ResolutionLow))
	baked, err := NewBaked(r, primitive.KindCone, WithScale(2, 2, 2))
	require.NoError(t, err)
	require.True(t, baked.Baked())

	moved := baked.WithPlacement(common.At(1, 2, 3))
	assert.False(t, moved.Baked())
	assert.Equal(t, [3]float32{1, 2, 3}, moved.Placement().Position)
	assert.Equal(t, [3]float32{2, 2, 2}, baked.Placement().Scale)
}

func TestBrush_Rotation(t *testing.T) {
	r := primitive.NewRegistry(primitive.WithResolution(primitive.ResolutionLow))
	b, err := NewBaked(r, primitive.KindBox, WithRotation(0, 0, 1.5707964))
	require.NoError(t, err)

	m := b.WorldMatrix()
	x, y, _ := common.TransformPoint(m[:], 1, 0, 0)
	assert.InDelta(t, 0, x, 1e-5)
	assert.InDelta(t, 1, y, 1e-5)
}
