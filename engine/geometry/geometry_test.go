package geometry

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tetra builds a unit right tetrahedron with outward winding.
func tetra(options ...GeometryBuilderOption) Geometry {
	opts := append([]GeometryBuilderOption{
		WithPositions([]math32.Vector3{
			math32.Vec3(0, 0, 0),
			math32.Vec3(1, 0, 0),
			math32.Vec3(0, 1, 0),
			math32.Vec3(0, 0, 1),
		}),
		WithIndices([]uint32{
			0, 2, 1,
			0, 1, 3,
			0, 3, 2,
			1, 2, 3,
		}),
	}, options...)
	return NewGeometry(opts...)
}

func TestNewGeometry_Counts(t *testing.T) {
	g := tetra(WithLabel("tetra"))

	assert.Equal(t, "tetra", g.Label())
	assert.Equal(t, 4, g.VertexCount())
	assert.Equal(t, 4, g.TriangleCount())
	assert.Len(t, g.Normals(), 4, "missing normals are zero-filled")
	assert.NotZero(t, g.ID())
}

func TestNewGeometry_DefaultIndices(t *testing.T) {
	g := NewGeometry(WithPositions([]math32.Vector3{
		math32.Vec3(0, 0, 0), math32.Vec3(1, 0, 0), math32.Vec3(0, 1, 0),
	}))
	assert.Equal(t, []uint32{0, 1, 2}, g.Indices())
	assert.Equal(t, 1, g.TriangleCount())
}

func TestGeometry_Bounds(t *testing.T) {
	b := tetra().Bounds()
	assert.Equal(t, math32.Vec3(0, 0, 0), b.Min)
	assert.Equal(t, math32.Vec3(1, 1, 1), b.Max)

	assert.True(t, NewGeometry().Bounds().IsEmpty())
}

func TestGeometry_Volume(t *testing.T) {
	assert.InDelta(t, 1.0/6.0, tetra().Volume(), 1e-6)
}

func TestGeometry_DisposeIsIdempotent(t *testing.T) {
	ledger := NewLedger()
	g := tetra(WithLedger(ledger))
	require.Equal(t, int64(1), ledger.Live())

	g.Dispose()
	g.Dispose()

	assert.True(t, g.Disposed())
	assert.Nil(t, g.Positions())
	assert.Zero(t, g.TriangleCount())
	assert.Equal(t, int64(1), ledger.Allocated())
	assert.Equal(t, int64(1), ledger.Released())
	assert.Zero(t, ledger.Live())
}

func TestEquivalent(t *testing.T) {
	a, b := tetra(), tetra()
	assert.True(t, Equivalent(a, b, 1e-6))

	c := NewGeometry(WithPositions([]math32.Vector3{
		math32.Vec3(0, 0, 0), math32.Vec3(2, 0, 0), math32.Vec3(0, 2, 0),
	}))
	assert.False(t, Equivalent(a, c, 1e-6))
	assert.True(t, Equivalent(NewGeometry(), NewGeometry(), 0))
}
