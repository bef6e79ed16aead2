package model

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/Carmen-Shannon/oxy-csg/engine/geometry"
	"github.com/Carmen-Shannon/oxy-csg/engine/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quad() geometry.Geometry {
	n := math32.Vec3(0, 0, 1)
	return geometry.NewGeometry(
		geometry.WithPositions([]math32.Vector3{
			math32.Vec3(0, 0, 0), math32.Vec3(2, 0, 0), math32.Vec3(2, 2, 0), math32.Vec3(0, 2, 0),
		}),
		geometry.WithNormals([]math32.Vector3{n, n, n, n}),
		geometry.WithIndices([]uint32{0, 1, 2, 0, 2, 3}),
	)
}

func TestNewModel_PacksGeometry(t *testing.T) {
	mat := material.NewMaterial()
	m := NewModel(WithName("result"), WithGeometry(quad()), WithMaterial(mat))

	assert.Equal(t, "result", m.Name())
	assert.Equal(t, 4, m.VertexCount())
	assert.Equal(t, 6, m.IndexCount())
	assert.Len(t, m.VertexData(), 4*GPUVertexSize)
	assert.Len(t, m.IndexData(), 6*4)
	assert.Equal(t, [3]float32{1, 1, 0}, m.BoundingCenter())
	assert.InDelta(t, 1.41421, m.BoundingRadius(), 1e-4)

	v := m.Vertices()[2]
	assert.Equal(t, [2]float32{1, 1}, v.TexCoord)
	assert.Equal(t, [4]float32(mat.Snapshot().Color), v.Color)
	assert.Equal(t, v, UnmarshalGPUVertex(m.VertexData()[2*GPUVertexSize:]))
}

func TestGPUVertex_Marshal(t *testing.T) {
	v := GPUVertex{
		Position: [3]float32{1, 2, 3},
		Normal:   [3]float32{0, 1, 0},
		TexCoord: [2]float32{0.5, 0.25},
		Color:    [4]float32{1, 0, 0, 1},
		Tangent:  [4]float32{1, 0, 0, 1},
	}
	assert.Equal(t, GPUVertexSize, v.Size())
	buf := v.Marshal()
	require.Len(t, buf, GPUVertexSize)
	assert.Equal(t, v, UnmarshalGPUVertex(buf))
}

func TestModel_ReleaseDisposesOnce(t *testing.T) {
	ledger := geometry.NewLedger()
	g := geometry.NewGeometry(
		geometry.WithPositions([]math32.Vector3{math32.Vec3(0, 0, 0), math32.Vec3(1, 0, 0), math32.Vec3(0, 1, 0)}),
		geometry.WithLedger(ledger),
	)
	m := NewModel(WithGeometry(g))

	m.Release()
	m.Release()

	assert.True(t, m.Released())
	assert.True(t, g.Disposed())
	assert.Equal(t, int64(1), ledger.Released())
	assert.Equal(t, 3, m.VertexCount(), "packed buffers survive release")
}
