package model

import (
	"sync/atomic"

	"cogentcore.org/core/math32"
	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/geometry"
	"github.com/Carmen-Shannon/oxy-csg/engine/material"
)

// model is the implementation of the Model interface.
type model struct {
	name           string
	geometry       geometry.Geometry
	material       material.Material
	vertices       []GPUVertex
	indices        []uint32
	vertexData     []byte
	indexData      []byte
	indexCount     int
	boundingCenter [3]float32
	boundingRadius float32
	released       atomic.Bool
}

// Model is a displayable mesh: a geometry packed into interleaved vertex and index buffers,
// paired with the material it is drawn with.
type Model interface {
	// Name retrieves the model name.
	//
	// Returns:
	//   - string: the name of the model
	Name() string

	// Geometry returns the source geometry the buffers were packed from.
	//
	// Returns:
	//   - geometry.Geometry: the geometry
	Geometry() geometry.Geometry

	// Material returns the material the model is drawn with. May be shared with other models.
	//
	// Returns:
	//   - material.Material: the material, or nil
	Material() material.Material

	// Vertices returns the packed vertices.
	//
	// Returns:
	//   - []GPUVertex: the vertices
	Vertices() []GPUVertex

	// Indices returns the triangle indices into Vertices.
	//
	// Returns:
	//   - []uint32: the indices
	Indices() []uint32

	// VertexData returns the packed vertices as raw bytes (GPUVertexSize per vertex).
	//
	// Returns:
	//   - []byte: vertex bytes
	VertexData() []byte

	// IndexData returns the triangle indices as raw uint32 bytes.
	//
	// Returns:
	//   - []byte: index bytes
	IndexData() []byte

	// IndexCount returns the number of indices.
	//
	// Returns:
	//   - int: index count
	IndexCount() int

	// VertexCount returns the number of vertices.
	//
	// Returns:
	//   - int: vertex count
	VertexCount() int

	// BoundingCenter returns the center of the bounding sphere in model space.
	//
	// Returns:
	//   - [3]float32: the center
	BoundingCenter() [3]float32

	// BoundingRadius returns the radius of the bounding sphere around BoundingCenter.
	//
	// Returns:
	//   - float32: the radius
	BoundingRadius() float32

	// Release disposes the source geometry. The packed buffers stay readable so a frame
	// that is already drawing the model can finish; subsequent calls are no-ops.
	Release()

	// Released reports whether Release has been called.
	//
	// Returns:
	//   - bool: true once released
	Released() bool
}

var _ Model = &model{}

// NewModel creates a new Model. When a geometry is supplied the vertex and index buffers are
// packed from it, colored with the material's base color.
//
// Parameters:
//   - options: functional options to configure the model
//
// Returns:
//   - Model: the newly created model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	if m.geometry != nil && m.vertexData == nil {
		m.pack()
	}
	return m
}

// pack interleaves the geometry into GPUVertex records. UVs are a planar XY projection over the bounds.
func (m *model) pack() {
	color := common.Color{1, 1, 1, 1}
	if m.material != nil {
		color = m.material.Snapshot().Color
	}

	positions := m.geometry.Positions()
	normals := m.geometry.Normals()
	bounds := m.geometry.Bounds()
	size := bounds.Size()

	m.vertices = make([]GPUVertex, len(positions))
	for i, p := range positions {
		n := normals[i]
		var uv [2]float32
		if size.X > 0 {
			uv[0] = (p.X - bounds.Min.X) / size.X
		}
		if size.Y > 0 {
			uv[1] = (p.Y - bounds.Min.Y) / size.Y
		}
		m.vertices[i] = GPUVertex{
			Position: [3]float32{p.X, p.Y, p.Z},
			Normal:   [3]float32{n.X, n.Y, n.Z},
			TexCoord: uv,
			Color:    color,
			Tangent:  tangent(n),
		}
	}

	indices := m.geometry.Indices()
	m.indices = indices
	m.vertexData = common.SliceToBytes(m.vertices)
	m.indexData = common.SliceToBytes(indices)
	m.indexCount = len(indices)

	if !bounds.IsEmpty() {
		c := bounds.Center()
		m.boundingCenter = [3]float32{c.X, c.Y, c.Z}
	}
	m.boundingRadius = ComputeBoundingRadius(m.vertices, m.boundingCenter)
}

// tangent picks any unit vector perpendicular to n.
func tangent(n math32.Vector3) [4]float32 {
	ref := math32.Vec3(0, 1, 0)
	if math32.Abs(n.Y) > 0.9 {
		ref = math32.Vec3(1, 0, 0)
	}
	t := ref.Cross(n).Normal()
	return [4]float32{t.X, t.Y, t.Z, 1}
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Geometry() geometry.Geometry {
	return m.geometry
}

func (m *model) Material() material.Material {
	return m.material
}

func (m *model) Vertices() []GPUVertex {
	return m.vertices
}

func (m *model) Indices() []uint32 {
	return m.indices
}

func (m *model) VertexData() []byte {
	return m.vertexData
}

func (m *model) IndexData() []byte {
	return m.indexData
}

func (m *model) IndexCount() int {
	return m.indexCount
}

func (m *model) VertexCount() int {
	return len(m.vertices)
}

func (m *model) BoundingCenter() [3]float32 {
	return m.boundingCenter
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *model) Release() {
	if m.released.Swap(true) {
		return
	}
	if m.geometry != nil {
		m.geometry.Dispose()
	}
}

func (m *model) Released() bool {
	return m.released.Load()
}
