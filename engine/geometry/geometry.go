// Package geometry holds the indexed triangle mesh shared by primitives, boolean results and the display side.
package geometry

import (
	"sync"
	"sync/atomic"

	"cogentcore.org/core/math32"
)

// geometryCount hands out process-unique geometry ids.
var geometryCount atomic.Uint64

type geometryImpl struct {
	mu *sync.RWMutex

	id        uint64
	label     string
	positions []math32.Vector3
	normals   []math32.Vector3
	indices   []uint32
	bounds    math32.Box3
	disposed  bool
	ledger    *Ledger
}

// Geometry defines the interface for an indexed triangle mesh.
// Vertex data is read-only once constructed; the only state change a Geometry supports is Dispose.
type Geometry interface {
	// ID returns the process-unique identifier of this geometry.
	//
	// Returns:
	//   - uint64: the geometry id
	ID() uint64

	// Label returns the human readable label given at construction (may be empty).
	//
	// Returns:
	//   - string: the label
	Label() string

	// Positions returns the vertex positions. The returned slice must not be modified.
	// Returns nil after Dispose.
	//
	// Returns:
	//   - []math32.Vector3: vertex positions
	Positions() []math32.Vector3

	// Normals returns the per-vertex normals, parallel to Positions. The returned slice must not be modified.
	// Returns nil after Dispose.
	//
	// Returns:
	//   - []math32.Vector3: vertex normals
	Normals() []math32.Vector3

	// Indices returns the triangle index list (three per triangle). The returned slice must not be modified.
	// Returns nil after Dispose.
	//
	// Returns:
	//   - []uint32: triangle indices
	Indices() []uint32

	// VertexCount returns the number of vertices.
	//
	// Returns:
	//   - int: vertex count (0 after Dispose)
	VertexCount() int

	// TriangleCount returns the number of triangles.
	//
	// Returns:
	//   - int: triangle count (0 after Dispose)
	TriangleCount() int

	// Bounds returns the axis-aligned bounding box. Empty geometry has an empty box.
	//
	// Returns:
	//   - math32.Box3: the bounding box computed at construction
	Bounds() math32.Box3

	// Volume returns the signed enclosed volume computed with the divergence theorem.
	// Closed outward-facing meshes yield a positive value; open surfaces yield an approximation.
	//
	// Returns:
	//   - float32: the signed volume
	Volume() float32

	// Dispose releases the backing buffers. Subsequent calls are no-ops.
	Dispose()

	// Disposed reports whether Dispose has been called.
	//
	// Returns:
	//   - bool: true once disposed
	Disposed() bool
}

var _ Geometry = &geometryImpl{}

// NewGeometry creates a new Geometry from the given options.
// Normals default to zero vectors when not supplied; indices default to a triangle list over all vertices.
//
// Parameters:
//   - options: functional options supplying the vertex data
//
// Returns:
//   - Geometry: the newly created geometry
func NewGeometry(options ...GeometryBuilderOption) Geometry {
	g := &geometryImpl{
		mu: &sync.RWMutex{},
		id: geometryCount.Add(1),
	}
	for _, option := range options {
		option(g)
	}

	if len(g.normals) != len(g.positions) {
		normals := make([]math32.Vector3, len(g.positions))
		copy(normals, g.normals)
		g.normals = normals
	}
	if g.indices == nil {
		g.indices = make([]uint32, len(g.positions))
		for i := range g.indices {
			g.indices[i] = uint32(i)
		}
	}

	g.bounds = math32.B3Empty()
	for _, p := range g.positions {
		g.bounds.ExpandByPoint(p)
	}

	if g.ledger != nil {
		g.ledger.allocate()
	}
	return g
}

func (g *geometryImpl) ID() uint64 {
	return g.id
}

func (g *geometryImpl) Label() string {
	return g.label
}

func (g *geometryImpl) Positions() []math32.Vector3 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.positions
}

func (g *geometryImpl) Normals() []math32.Vector3 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.normals
}

func (g *geometryImpl) Indices() []uint32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.indices
}

func (g *geometryImpl) VertexCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.positions)
}

func (g *geometryImpl) TriangleCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.indices) / 3
}

func (g *geometryImpl) Bounds() math32.Box3 {
	return g.bounds
}

func (g *geometryImpl) Volume() float32 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var sum float64
	for i := 0; i+2 < len(g.indices); i += 3 {
		a := g.positions[g.indices[i]]
		b := g.positions[g.indices[i+1]]
		c := g.positions[g.indices[i+2]]
		sum += float64(a.Dot(b.Cross(c)))
	}
	return float32(sum / 6)
}

func (g *geometryImpl) Dispose() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.disposed {
		return
	}
	g.disposed = true
	g.positions = nil
	g.normals = nil
	g.indices = nil
	if g.ledger != nil {
		g.ledger.release()
	}
}

func (g *geometryImpl) Disposed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.disposed
}

// Equivalent reports whether two geometries are metrically the same: equal vertex and triangle
// counts and bounding boxes within tolerance.
//
// Parameters:
//   - a, b: the geometries to compare
//   - tolerance: maximum per-component difference of the bounding boxes
//
// Returns:
//   - bool: true if equivalent
func Equivalent(a, b Geometry, tolerance float32) bool {
	if a.VertexCount() != b.VertexCount() || a.TriangleCount() != b.TriangleCount() {
		return false
	}
	ab, bb := a.Bounds(), b.Bounds()
	if ab.IsEmpty() || bb.IsEmpty() {
		return ab.IsEmpty() == bb.IsEmpty()
	}
	return near(ab.Min, bb.Min, tolerance) && near(ab.Max, bb.Max, tolerance)
}

func near(a, b math32.Vector3, tolerance float32) bool {
	return math32.Abs(a.X-b.X) <= tolerance &&
		math32.Abs(a.Y-b.Y) <= tolerance &&
		math32.Abs(a.Z-b.Z) <= tolerance
}
