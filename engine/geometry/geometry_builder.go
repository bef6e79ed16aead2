package geometry

import "cogentcore.org/core/math32"

type GeometryBuilderOption func(*geometryImpl)

// WithLabel sets a human readable label, typically the primitive or operation that produced the mesh.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - GeometryBuilderOption: a function that sets the label
func WithLabel(label string) GeometryBuilderOption {
	return func(g *geometryImpl) {
		g.label = label
	}
}

// WithPositions sets the vertex positions. The slice is retained, not copied.
//
// Parameters:
//   - positions: vertex positions
//
// Returns:
//   - GeometryBuilderOption: a function that sets the positions
func WithPositions(positions []math32.Vector3) GeometryBuilderOption {
	return func(g *geometryImpl) {
		g.positions = positions
	}
}

// WithNormals sets the per-vertex normals. The slice is retained, not copied.
//
// Parameters:
//   - normals: vertex normals, parallel to the positions
//
// Returns:
//   - GeometryBuilderOption: a function that sets the normals
func WithNormals(normals []math32.Vector3) GeometryBuilderOption {
	return func(g *geometryImpl) {
		g.normals = normals
	}
}

// WithIndices sets the triangle index list. The slice is retained, not copied.
//
// Parameters:
//   - indices: three indices per triangle
//
// Returns:
//   - GeometryBuilderOption: a function that sets the indices
func WithIndices(indices []uint32) GeometryBuilderOption {
	return func(g *geometryImpl) {
		g.indices = indices
	}
}

// WithLedger attaches an allocation ledger that records the geometry's creation and release.
//
// Parameters:
//   - ledger: the ledger to record into (nil disables tracking)
//
// Returns:
//   - GeometryBuilderOption: a function that sets the ledger
func WithLedger(ledger *Ledger) GeometryBuilderOption {
	return func(g *geometryImpl) {
		g.ledger = ledger
	}
}
