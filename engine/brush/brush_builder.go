package brush

import "github.com/Carmen-Shannon/oxy-csg/common"

type BrushBuilderOption func(*brushImpl)

// WithName sets the brush name.
//
// Parameters:
//   - name: the name
//
// Returns:
//   - BrushBuilderOption: a function that sets the name
func WithName(name string) BrushBuilderOption {
	return func(b *brushImpl) {
		b.name = name
	}
}

// WithPlacement sets the full placement transform.
//
// Parameters:
//   - placement: the placement
//
// Returns:
//   - BrushBuilderOption: a function that sets the placement
func WithPlacement(placement common.Placement) BrushBuilderOption {
	return func(b *brushImpl) {
		b.placement = placement
	}
}

// WithPosition sets the translation component of the placement.
//
// Parameters:
//   - x, y, z: translation in world space
//
// Returns:
//   - BrushBuilderOption: a function that sets the position
func WithPosition(x, y, z float32) BrushBuilderOption {
	return func(b *brushImpl) {
		b.placement.Position = [3]float32{x, y, z}
	}
}

// WithRotation sets the Euler rotation (radians) of the placement.
//
// Parameters:
//   - x, y, z: rotation around each axis in radians
//
// Returns:
//   - BrushBuilderOption: a function that sets the rotation
func WithRotation(x, y, z float32) BrushBuilderOption {
	return func(b *brushImpl) {
		b.placement.Rotation = [3]float32{x, y, z}
	}
}

// WithScale sets the per-axis scale of the placement.
//
// Parameters:
//   - x, y, z: scale factors
//
// Returns:
//   - BrushBuilderOption: a function that sets the scale
func WithScale(x, y, z float32) BrushBuilderOption {
	return func(b *brushImpl) {
		b.placement.Scale = [3]float32{x, y, z}
	}
}
