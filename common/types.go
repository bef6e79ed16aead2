// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"
	"strconv"
	"strings"
)

// Placement is the affine transform applied to a primitive before boolean evaluation.
// Rotation is expressed as Euler angles in radians, applied in Y * X * Z order (see BuildModelMatrix).
// Placement is a comparable value type; two placements are equal when every component matches.
type Placement struct {
	// Position is the translation in world space.
	Position [3]float32
	// Rotation holds the Euler angles (radians) around the X, Y and Z axes.
	Rotation [3]float32
	// Scale holds the per-axis scale factors.
	Scale [3]float32
}

// IdentityPlacement returns a placement at the origin with no rotation and unit scale.
//
// Returns:
//   - Placement: the identity placement
func IdentityPlacement() Placement {
	return Placement{Scale: [3]float32{1, 1, 1}}
}

// At returns a unit-scale, unrotated placement at the given position.
//
// Parameters:
//   - x, y, z: translation in world space
//
// Returns:
//   - Placement: the placement
func At(x, y, z float32) Placement {
	return Placement{Position: [3]float32{x, y, z}, Scale: [3]float32{1, 1, 1}}
}

// Matrix returns the column-major 4x4 model matrix for the placement.
//
// Returns:
//   - [16]float32: the model matrix
func (p Placement) Matrix() [16]float32 {
	var m [16]float32
	BuildModelMatrix(m[:],
		p.Position[0], p.Position[1], p.Position[2],
		p.Rotation[0], p.Rotation[1], p.Rotation[2],
		p.Scale[0], p.Scale[1], p.Scale[2],
	)
	return m
}

// Degenerate reports whether any scale component is zero, which collapses the solid.
func (p Placement) Degenerate() bool {
	return p.Scale[0] == 0 || p.Scale[1] == 0 || p.Scale[2] == 0
}

// String implements fmt.Stringer.
func (p Placement) String() string {
	return fmt.Sprintf("pos(%.3g, %.3g, %.3g) rot(%.3g, %.3g, %.3g) scale(%.3g, %.3g, %.3g)",
		p.Position[0], p.Position[1], p.Position[2],
		p.Rotation[0], p.Rotation[1], p.Rotation[2],
		p.Scale[0], p.Scale[1], p.Scale[2],
	)
}

// Color is a linear RGBA color with components in [0, 1].
type Color [4]float32

// ParseHexColor parses "#rrggbb", "rrggbb" or "0xrrggbb" into an opaque Color.
//
// Parameters:
//   - s: the hex string
//
// Returns:
//   - Color: the parsed color (alpha = 1)
//   - error: if s is not a 6-digit hex color
func ParseHexColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "#"), "0x")
	if len(h) != 6 {
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return Color{
		float32((v>>16)&0xff) / 255,
		float32((v>>8)&0xff) / 255,
		float32(v&0xff) / 255,
		1,
	}, nil
}

// Hex formats the RGB components as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", to8(c[0]), to8(c[1]), to8(c[2]))
}

// RGBA8 returns the color as 8-bit components.
func (c Color) RGBA8() (r, g, b, a uint8) {
	return to8(c[0]), to8(c[1]), to8(c[2]), to8(c[3])
}

func to8(v float32) uint8 {
	return uint8(Clamp(v, 0, 1)*255 + 0.5)
}
