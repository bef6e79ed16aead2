package light

import (
	"cogentcore.org/core/math32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Affects all surfaces uniformly with no distance attenuation.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// Attenuates with distance up to a configurable range.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along a direction.
	// Attenuates with both distance and angle from the cone axis.
	LightTypeSpot
)

func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	}
	return "unknown"
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType  LightType
	position   [3]float32
	direction  [3]float32
	color      [3]float32
	intensity  float32
	lightRange float32
	innerCone  float32 // stored as cos(angle in radians)
	outerCone  float32 // stored as cos(angle in radians)
	enabled    bool
}

// Light defines the interface for a light source used by the software renderers.
//
// All light types (directional, point, spot) share this interface; type-specific properties
// (e.g. cone angles for spot lights) are ignored when not applicable. Lights are configured
// before the frame loop starts and read concurrently by renderers afterwards.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Direction returns the normalized direction the light travels in.
	//
	// Returns:
	//   - [3]float32: normalized direction as (x, y, z)
	Direction() [3]float32

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Range returns the maximum attenuation distance for point and spot lights.
	//
	// Returns:
	//   - float32: the range value
	Range() float32

	// Enabled returns whether this light contributes to shading.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// Incidence returns the unit vector from a surface point toward the light and the
	// attenuation factor at that point.
	//
	// Parameters:
	//   - p: the world-space surface point
	//
	// Returns:
	//   - toLight: unit vector pointing at the light
	//   - attenuation: factor in [0, 1]; 0 when out of range or outside a spot cone
	Incidence(p [3]float32) (toLight [3]float32, attenuation float32)

	// Diffuse returns the Lambertian radiance the light delivers to a surface.
	//
	// Parameters:
	//   - p: the world-space surface point
	//   - n: the unit surface normal
	//
	// Returns:
	//   - [3]float32: RGB radiance
	Diffuse(p, n [3]float32) [3]float32
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create (directional, point, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType:  lightType,
		direction:  [3]float32{0, -1, 0},
		color:      [3]float32{1, 1, 1},
		intensity:  1.0,
		lightRange: 10.0,
		innerCone:  0.9063, // cos(25°)
		outerCone:  0.8192, // cos(35°)
		enabled:    true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() [3]float32 {
	return l.position
}

func (l *lightImpl) Direction() [3]float32 {
	return l.direction
}

func (l *lightImpl) Color() [3]float32 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	return l.lightRange
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) Incidence(p [3]float32) ([3]float32, float32) {
	if !l.enabled {
		return [3]float32{}, 0
	}
	if l.lightType == LightTypeDirectional {
		d := l.direction
		return [3]float32{-d[0], -d[1], -d[2]}, 1
	}

	v := math32.Vec3(l.position[0]-p[0], l.position[1]-p[1], l.position[2]-p[2])
	dist := v.Length()
	if dist == 0 || dist >= l.lightRange {
		return [3]float32{}, 0
	}
	v = v.DivScalar(dist)
	falloff := 1 - dist/l.lightRange
	atten := falloff * falloff

	if l.lightType == LightTypeSpot {
		axis := math32.Vec3(l.direction[0], l.direction[1], l.direction[2])
		cos := -v.Dot(axis)
		switch {
		case cos <= l.outerCone:
			return [3]float32{}, 0
		case cos < l.innerCone:
			atten *= (cos - l.outerCone) / (l.innerCone - l.outerCone)
		}
	}
	return [3]float32{v.X, v.Y, v.Z}, atten
}

func (l *lightImpl) Diffuse(p, n [3]float32) [3]float32 {
	toLight, atten := l.Incidence(p)
	if atten == 0 {
		return [3]float32{}
	}
	ndotl := n[0]*toLight[0] + n[1]*toLight[1] + n[2]*toLight[2]
	if ndotl <= 0 {
		return [3]float32{}
	}
	k := ndotl * atten * l.intensity
	return [3]float32{l.color[0] * k, l.color[1] * k, l.color[2] * k}
}
