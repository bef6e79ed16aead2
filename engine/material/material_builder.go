package material

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-csg/common"
)

// MaterialBuilderOption is a functional option for configuring a Material.
type MaterialBuilderOption func(*material)

// WithName sets the material identifier.
//
// Parameters:
//   - name: the name of the material
//
// Returns:
//   - MaterialBuilderOption: the functional option
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.props.Name = name
	}
}

// WithColor sets the base RGBA color of the material.
//
// Parameters:
//   - color: the base color
//
// Returns:
//   - MaterialBuilderOption: the functional option
func WithColor(color common.Color) MaterialBuilderOption {
	return func(m *material) {
		m.props.Color = color
	}
}

// WithMetalness sets the metalness factor of the material.
//
// Parameters:
//   - metalness: the metalness factor (0.0 = dielectric, 1.0 = metal)
//
// Returns:
//   - MaterialBuilderOption: the functional option
func WithMetalness(metalness float32) MaterialBuilderOption {
	return func(m *material) {
		m.props.Metalness = metalness
	}
}

// WithRoughness sets the roughness factor of the material.
//
// Parameters:
//   - roughness: the roughness factor (0.0 = smooth, 1.0 = rough)
//
// Returns:
//   - MaterialBuilderOption: the functional option
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.props.Roughness = roughness
	}
}

// WithModel sets the shading model.
//
// Parameters:
//   - model: the shading model
//
// Returns:
//   - MaterialBuilderOption: the functional option
func WithModel(model Model) MaterialBuilderOption {
	return func(m *material) {
		m.props.Model = model
	}
}

// WithProperties replaces every property at once, typically from configuration.
//
// Parameters:
//   - props: the properties
//
// Returns:
//   - MaterialBuilderOption: the functional option
func WithProperties(props Properties) MaterialBuilderOption {
	return func(m *material) {
		m.props = props
	}
}

// WithLogger sets the logger used to report property changes.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - MaterialBuilderOption: the functional option
func WithLogger(logger *slog.Logger) MaterialBuilderOption {
	return func(m *material) {
		m.logger = logger
	}
}
