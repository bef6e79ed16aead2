package presentation

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-csg/engine/material"
)

// AdapterBuilderOption is a functional option for configuring an Adapter.
type AdapterBuilderOption func(*adapter)

// WithSlot sets the scene slot results are installed into.
//
// Parameters:
//   - slot: the slot name
//
// Returns:
//   - AdapterBuilderOption: the functional option
func WithSlot(slot string) AdapterBuilderOption {
	return func(a *adapter) {
		a.slot = slot
	}
}

// WithName sets the model and object name of installed results.
//
// Parameters:
//   - name: the name
//
// Returns:
//   - AdapterBuilderOption: the functional option
func WithName(name string) AdapterBuilderOption {
	return func(a *adapter) {
		a.name = name
	}
}

// WithMaterial sets the shared material every installed result is drawn with.
//
// Parameters:
//   - mat: the material
//
// Returns:
//   - AdapterBuilderOption: the functional option
func WithMaterial(mat material.Material) AdapterBuilderOption {
	return func(a *adapter) {
		a.material = mat
	}
}

// WithRotationSpeed makes installed results spin. The current angle carries over between installs.
//
// Parameters:
//   - rx, ry, rz: radians per second around each axis
//
// Returns:
//   - AdapterBuilderOption: the functional option
func WithRotationSpeed(rx, ry, rz float32) AdapterBuilderOption {
	return func(a *adapter) {
		a.rotationSpeed = [3]float32{rx, ry, rz}
	}
}

// WithLogger sets the logger.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - AdapterBuilderOption: the functional option
func WithLogger(logger *slog.Logger) AdapterBuilderOption {
	return func(a *adapter) {
		a.logger = logger
	}
}
