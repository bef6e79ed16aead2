package model

import (
	"github.com/Carmen-Shannon/oxy-csg/engine/geometry"
	"github.com/Carmen-Shannon/oxy-csg/engine/material"
)

// ModelBuilderOption is a functional option for configuring a Model.
type ModelBuilderOption func(*model)

// WithName sets the model name.
//
// Parameters:
//   - name: the name of the model
//
// Returns:
//   - ModelBuilderOption: the functional option
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithGeometry sets the geometry the model packs its buffers from. The model takes ownership:
// Release disposes it.
//
// Parameters:
//   - g: the geometry
//
// Returns:
//   - ModelBuilderOption: the functional option
func WithGeometry(g geometry.Geometry) ModelBuilderOption {
	return func(m *model) {
		m.geometry = g
	}
}

// WithMaterial sets the material the model is drawn with.
//
// Parameters:
//   - mat: the material
//
// Returns:
//   - ModelBuilderOption: the functional option
func WithMaterial(mat material.Material) ModelBuilderOption {
	return func(m *model) {
		m.material = mat
	}
}
