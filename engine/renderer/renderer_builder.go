package renderer

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-csg/engine/material"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithBackend sets the output backend the renderer draws into.
//
// Parameters:
//   - b: the backend
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend option to a renderer
func WithBackend(b RendererBackend) RendererBuilderOption {
	return func(r *renderer) {
		r.backend = b
	}
}

// WithBackfaceCulling enables or disables discarding triangles that face away from the eye.
// Wireframe materials always draw back faces.
//
// Parameters:
//   - enabled: true to cull back faces (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the culling option to a renderer
func WithBackfaceCulling(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.cullBack = enabled
	}
}

// WithFallbackMaterial sets the material used for models that carry none.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - RendererBuilderOption: a function that applies the fallback material option to a renderer
func WithFallbackMaterial(m material.Material) RendererBuilderOption {
	return func(r *renderer) {
		if m != nil {
			r.fallback = m
		}
	}
}

// WithLogger sets the structured logger used by the renderer.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(logger *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		r.logger = logger
	}
}
