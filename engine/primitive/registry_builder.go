package primitive

import "log/slog"

type RegistryBuilderOption func(*registryImpl)

// WithResolution sets the tessellation level of the built-in primitives.
//
// Parameters:
//   - res: the resolution
//
// Returns:
//   - RegistryBuilderOption: a function that sets the resolution
func WithResolution(res Resolution) RegistryBuilderOption {
	return func(r *registryImpl) {
		r.resolution = res
	}
}

// WithLogger sets the logger used by the registry.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - RegistryBuilderOption: a function that sets the logger
func WithLogger(logger *slog.Logger) RegistryBuilderOption {
	return func(r *registryImpl) {
		r.logger = logger
	}
}

// WithKind registers a custom kind at construction, after the logger is set. A kind that fails to
// register is logged at warn level and left out; use Registry.Register directly when the outcome matters.
//
// Parameters:
//   - kind: the custom kind value (>= KindCustom)
//   - name: the display name
//   - ctor: the base mesh constructor
//
// Returns:
//   - RegistryBuilderOption: a function that registers the kind
func WithKind(kind Kind, name string, ctor Constructor) RegistryBuilderOption {
	return func(r *registryImpl) {
		r.pending = append(r.pending, pendingKind{kind: kind, customKind: customKind{name: name, ctor: ctor}})
	}
}
