package primitive

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/geometry"
)

// Constructor builds the canonical unit-scale base mesh of a primitive.
// Constructors must be pure: the same resolution always yields the same mesh.
type Constructor func(res Resolution) geometry.Geometry

type customKind struct {
	name string
	ctor Constructor
}

type pendingKind struct {
	kind Kind
	customKind
}

type registryImpl struct {
	mu *sync.RWMutex

	resolution Resolution
	custom     map[Kind]customKind
	cache      map[Kind]geometry.Geometry
	pending    []pendingKind
	logger     *slog.Logger
}

// Registry maps primitive kinds to base mesh constructors.
// Built-in kinds are resolved through an exhaustive switch; additional kinds may be registered at runtime.
// Base meshes are cached per kind and shared by every brush built from the registry; they are never disposed.
type Registry interface {
	// Build returns the base mesh for the given kind.
	//
	// Parameters:
	//   - kind: the primitive kind
	//
	// Returns:
	//   - geometry.Geometry: the shared, read-only base mesh
	//   - error: ErrUnknownKind if the kind is not built in and not registered
	Build(kind Kind) (geometry.Geometry, error)

	// Register adds a custom kind.
	//
	// Parameters:
	//   - kind: the kind value, must be >= KindCustom
	//   - name: display name used by Name and Lookup
	//   - ctor: the base mesh constructor
	//
	// Returns:
	//   - error: ErrKindExists if the kind or name is taken, or a validation error
	Register(kind Kind, name string, ctor Constructor) error

	// Has reports whether the kind can be built.
	//
	// Parameters:
	//   - kind: the primitive kind
	//
	// Returns:
	//   - bool: true if built in or registered
	Has(kind Kind) bool

	// Name returns the display name of a kind.
	//
	// Parameters:
	//   - kind: the primitive kind
	//
	// Returns:
	//   - string: the name, or the Kind's String form when unknown
	Name(kind Kind) string

	// Lookup resolves a name to a kind, checking built-ins first and then registered kinds.
	//
	// Parameters:
	//   - name: the kind name
	//
	// Returns:
	//   - Kind: the resolved kind
	//   - error: ErrUnknownKind if nothing matches
	Lookup(name string) (Kind, error)

	// Kinds returns every buildable kind, built-ins first, then registered kinds in ascending order.
	//
	// Returns:
	//   - []Kind: the kinds
	Kinds() []Kind

	// Resolution returns the tessellation level used by this registry.
	//
	// Returns:
	//   - Resolution: the resolution
	Resolution() Resolution
}

var _ Registry = &registryImpl{}

// NewRegistry creates a new primitive registry.
//
// Parameters:
//   - options: functional options to configure the registry
//
// Returns:
//   - Registry: the newly created registry
func NewRegistry(options ...RegistryBuilderOption) Registry {
	r := &registryImpl{
		mu:         &sync.RWMutex{},
		resolution: ResolutionDefault,
		custom:     make(map[Kind]customKind),
		cache:      make(map[Kind]geometry.Geometry),
	}
	for _, option := range options {
		option(r)
	}
	if r.logger == nil {
		r.logger = common.Logger()
	}
	for _, p := range r.pending {
		if err := r.Register(p.kind, p.name, p.ctor); err != nil {
			r.logger.Warn("custom primitive not registered",
				slog.Int("kind", int(p.kind)),
				slog.String("name", p.name),
				slog.Any("error", err),
			)
		}
	}
	r.pending = nil
	return r
}

// builtin is the total mapping from built-in kinds to constructors.
func builtin(kind Kind) (Constructor, bool) {
	switch kind {
	case KindSphere:
		return sphere, true
	case KindBox:
		return box, true
	case KindCylinder:
		return cylinder, true
	case KindCone:
		return cone, true
	case KindTorus:
		return torus, true
	case KindTorusKnot:
		return torusKnot, true
	case KindIcosahedron:
		return icosahedron, true
	case KindDodecahedron:
		return dodecahedron, true
	}
	return nil, false
}

func (r *registryImpl) Build(kind Kind) (geometry.Geometry, error) {
	r.mu.RLock()
	cached, ok := r.cache[kind]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	ctor, ok := builtin(kind)
	if !ok {
		r.mu.RLock()
		c, found := r.custom[kind]
		r.mu.RUnlock()
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
		}
		ctor = c.ctor
	}

	mesh := ctor(r.resolution)

	r.mu.Lock()
	defer r.mu.Unlock()
	// another caller may have raced us here; keep the first mesh so every brush shares it
	if existing, ok := r.cache[kind]; ok {
		return existing, nil
	}
	r.cache[kind] = mesh
	r.logger.Debug("primitive base mesh built",
		slog.String("kind", r.nameLocked(kind)),
		slog.String("resolution", r.resolution.String()),
		slog.Int("triangles", mesh.TriangleCount()),
	)
	return mesh, nil
}

func (r *registryImpl) Register(kind Kind, name string, ctor Constructor) error {
	if ctor == nil {
		return fmt.Errorf("register %q: nil constructor", name)
	}
	if kind < KindCustom {
		return fmt.Errorf("register %q: custom kinds must be >= %d", name, int(KindCustom))
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("register kind %d: empty name", int(kind))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.custom[kind]; ok {
		return fmt.Errorf("%w: %d", ErrKindExists, int(kind))
	}
	if _, err := ParseKind(name); err == nil {
		return fmt.Errorf("%w: %q", ErrKindExists, name)
	}
	for _, c := range r.custom {
		if normalize(c.name) == normalize(name) {
			return fmt.Errorf("%w: %q", ErrKindExists, name)
		}
	}
	r.custom[kind] = customKind{name: name, ctor: ctor}
	return nil
}

func (r *registryImpl) Has(kind Kind) bool {
	if kind.Builtin() {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.custom[kind]
	return ok
}

func (r *registryImpl) Name(kind Kind) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nameLocked(kind)
}

func (r *registryImpl) nameLocked(kind Kind) string {
	if c, ok := r.custom[kind]; ok {
		return c.name
	}
	return kind.String()
}

func (r *registryImpl) Lookup(name string) (Kind, error) {
	if k, err := ParseKind(name); err == nil {
		return k, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for k, c := range r.custom {
		if normalize(c.name) == normalize(name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

func (r *registryImpl) Kinds() []Kind {
	kinds := BuiltinKinds()
	r.mu.RLock()
	custom := make([]Kind, 0, len(r.custom))
	for k := range r.custom {
		custom = append(custom, k)
	}
	r.mu.RUnlock()
	slices.Sort(custom)
	return append(kinds, custom...)
}

func (r *registryImpl) Resolution() Resolution {
	return r.resolution
}
