// Package brush defines the immutable solids that feed boolean operations.
package brush

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/geometry"
	"github.com/Carmen-Shannon/oxy-csg/engine/primitive"
)

type brushImpl struct {
	name      string
	kind      primitive.Kind
	kindName  string
	placement common.Placement
	mesh      geometry.Geometry

	baked       bool
	worldMatrix [16]float32
}

// Brush is a named primitive solid with a placement transform.
// A Brush never changes after construction: editing a brush means building a new one.
type Brush interface {
	// Name returns the brush name (usually its slot, e.g. "brush1").
	//
	// Returns:
	//   - string: the name
	Name() string

	// Kind returns the primitive kind of the brush.
	//
	// Returns:
	//   - primitive.Kind: the kind
	Kind() primitive.Kind

	// KindName returns the display name of the kind as reported by the registry that built it.
	//
	// Returns:
	//   - string: the kind name
	KindName() string

	// Placement returns the placement transform.
	//
	// Returns:
	//   - common.Placement: the placement
	Placement() common.Placement

	// Mesh returns the canonical base mesh in local (unplaced) coordinates.
	// The mesh is shared with every other brush of the same kind and must not be disposed.
	//
	// Returns:
	//   - geometry.Geometry: the base mesh
	Mesh() geometry.Geometry

	// Baked reports whether the world matrix has been resolved with Bake.
	//
	// Returns:
	//   - bool: true if baked
	Baked() bool

	// WorldMatrix returns the resolved column-major model matrix.
	// The result is only meaningful when Baked returns true.
	//
	// Returns:
	//   - [16]float32: the world matrix
	WorldMatrix() [16]float32

	// Bake returns a copy of the brush with its world matrix resolved from the placement.
	// Baking an already baked brush returns the receiver.
	//
	// Returns:
	//   - Brush: the baked brush
	Bake() Brush

	// WithPlacement returns an unbaked copy of the brush with a different placement.
	//
	// Parameters:
	//   - placement: the new placement
	//
	// Returns:
	//   - Brush: the new brush
	WithPlacement(placement common.Placement) Brush
}

var _ Brush = &brushImpl{}

// NewBrush creates a new unbaked brush of the given kind. The base mesh is obtained from the registry;
// the placement is kept separately and only applied when the brush is baked.
//
// Parameters:
//   - registry: the primitive registry that resolves the kind
//   - kind: the primitive kind
//   - options: functional options to configure the brush
//
// Returns:
//   - Brush: the newly created brush
//   - error: primitive.ErrUnknownKind if the registry cannot build the kind
func NewBrush(registry primitive.Registry, kind primitive.Kind, options ...BrushBuilderOption) (Brush, error) {
	mesh, err := registry.Build(kind)
	if err != nil {
		return nil, fmt.Errorf("create brush: %w", err)
	}

	b := &brushImpl{
		kind:      kind,
		kindName:  registry.Name(kind),
		placement: common.IdentityPlacement(),
		mesh:      mesh,
	}
	for _, option := range options {
		option(b)
	}
	if b.name == "" {
		b.name = b.kindName
	}
	return b, nil
}

// NewBaked is a convenience wrapper around NewBrush that returns a baked brush.
//
// Parameters:
//   - registry: the primitive registry that resolves the kind
//   - kind: the primitive kind
//   - options: functional options to configure the brush
//
// Returns:
//   - Brush: the newly created, baked brush
//   - error: primitive.ErrUnknownKind if the registry cannot build the kind
func NewBaked(registry primitive.Registry, kind primitive.Kind, options ...BrushBuilderOption) (Brush, error) {
	b, err := NewBrush(registry, kind, options...)
	if err != nil {
		return nil, err
	}
	return b.Bake(), nil
}

func (b *brushImpl) Name() string {
	return b.name
}

func (b *brushImpl) Kind() primitive.Kind {
	return b.kind
}

func (b *brushImpl) KindName() string {
	return b.kindName
}

func (b *brushImpl) Placement() common.Placement {
	return b.placement
}

func (b *brushImpl) Mesh() geometry.Geometry {
	return b.mesh
}

func (b *brushImpl) Baked() bool {
	return b.baked
}

func (b *brushImpl) WorldMatrix() [16]float32 {
	return b.worldMatrix
}

func (b *brushImpl) Bake() Brush {
	if b.baked {
		return b
	}
	baked := *b
	baked.worldMatrix = b.placement.Matrix()
	baked.baked = true
	return &baked
}

func (b *brushImpl) WithPlacement(placement common.Placement) Brush {
	next := *b
	next.placement = placement
	next.baked = false
	next.worldMatrix = [16]float32{}
	return &next
}

// String implements fmt.Stringer.
func (b *brushImpl) String() string {
	return fmt.Sprintf("%s(%s @ %s)", b.name, b.kindName, b.placement)
}
