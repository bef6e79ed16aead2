package material

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-csg/common"
)

var (
	// ErrUnknownProperty is returned by Set for property names the material does not have.
	ErrUnknownProperty = errors.New("unknown material property")

	// ErrInvalidValue is returned by Set when the value has the wrong type or is out of range.
	ErrInvalidValue = errors.New("invalid material property value")
)

// Property names accepted by Set.
const (
	PropertyColor              = "color"
	PropertyRoughness          = "roughness"
	PropertyMetalness          = "metalness"
	PropertyClearcoat          = "clearcoat"
	PropertyClearcoatRoughness = "clearcoatRoughness"
	PropertyShininess          = "shininess"
	PropertyOpacity            = "opacity"
	PropertyWireframe          = "wireframe"
	PropertyFlatShading        = "flatShading"
	PropertyModel              = "model"
)

// Properties is a point-in-time copy of every material property.
type Properties struct {
	Name               string
	Model              Model
	Color              common.Color
	Roughness          float32
	Metalness          float32
	Clearcoat          float32
	ClearcoatRoughness float32
	Shininess          float32
	Opacity            float32
	Wireframe          bool
	FlatShading        bool
}

// material is the implementation of the Material interface.
type material struct {
	mu *sync.RWMutex

	props    Properties
	revision uint64
	logger   *slog.Logger
}

// Material is the shared style object applied to displayed results.
//
// It is the one piece of display state that external configuration may change in place. Changes arrive
// as (name, value) pairs through Set, never through the geometry recompute path; readers take a Snapshot.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Snapshot returns a copy of the current properties.
	//
	// Returns:
	//   - Properties: the properties
	Snapshot() Properties

	// Revision returns a counter that increases on every accepted Set.
	//
	// Returns:
	//   - uint64: the revision
	Revision() uint64

	// Set updates a single property.
	// Numeric properties accept any Go numeric type; color accepts a hex string or common.Color;
	// model accepts a Model or its name; wireframe and flatShading accept bool.
	//
	// Parameters:
	//   - name: the property name (see the Property constants)
	//   - value: the new value
	//
	// Returns:
	//   - error: ErrUnknownProperty or ErrInvalidValue; the material is unchanged on error
	Set(name string, value any) error
}

var _ Material = &material{}

// NewMaterial creates a new Material instance. The defaults are a standard blue surface with
// roughness 0.8 and metalness 0.6.
//
// Parameters:
//   - options: functional options to configure the material
//
// Returns:
//   - Material: the newly created material
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		mu: &sync.RWMutex{},
		props: Properties{
			Name:               "default",
			Model:              ModelStandard,
			Color:              common.Color{0, 0x88 / 255.0, 1, 1},
			Roughness:          0.8,
			Metalness:          0.6,
			ClearcoatRoughness: 0.1,
			Shininess:          30,
			Opacity:            1,
		},
	}
	for _, option := range options {
		option(m)
	}
	if m.logger == nil {
		m.logger = common.Logger()
	}
	return m
}

func (m *material) Name() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.props.Name
}

func (m *material) Snapshot() Properties {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.props
}

func (m *material) Revision() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revision
}

func (m *material) Set(name string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.props
	var err error
	switch name {
	case PropertyColor:
		next.Color, err = toColor(value)
	case PropertyRoughness:
		next.Roughness, err = unitFloat(value)
	case PropertyMetalness:
		next.Metalness, err = unitFloat(value)
	case PropertyClearcoat:
		next.Clearcoat, err = unitFloat(value)
	case PropertyClearcoatRoughness:
		next.ClearcoatRoughness, err = unitFloat(value)
	case PropertyOpacity:
		next.Opacity, err = unitFloat(value)
	case PropertyShininess:
		next.Shininess, err = rangedFloat(value, 0, 1000)
	case PropertyWireframe:
		next.Wireframe, err = toBool(value)
	case PropertyFlatShading:
		next.FlatShading, err = toBool(value)
	case PropertyModel:
		next.Model, err = toModel(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	if err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}

	m.props = next
	m.revision++
	m.logger.Debug("material property changed",
		slog.String("material", m.props.Name),
		slog.String("property", name),
		slog.Any("value", value),
	)
	return nil
}

func toFloat(value any) (float32, error) {
	switch v := value.(type) {
	case float32:
		return v, nil
	case float64:
		return float32(v), nil
	case int:
		return float32(v), nil
	case int32:
		return float32(v), nil
	case int64:
		return float32(v), nil
	case uint8:
		return float32(v), nil
	}
	return 0, fmt.Errorf("%w: expected number, got %T", ErrInvalidValue, value)
}

func rangedFloat(value any, lo, hi float32) (float32, error) {
	f, err := toFloat(value)
	if err != nil {
		return 0, err
	}
	if f < lo || f > hi {
		return 0, fmt.Errorf("%w: %g outside [%g, %g]", ErrInvalidValue, f, lo, hi)
	}
	return f, nil
}

func unitFloat(value any) (float32, error) {
	return rangedFloat(value, 0, 1)
}

func toBool(value any) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%w: expected bool, got %T", ErrInvalidValue, value)
	}
	return b, nil
}

func toColor(value any) (common.Color, error) {
	switch v := value.(type) {
	case common.Color:
		return v, nil
	case string:
		c, err := common.ParseHexColor(v)
		if err != nil {
			return common.Color{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return c, nil
	case int:
		return common.Color{float32((v>>16)&0xff) / 255, float32((v>>8)&0xff) / 255, float32(v&0xff) / 255, 1}, nil
	}
	return common.Color{}, fmt.Errorf("%w: expected color, got %T", ErrInvalidValue, value)
}

func toModel(value any) (Model, error) {
	switch v := value.(type) {
	case Model:
		if !v.Valid() {
			return 0, fmt.Errorf("%w: model %d", ErrInvalidValue, int(v))
		}
		return v, nil
	case string:
		mdl, err := ParseModel(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return mdl, nil
	}
	return 0, fmt.Errorf("%w: expected model, got %T", ErrInvalidValue, value)
}
