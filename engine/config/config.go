// Package config loads, validates and hot-reloads the YAML configuration of the composition engine.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/brush"
	"github.com/Carmen-Shannon/oxy-csg/engine/csg"
	"github.com/Carmen-Shannon/oxy-csg/engine/material"
	"github.com/Carmen-Shannon/oxy-csg/engine/primitive"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure returned by Validate and Load.
var ErrInvalid = errors.New("invalid config")

// configValidate is the validator instance for configuration structs.
// Initialized in init() with the domain validators.
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	mustRegister("primitive_kind", func(fl validator.FieldLevel) bool {
		_, err := primitive.ParseKind(fl.Field().String())
		return err == nil
	})
	mustRegister("csg_operation", func(fl validator.FieldLevel) bool {
		_, err := csg.ParseOperation(fl.Field().String())
		return err == nil
	})
	mustRegister("hex_rgb", func(fl validator.FieldLevel) bool {
		_, err := common.ParseHexColor(fl.Field().String())
		return err == nil
	})
	mustRegister("resolution", func(fl validator.FieldLevel) bool {
		_, err := primitive.ParseResolution(fl.Field().String())
		return err == nil
	})
	mustRegister("nonzero_scale", func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().([3]float32)
		return ok && s[0] != 0 && s[1] != 0 && s[2] != 0
	})
}

// mustRegister adds a custom validation tag, panicking if the validator rejects it.
func mustRegister(tag string, fn validator.Func) {
	if err := configValidate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("config: register validation %q: %v", tag, err))
	}
}

// Config is the top-level configuration.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after creation.
type Config struct {
	// Composition describes the brushes, the operation and the evaluation workers.
	Composition CompositionConfig `json:"composition" yaml:"composition"`

	// Material holds the initial properties of the shared display material.
	Material MaterialConfig `json:"material" yaml:"material"`

	// Render contains viewport, frame rate and spin settings.
	Render RenderConfig `json:"render" yaml:"render"`

	// Metrics contains the Prometheus endpoint settings.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Log contains the structured logging settings.
	Log LogConfig `json:"log" yaml:"log"`
}

// BrushConfig describes one brush.
type BrushConfig struct {
	Kind     string     `json:"kind" yaml:"kind" validate:"required,primitive_kind"`
	Position [3]float32 `json:"position" yaml:"position"`
	Rotation [3]float32 `json:"rotation" yaml:"rotation"`
	Scale    [3]float32 `json:"scale" yaml:"scale" validate:"nonzero_scale"`
}

// CompositionConfig contains the composition settings.
type CompositionConfig struct {
	Brushes    []BrushConfig `json:"brushes" yaml:"brushes" validate:"len=2,dive"`
	Operation  string        `json:"operation" yaml:"operation" validate:"required,csg_operation"`
	Resolution string        `json:"resolution" yaml:"resolution" validate:"resolution"`
	Workers    int           `json:"workers" yaml:"workers" validate:"gte=0,lte=64"`
}

// MaterialConfig contains the material settings.
type MaterialConfig struct {
	Color              string  `json:"color" yaml:"color" validate:"required,hex_rgb"`
	Model              string  `json:"model" yaml:"model" validate:"oneof=standard physical lambert phong"`
	Roughness          float32 `json:"roughness" yaml:"roughness" validate:"gte=0,lte=1"`
	Metalness          float32 `json:"metalness" yaml:"metalness" validate:"gte=0,lte=1"`
	Clearcoat          float32 `json:"clearcoat" yaml:"clearcoat" validate:"gte=0,lte=1"`
	ClearcoatRoughness float32 `json:"clearcoat_roughness" yaml:"clearcoat_roughness" validate:"gte=0,lte=1"`
	Shininess          float32 `json:"shininess" yaml:"shininess" validate:"gte=0,lte=1000"`
	Opacity            float32 `json:"opacity" yaml:"opacity" validate:"gte=0,lte=1"`
	Wireframe          bool    `json:"wireframe" yaml:"wireframe"`
	FlatShading        bool    `json:"flat_shading" yaml:"flat_shading"`
}

// RenderConfig contains viewport and loop settings.
type RenderConfig struct {
	Width         int     `json:"width" yaml:"width" validate:"gte=8,lte=4096"`
	Height        int     `json:"height" yaml:"height" validate:"gte=8,lte=4096"`
	Supersample   int     `json:"supersample" yaml:"supersample" validate:"gte=1,lte=4"`
	Background    string  `json:"background" yaml:"background" validate:"required,hex_rgb"`
	CellAspect    float32 `json:"cell_aspect" yaml:"cell_aspect" validate:"gt=0,lte=4"`
	FPS           float64 `json:"fps" yaml:"fps" validate:"gt=0,lte=240"`
	TickRate      float64 `json:"tick_rate" yaml:"tick_rate" validate:"gt=0,lte=1000"`
	RotationSpeed float32 `json:"rotation_speed" yaml:"rotation_speed" validate:"gte=-20,lte=20"`
	Profiling     bool    `json:"profiling" yaml:"profiling"`
}

// MetricsConfig contains the metrics endpoint settings. An empty address disables the endpoint.
type MetricsConfig struct {
	Addr string `json:"addr" yaml:"addr" validate:"omitempty,hostname_port"`
}

// LogConfig contains the logging settings.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" validate:"oneof=text json"`
}

// Default returns the default configuration: a sphere minus a box offset by 0.4 on x, drawn with
// the standard blue material.
//
// Returns:
//   - Config: default configuration
func Default() Config {
	return Config{
		Composition: CompositionConfig{
			Brushes: []BrushConfig{
				{Kind: primitive.KindSphere.String(), Scale: [3]float32{1, 1, 1}},
				{Kind: primitive.KindBox.String(), Position: [3]float32{0.4, 0, 0}, Scale: [3]float32{1, 1, 1}},
			},
			Operation:  csg.Subtraction.String(),
			Resolution: primitive.ResolutionDefault.String(),
			Workers:    0,
		},
		Material: MaterialConfig{
			Color:              "#0088ff",
			Model:              material.ModelStandard.String(),
			Roughness:          0.8,
			Metalness:          0.6,
			ClearcoatRoughness: 0.1,
			Shininess:          30,
			Opacity:            1,
		},
		Render: RenderConfig{
			Width:         640,
			Height:        480,
			Supersample:   2,
			Background:    "#121217",
			CellAspect:    2,
			FPS:           30,
			TickRate:      60,
			RotationSpeed: 0.5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
// An empty path returns the defaults; a missing file is an error.
//
// Parameters:
//   - path: path to the YAML file (optional)
//
// Returns:
//   - Config: the merged configuration
//   - error: non-nil if the file cannot be read, parsed or validated
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the merged configuration
//   - error: non-nil if the document cannot be parsed or validated
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// An omitted scale means unit scale; a partially zero scale is left for Validate to reject.
	for i := range cfg.Composition.Brushes {
		if cfg.Composition.Brushes[i].Scale == [3]float32{} {
			cfg.Composition.Brushes[i].Scale = [3]float32{1, 1, 1}
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct tags.
//
// Returns:
//   - error: an error wrapping ErrInvalid that names each failing field
func (c Config) Validate() error {
	err := configValidate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// Placement converts the brush transform.
//
// Returns:
//   - common.Placement: the placement
func (b BrushConfig) Placement() common.Placement {
	return common.Placement{Position: b.Position, Rotation: b.Rotation, Scale: b.Scale}
}

// BuildBrushes builds the configured brushes from a registry. Names default to brush1, brush2.
//
// Parameters:
//   - registry: the primitive registry
//
// Returns:
//   - []brush.Brush: the brushes, in order
//   - error: if a kind cannot be resolved or built
func (c CompositionConfig) BuildBrushes(registry primitive.Registry) ([]brush.Brush, error) {
	out := make([]brush.Brush, 0, len(c.Brushes))
	for i, bc := range c.Brushes {
		kind, err := registry.Lookup(bc.Kind)
		if err != nil {
			return nil, fmt.Errorf("brush %d: %w", i+1, err)
		}
		b, err := brush.NewBrush(registry, kind,
			brush.WithName(fmt.Sprintf("brush%d", i+1)),
			brush.WithPlacement(bc.Placement()),
		)
		if err != nil {
			return nil, fmt.Errorf("brush %d: %w", i+1, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// ParsedOperation returns the configured operation.
//
// Returns:
//   - csg.Operation: the operation
//   - error: if the name is unknown
func (c CompositionConfig) ParsedOperation() (csg.Operation, error) {
	return csg.ParseOperation(c.Operation)
}

// ParsedResolution returns the configured tessellation level.
//
// Returns:
//   - primitive.Resolution: the resolution
//   - error: if the name is unknown
func (c CompositionConfig) ParsedResolution() (primitive.Resolution, error) {
	return primitive.ParseResolution(c.Resolution)
}

// property is one named material value in a fixed order.
type property struct {
	name  string
	value any
}

func (m MaterialConfig) properties() []property {
	return []property{
		{material.PropertyModel, m.Model},
		{material.PropertyColor, m.Color},
		{material.PropertyRoughness, m.Roughness},
		{material.PropertyMetalness, m.Metalness},
		{material.PropertyClearcoat, m.Clearcoat},
		{material.PropertyClearcoatRoughness, m.ClearcoatRoughness},
		{material.PropertyShininess, m.Shininess},
		{material.PropertyOpacity, m.Opacity},
		{material.PropertyWireframe, m.Wireframe},
		{material.PropertyFlatShading, m.FlatShading},
	}
}

// Apply writes every configured property into a material through Set.
//
// Parameters:
//   - target: the material
//
// Returns:
//   - error: the joined Set errors, or nil
func (m MaterialConfig) Apply(target material.Material) error {
	var errs []error
	for _, p := range m.properties() {
		if err := target.Set(p.name, p.value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BackgroundColor returns the parsed background color.
//
// Returns:
//   - common.Color: the color, opaque black if the value does not parse
func (r RenderConfig) BackgroundColor() common.Color {
	c, err := common.ParseHexColor(r.Background)
	if err != nil {
		return common.Color{0, 0, 0, 1}
	}
	return c
}

// Handler builds the slog handler described by the configuration.
//
// Parameters:
//   - w: the destination
//
// Returns:
//   - slog.Handler: a text or JSON handler at the configured level
func (l LogConfig) Handler(w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: l.level()}
	if l.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func (l LogConfig) level() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
