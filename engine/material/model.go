package material

import (
	"fmt"
	"strings"
)

// Model selects the shading model used when the material is rendered.
type Model int

const (
	ModelStandard Model = iota
	ModelPhysical
	ModelLambert
	ModelPhong

	modelEnd
)

// Models returns every shading model.
func Models() []Model {
	return []Model{ModelStandard, ModelPhysical, ModelLambert, ModelPhong}
}

// Valid reports whether m is a known shading model.
func (m Model) Valid() bool {
	return m >= ModelStandard && m < modelEnd
}

func (m Model) String() string {
	switch m {
	case ModelStandard:
		return "standard"
	case ModelPhysical:
		return "physical"
	case ModelLambert:
		return "lambert"
	case ModelPhong:
		return "phong"
	}
	return fmt.Sprintf("model(%d)", int(m))
}

// ParseModel parses a shading model name, case-insensitive.
//
// Parameters:
//   - s: the model name
//
// Returns:
//   - Model: the model
//   - error: if s is not a known model
func ParseModel(s string) (Model, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, m := range Models() {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown shading model %q", s)
}

// Specular returns the strength of the specular highlight and its exponent for a snapshot.
// Lambert has no highlight; Phong uses shininess directly; the metal/rough models derive it from roughness.
//
// Parameters:
//   - p: the material properties
//
// Returns:
//   - strength: highlight weight in [0, 1]
//   - exponent: highlight sharpness
func Specular(p Properties) (strength, exponent float32) {
	switch p.Model {
	case ModelLambert:
		return 0, 1
	case ModelPhong:
		return 0.5, max(p.Shininess, 1)
	case ModelPhysical:
		s := (1 - p.Roughness) * (0.5 + 0.5*p.Metalness)
		s += p.Clearcoat * (1 - p.ClearcoatRoughness) * 0.5
		return min(s, 1), 2 + (1-p.Roughness)*126
	}
	return (1 - p.Roughness) * (0.5 + 0.5*p.Metalness), 2 + (1-p.Roughness)*126
}
