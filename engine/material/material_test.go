package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMaterial_Defaults(t *testing.T) {
	p := NewMaterial().Snapshot()
	assert.Equal(t, ModelStandard, p.Model)
	assert.Equal(t, "#0088ff", p.Color.Hex())
	assert.InDelta(t, 0.8, p.Roughness, 1e-6)
	assert.InDelta(t, 0.6, p.Metalness, 1e-6)
	assert.Equal(t, float32(1), p.Opacity)
}

func TestMaterial_Set(t *testing.T) {
	tests := []struct {
		name  string
		value any
		check func(t *testing.T, p Properties)
	}{
		{PropertyColor, "#ff0000", func(t *testing.T, p Properties) { assert.Equal(t, common.Color{1, 0, 0, 1}, p.Color) }},
		{PropertyColor, 0x00ff00, func(t *testing.T, p Properties) { assert.Equal(t, "#00ff00", p.Color.Hex()) }},
		{PropertyRoughness, 0.25, func(t *testing.T, p Properties) { assert.InDelta(t, 0.25, p.Roughness, 1e-6) }},
		{PropertyMetalness, float32(1), func(t *testing.T, p Properties) { assert.Equal(t, float32(1), p.Metalness) }},
		{PropertyClearcoat, 0.5, func(t *testing.T, p Properties) { assert.InDelta(t, 0.5, p.Clearcoat, 1e-6) }},
		{PropertyClearcoatRoughness, 0, func(t *testing.T, p Properties) { assert.Zero(t, p.ClearcoatRoughness) }},
		{PropertyShininess, 200, func(t *testing.T, p Properties) { assert.Equal(t, float32(200), p.Shininess) }},
		{PropertyWireframe, true, func(t *testing.T, p Properties) { assert.True(t, p.Wireframe) }},
		{PropertyFlatShading, true, func(t *testing.T, p Properties) { assert.True(t, p.FlatShading) }},
		{PropertyModel, "Phong", func(t *testing.T, p Properties) { assert.Equal(t, ModelPhong, p.Model) }},
		{PropertyModel, ModelLambert, func(t *testing.T, p Properties) { assert.Equal(t, ModelLambert, p.Model) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMaterial()
			before := m.Revision()
			require.NoError(t, m.Set(tt.name, tt.value))
			assert.Equal(t, before+1, m.Revision())
			tt.check(t, m.Snapshot())
		})
	}
}

func TestMaterial_SetRejects(t *testing.T) {
	tests := []struct {
		desc  string
		name  string
		value any
		err   error
	}{
		{"unknown property", "emissive", 1.0, ErrUnknownProperty},
		{"roughness above range", PropertyRoughness, 1.5, ErrInvalidValue},
		{"metalness below range", PropertyMetalness, -0.1, ErrInvalidValue},
		{"shininess above range", PropertyShininess, 5000, ErrInvalidValue},
		{"roughness wrong type", PropertyRoughness, "rough", ErrInvalidValue},
		{"bad color", PropertyColor, "#12", ErrInvalidValue},
		{"wireframe wrong type", PropertyWireframe, 1, ErrInvalidValue},
		{"unknown model", PropertyModel, "toon", ErrInvalidValue},
		{"invalid model value", PropertyModel, Model(12), ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			m := NewMaterial()
			before := m.Snapshot()
			err := m.Set(tt.name, tt.value)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, before, m.Snapshot(), "material unchanged on error")
			assert.Zero(t, m.Revision())
		})
	}
}

func TestSpecular(t *testing.T) {
	p := NewMaterial().Snapshot()

	p.Model = ModelLambert
	s, _ := Specular(p)
	assert.Zero(t, s)

	p.Model = ModelPhong
	p.Shininess = 64
	s, e := Specular(p)
	assert.Positive(t, s)
	assert.Equal(t, float32(64), e)

	p.Model = ModelStandard
	p.Roughness = 1
	s, _ = Specular(p)
	assert.Zero(t, s)
}

func TestParseModel(t *testing.T) {
	for _, m := range Models() {
		parsed, err := ParseModel(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	_, err := ParseModel("basic")
	assert.Error(t, err)
}
