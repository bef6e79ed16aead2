package primitive

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/Carmen-Shannon/oxy-csg/engine/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input    string
		expected Kind
	}{
		{"sphere", KindSphere},
		{"Box", KindBox},
		{"  cylinder ", KindCylinder},
		{"CONE", KindCone},
		{"torus", KindTorus},
		{"Torus Knot", KindTorusKnot},
		{"torus_knot", KindTorusKnot},
		{"icosahedron", KindIcosahedron},
		{"dodecahedron", KindDodecahedron},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			k, err := ParseKind(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, k)
		})
	}

	_, err := ParseKind("teapot")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestKind_StringRoundTrip(t *testing.T) {
	for _, k := range BuiltinKinds() {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	assert.Equal(t, "kind(42)", Kind(42).String())
}

func TestKind_TextMarshaling(t *testing.T) {
	text, err := KindTorusKnot.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "torusknot", string(text))

	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("cone")))
	assert.Equal(t, KindCone, k)
	assert.ErrorIs(t, k.UnmarshalText([]byte("plane")), ErrUnknownKind)

	_, err = Kind(-1).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestRegistry_BuildsEveryBuiltin(t *testing.T) {
	r := NewRegistry(WithResolution(ResolutionLow))

	for _, k := range BuiltinKinds() {
		t.Run(k.String(), func(t *testing.T) {
			g, err := r.Build(k)
			require.NoError(t, err)
			assert.Equal(t, k.String(), g.Label())
			assert.Positive(t, g.TriangleCount())
			assert.Positive(t, g.Volume(), "mesh must be closed and wound outward")

			size := g.Bounds().Size()
			assert.LessOrEqual(t, size.X, float32(4))
			assert.LessOrEqual(t, size.Y, float32(4))
		})
	}
}

func TestRegistry_BaseMeshDimensions(t *testing.T) {
	r := NewRegistry(WithResolution(ResolutionLow))

	b, err := r.Build(KindBox)
	require.NoError(t, err)
	assert.Equal(t, 24, b.VertexCount())
	assert.Equal(t, 12, b.TriangleCount())
	assert.InDelta(t, 1.0, b.Volume(), 1e-5)
	assert.Equal(t, math32.Vec3(-0.5, -0.5, -0.5), b.Bounds().Min)

	s, err := r.Build(KindSphere)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s.Bounds().Max.Y, 1e-5)
	assert.Less(t, s.Volume(), float32(4.0/3.0*math32.Pi))

	c, err := r.Build(KindCylinder)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, c.Bounds().Size().Y, 1e-5)

	ico, err := r.Build(KindIcosahedron)
	require.NoError(t, err)
	assert.Equal(t, 20, ico.TriangleCount())

	dodeca, err := r.Build(KindDodecahedron)
	require.NoError(t, err)
	assert.Equal(t, 36, dodeca.TriangleCount(), "12 pentagons, 3 triangles each")
	assert.Equal(t, 60, dodeca.VertexCount())
}

func TestRegistry_CachesBaseMesh(t *testing.T) {
	r := NewRegistry(WithResolution(ResolutionLow))
	a, err := r.Build(KindTorus)
	require.NoError(t, err)
	b, err := r.Build(KindTorus)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestRegistry_ResolutionChangesTessellation(t *testing.T) {
	low, err := NewRegistry(WithResolution(ResolutionLow)).Build(KindSphere)
	require.NoError(t, err)
	def, err := NewRegistry().Build(KindSphere)
	require.NoError(t, err)
	assert.Less(t, low.TriangleCount(), def.TriangleCount())
}

func TestRegistry_UnknownKind(t *testing.T) {
	r := NewRegistry()
	_, err := r.Build(Kind(99))
	assert.True(t, errors.Is(err, ErrUnknownKind))
	assert.False(t, r.Has(Kind(99)))
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	wedge := func(Resolution) geometry.Geometry {
		return geometry.NewGeometry(geometry.WithPositions([]math32.Vector3{
			math32.Vec3(0, 0, 0), math32.Vec3(1, 0, 0), math32.Vec3(0, 1, 0),
		}))
	}

	require.NoError(t, r.Register(KindCustom, "wedge", wedge))
	assert.True(t, r.Has(KindCustom))
	assert.Equal(t, "wedge", r.Name(KindCustom))

	k, err := r.Lookup("Wedge")
	require.NoError(t, err)
	assert.Equal(t, KindCustom, k)

	g, err := r.Build(KindCustom)
	require.NoError(t, err)
	assert.Equal(t, 1, g.TriangleCount())

	assert.Equal(t, KindCustom, r.Kinds()[len(r.Kinds())-1])

	assert.ErrorIs(t, r.Register(KindCustom, "other", wedge), ErrKindExists)
	assert.ErrorIs(t, r.Register(KindCustom+1, "sphere", wedge), ErrKindExists)
	assert.ErrorIs(t, r.Register(KindCustom+2, "WEDGE", wedge), ErrKindExists)
	assert.Error(t, r.Register(KindBox, "box2", wedge))
	assert.Error(t, r.Register(KindCustom+3, "nil", nil))
}

func TestRegistry_WithKindLogsFailures(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	wedge := func(Resolution) geometry.Geometry {
		return geometry.NewGeometry(geometry.WithPositions([]math32.Vector3{
			math32.Vec3(0, 0, 0), math32.Vec3(1, 0, 0), math32.Vec3(0, 1, 0),
		}))
	}

	r := NewRegistry(
		WithKind(KindCustom, "wedge", wedge),
		WithKind(KindCustom+1, "sphere", wedge),
		WithLogger(logger),
	)

	assert.True(t, r.Has(KindCustom))
	assert.False(t, r.Has(KindCustom+1))
	assert.Contains(t, logs.String(), "custom primitive not registered")
	assert.Contains(t, logs.String(), "name=sphere")
	assert.NotContains(t, logs.String(), "name=wedge")
}

func TestParseResolution(t *testing.T) {
	for _, s := range []string{"", "default", "low", "HIGH"} {
		_, err := ParseResolution(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseResolution("ultra")
	assert.Error(t, err)
}
