package renderer

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-csg/engine/camera"
	"github.com/Carmen-Shannon/oxy-csg/engine/game_object"
	"github.com/Carmen-Shannon/oxy-csg/engine/light"
	"github.com/Carmen-Shannon/oxy-csg/engine/material"
	"github.com/Carmen-Shannon/oxy-csg/engine/model"
	"github.com/Carmen-Shannon/oxy-csg/engine/primitive"
	"github.com/Carmen-Shannon/oxy-csg/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boxFrame(t *testing.T, mat material.Material) scene.Frame {
	t.Helper()
	g, err := primitive.NewRegistry().Build(primitive.KindBox)
	require.NoError(t, err)

	cam := camera.NewCamera(camera.WithController(camera.NewOrbitController(camera.WithRadius(3))))
	s := scene.NewScene("render",
		scene.WithCamera(cam),
		scene.WithLights(light.NewLight(light.LightTypeDirectional, light.WithDirection(-0.3, -1, -0.5))),
		scene.WithComputeWorkers(1),
	)
	t.Cleanup(s.Close)

	obj := game_object.NewGameObject(game_object.WithModel(model.NewModel(
		model.WithName("box"),
		model.WithGeometry(g),
		model.WithMaterial(mat),
	)))
	_, err = s.Add(obj)
	require.NoError(t, err)
	return s.Frame()
}

func TestRenderer_Braille(t *testing.T) {
	b := NewBrailleBackend(40, 20)
	r := NewRenderer(WithBackend(b))

	stats, err := r.Render(boxFrame(t, material.NewMaterial()))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Items)
	assert.Positive(t, stats.Triangles)
	assert.Positive(t, stats.BackFaces)
	assert.Zero(t, stats.Clipped)
	assert.Equal(t, uint64(1), r.Frames())

	lines := b.Lines()
	require.Len(t, lines, 20)
	assert.NotEmpty(t, strings.TrimSpace(b.String()))
	for _, l := range lines {
		assert.Equal(t, 40, len([]rune(l)))
	}
}

func TestRenderer_WireframeDrawsBackFaces(t *testing.T) {
	mat := material.NewMaterial()
	require.NoError(t, mat.Set(material.PropertyWireframe, true))

	b := NewBrailleBackend(40, 20)
	r := NewRenderer(WithBackend(b))
	stats, err := r.Render(boxFrame(t, mat))
	require.NoError(t, err)
	assert.Zero(t, stats.BackFaces)
	assert.Equal(t, 12, stats.Triangles)
	assert.NotEmpty(t, strings.TrimSpace(b.String()))
}

func TestRenderer_RasterPNG(t *testing.T) {
	bg := [4]float32{0, 0, 0, 1}
	b := NewRasterBackend(64, 48, WithBackground(bg), WithSupersample(2))
	r := NewRenderer(WithBackend(b))

	_, err := r.Render(boxFrame(t, material.NewMaterial()))
	require.NoError(t, err)

	img := b.Image()
	require.NotNil(t, img)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())

	center := img.RGBAAt(32, 24)
	assert.NotEqual(t, [3]uint8{0, 0, 0}, [3]uint8{center.R, center.G, center.B})
	corner := img.RGBAAt(0, 0)
	assert.Equal(t, [3]uint8{0, 0, 0}, [3]uint8{corner.R, corner.G, corner.B})

	var buf bytes.Buffer
	require.NoError(t, b.EncodePNG(&buf))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}

func TestRenderer_Errors(t *testing.T) {
	_, err := NewRenderer().Render(scene.Frame{})
	assert.ErrorIs(t, err, ErrNoBackend)

	_, err = NewRenderer(WithBackend(NewBrailleBackend(0, 0))).Render(scene.Frame{})
	assert.ErrorIs(t, err, ErrEmptyViewport)

	assert.Error(t, NewRasterBackend(8, 8).EncodePNG(&bytes.Buffer{}))
}

type failingBackend struct {
	BrailleBackend
}

func (failingBackend) Present() error { return errors.New("device lost") }

func TestRenderer_PresentErrorDoesNotCountFrame(t *testing.T) {
	r := NewRenderer(WithBackend(failingBackend{NewBrailleBackend(4, 4)}))
	_, err := r.Render(scene.Frame{})
	assert.EqualError(t, err, "device lost")
	assert.Zero(t, r.Frames())
}

func TestRenderer_ReleasedModelSkipped(t *testing.T) {
	frame := boxFrame(t, material.NewMaterial())
	frame.Items[0].Model.Release()

	stats, err := NewRenderer(WithBackend(NewBrailleBackend(10, 5))).Render(frame)
	require.NoError(t, err)
	assert.Zero(t, stats.Items)
	assert.Zero(t, stats.Triangles)
}

func TestRenderer_ResizeForwardsToBackend(t *testing.T) {
	b := NewBrailleBackend(10, 5)
	r := NewRenderer(WithBackend(b))
	r.Resize(20, 8)
	w, h := b.PixelSize()
	assert.Equal(t, 40, w)
	assert.Equal(t, 32, h)
	assert.Equal(t, "braille", b.Type().String())
}
