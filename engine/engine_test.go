package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"cogentcore.org/core/math32"
	"github.com/Carmen-Shannon/oxy-csg/engine/camera"
	"github.com/Carmen-Shannon/oxy-csg/engine/game_object"
	"github.com/Carmen-Shannon/oxy-csg/engine/geometry"
	"github.com/Carmen-Shannon/oxy-csg/engine/model"
	"github.com/Carmen-Shannon/oxy-csg/engine/renderer"
	"github.com/Carmen-Shannon/oxy-csg/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadScene(t *testing.T, name string, active bool) (scene.Scene, game_object.GameObject) {
	t.Helper()
	g := geometry.NewGeometry(geometry.WithPositions([]math32.Vector3{
		math32.Vec3(-0.5, -0.5, 0), math32.Vec3(0.5, -0.5, 0), math32.Vec3(0.5, 0.5, 0), math32.Vec3(-0.5, 0.5, 0),
	}), geometry.WithIndices([]uint32{0, 1, 2, 0, 2, 3}))
	obj := game_object.NewGameObject(
		game_object.WithModel(model.NewModel(model.WithName(name), model.WithGeometry(g))),
		game_object.WithRotationSpeed(0, 1, 0),
	)
	cam := camera.NewCamera(camera.WithController(camera.NewOrbitController(
		camera.WithRadius(3), camera.WithAzimuth(0), camera.WithElevation(0),
	)))
	s := scene.NewScene(name, scene.WithCamera(cam), scene.WithActive(active), scene.WithComputeWorkers(1))
	t.Cleanup(s.Close)
	_, err := s.Add(obj)
	require.NoError(t, err)
	return s, obj
}

func TestEngine_TickAdvancesActiveScenes(t *testing.T) {
	active, spinning := quadScene(t, "active", true)
	inactive, still := quadScene(t, "inactive", false)

	var ticks atomic.Int32
	e := NewEngine(WithScene(0, active), WithScene(1, inactive))
	e.SetTickCallback(func(float32) { ticks.Add(1) })

	e.Tick(0.25)

	_, ry, _ := spinning.Rotation()
	assert.InDelta(t, 0.25, ry, 1e-6)
	_, ry, _ = still.Rotation()
	assert.Zero(t, ry)
	assert.Equal(t, int32(1), ticks.Load())
}

func TestEngine_RenderOnceMergesActiveScenes(t *testing.T) {
	e := NewEngine()
	_, err := e.RenderOnce()
	assert.ErrorIs(t, err, ErrNoRenderer)

	first, _ := quadScene(t, "first", true)
	second, _ := quadScene(t, "second", true)
	hidden, _ := quadScene(t, "hidden", false)
	e.AddScene(0, first)
	e.AddScene(1, second)
	e.AddScene(2, hidden)
	assert.Len(t, e.Scenes(), 3)

	b := renderer.NewBrailleBackend(20, 10)
	e.SetRenderer(renderer.NewRenderer(renderer.WithBackend(b)))
	stats, err := e.RenderOnce()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Items)

	e.RemoveScene(1)
	assert.Nil(t, e.Scene(1))
	stats, err = e.RenderOnce()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Items)
}

func TestEngine_RunStopsOnContext(t *testing.T) {
	s, _ := quadScene(t, "run", true)
	b := renderer.NewBrailleBackend(10, 5)

	var frames atomic.Int32
	e := NewEngine(
		WithScene(0, s),
		WithRenderer(renderer.NewRenderer(renderer.WithBackend(b))),
		WithTickRate(200),
		WithRenderFrameLimit(200),
		WithProfiling(true),
	)
	e.SetRenderCallback(func(float32, renderer.Stats) { frames.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	require.Eventually(t, func() bool { return frames.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, e.Run(context.Background()), ErrAlreadyRunning)
	e.SetTickRate(120)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}
	assert.ErrorIs(t, e.Run(context.Background()), ErrStopped)
}

func TestEngine_PanicInTickQuits(t *testing.T) {
	e := NewEngine(WithTickRate(500))
	e.SetTickCallback(func(float32) { panic("boom") })

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop after panic")
	}
}

func TestEngine_QuitIsIdempotent(t *testing.T) {
	e := NewEngine()
	e.Quit()
	e.Quit()
	assert.ErrorIs(t, e.Run(context.Background()), ErrStopped)
	assert.NotNil(t, e.Profiler())
}
