package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/Carmen-Shannon/oxy-csg/engine"
	"github.com/Carmen-Shannon/oxy-csg/engine/camera"
	"github.com/Carmen-Shannon/oxy-csg/engine/composer"
	"github.com/Carmen-Shannon/oxy-csg/engine/config"
	"github.com/Carmen-Shannon/oxy-csg/engine/events"
	"github.com/Carmen-Shannon/oxy-csg/engine/light"
	"github.com/Carmen-Shannon/oxy-csg/engine/material"
	"github.com/Carmen-Shannon/oxy-csg/engine/presentation"
	"github.com/Carmen-Shannon/oxy-csg/engine/primitive"
	"github.com/Carmen-Shannon/oxy-csg/engine/scene"
	"github.com/prometheus/client_golang/prometheus"
)

// stack is the composition wired to a display: controller, presentation adapter, scene and engine.
type stack struct {
	registry   primitive.Registry
	material   material.Material
	scene      scene.Scene
	camera     camera.Camera
	adapter    presentation.Adapter
	composer   composer.Composer
	dispatcher events.Dispatcher
	engine     engine.Engine
	logger     *slog.Logger
}

// newStack builds the display and the controller from a configuration. The controller starts the
// initial evaluation before newStack returns.
//
// Parameters:
//   - ctx: parent context of evaluation spans
//   - c: the configuration
//   - reg: registers the controller metrics, or nil
//   - logger: the logger
//
// Returns:
//   - *stack: the wired stack
//   - error: if the configuration cannot be turned into a composition
func newStack(ctx context.Context, c config.Config, reg prometheus.Registerer, logger *slog.Logger) (*stack, error) {
	res, err := c.Composition.ParsedResolution()
	if err != nil {
		return nil, err
	}
	op, err := c.Composition.ParsedOperation()
	if err != nil {
		return nil, err
	}

	s := &stack{logger: logger}
	s.registry = primitive.NewRegistry(primitive.WithResolution(res), primitive.WithLogger(logger))
	brushes, err := c.Composition.BuildBrushes(s.registry)
	if err != nil {
		return nil, err
	}

	s.material = material.NewMaterial(material.WithLogger(logger))
	if err := c.Material.Apply(s.material); err != nil {
		return nil, err
	}

	s.camera = camera.NewCamera(
		camera.WithFov(float32(45.0*math.Pi/180.0)),
		camera.WithAspect(float32(c.Render.Width)/float32(c.Render.Height)),
		camera.WithNear(0.1),
		camera.WithFar(100),
		camera.WithController(camera.NewOrbitController(
			camera.WithRadius(3.2),
			camera.WithAzimuth(0.6),
			camera.WithElevation(0.45),
			camera.WithRadiusBounds(1, 20),
		)),
	)
	s.scene = scene.NewScene("composition",
		scene.WithActive(true),
		scene.WithCamera(s.camera),
		scene.WithLights(
			light.NewLight(light.LightTypeDirectional, light.WithDirection(-0.4, -1, -0.6)),
			light.NewLight(light.LightTypePoint, light.WithPosition(2, 2, 3), light.WithIntensity(0.6), light.WithRange(12)),
		),
		scene.WithComputeWorkers(1),
	)

	s.adapter = presentation.NewAdapter(s.scene,
		presentation.WithMaterial(s.material),
		presentation.WithRotationSpeed(0, c.Render.RotationSpeed, 0),
		presentation.WithLogger(logger),
	)

	s.composer, err = composer.NewComposer(s.adapter,
		composer.WithRegistry(s.registry),
		composer.WithBrushes(brushes...),
		composer.WithOperation(op),
		composer.WithWorkers(max(c.Composition.Workers, 1)),
		composer.WithRegisterer(reg),
		composer.WithContext(ctx),
		composer.WithOutcomeHandler(s.onOutcome),
		composer.WithLogger(logger),
	)
	if err != nil {
		s.scene.Close()
		return nil, fmt.Errorf("compose: %w", err)
	}
	s.dispatcher = events.NewDispatcher(s.composer, s.material, logger)

	s.engine = engine.NewEngine(
		engine.WithScene(0, s.scene),
		engine.WithTickRate(c.Render.TickRate),
		engine.WithRenderFrameLimit(c.Render.FPS),
		engine.WithProfiling(c.Render.Profiling),
		engine.WithLogger(logger),
	)
	return s, nil
}

func (s *stack) onOutcome(out composer.Outcome) {
	if out.Err != nil {
		s.logger.Error("evaluation failed", "revision", out.Revision, "operation", out.Operation.String(), "error", out.Err)
		return
	}
	s.logger.Info("result installed",
		"revision", out.Revision,
		"operation", out.Operation.String(),
		"handle", out.Handle.String(),
		"triangles", out.Triangles,
		"duration", out.Duration,
	)
}

// Close stops the controller, removes the result and releases the scene workers.
func (s *stack) Close(ctx context.Context) error {
	s.engine.Quit()
	err := s.composer.Close(ctx)
	s.scene.Close()
	return err
}
