package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/renderer"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func runHeadless(cmd *cobra.Command, _ []string) error {
	snapshot, _ := cmd.Flags().GetString("snapshot")
	duration, _ := cmd.Flags().GetDuration("duration")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}
	logger := common.Logger()

	reg := newMetricsRegistry()
	st, err := newStack(ctx, cfg, reg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = st.Close(closeCtx)
	}()

	backend := renderer.NewRasterBackend(cfg.Render.Width, cfg.Render.Height,
		renderer.WithBackground(cfg.Render.BackgroundColor()),
		renderer.WithSupersample(cfg.Render.Supersample),
	)
	st.engine.SetRenderer(renderer.NewRenderer(renderer.WithBackend(backend), renderer.WithLogger(logger)))

	if snapshot != "" {
		return writeSnapshot(ctx, cmd, st, backend, snapshot)
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancelRun := context.WithCancel(gctx)
	defer cancelRun()

	g.Go(func() error {
		defer cancelRun()
		return st.engine.Run(runCtx)
	})
	g.Go(func() error {
		return serveMetrics(runCtx, cfg.Metrics.Addr, reg, logger)
	})
	if configPath != "" {
		g.Go(func() error {
			return watchConfig(runCtx, st)
		})
	}
	logger.Info("composing", "operation", cfg.Composition.Operation, "width", cfg.Render.Width, "height", cfg.Render.Height)
	return g.Wait()
}

// writeSnapshot waits for the first result and writes it as a PNG.
func writeSnapshot(ctx context.Context, cmd *cobra.Command, st *stack, backend renderer.RasterBackend, path string) error {
	if err := st.composer.Wait(ctx); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	status := st.composer.Status()
	if status.LastError != nil {
		return fmt.Errorf("snapshot: %w", status.LastError)
	}

	st.engine.Tick(0)
	stats, err := st.engine.RenderOnce()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := backend.SavePNG(path); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	size := backend.Image().Bounds().Size()
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d, %s, %d triangles, revision %d)\n",
		path, size.X, size.Y, status.Operation, stats.Triangles, status.InstalledRevision)
	return nil
}
