package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/config"
	"github.com/Carmen-Shannon/oxy-csg/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
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

	model := tui.New(st.dispatcher, st.composer,
		tui.WithMaterial(st.material),
		tui.WithEngine(st.engine),
		tui.WithCamera(st.camera),
		tui.WithKinds(st.registry.Kinds()),
		tui.WithFrameRate(cfg.Render.FPS),
		tui.WithCellAspect(cfg.Render.CellAspect),
		tui.WithLogger(logger),
	)

	g, gctx := errgroup.WithContext(ctx)
	uiCtx, cancelUI := context.WithCancel(gctx)
	defer cancelUI()

	g.Go(func() error {
		defer cancelUI()
		_, err := tea.NewProgram(model,
			tea.WithAltScreen(),
			tea.WithContext(uiCtx),
			tea.WithInput(cmd.InOrStdin()),
			tea.WithOutput(cmd.OutOrStdout()),
		).Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return serveMetrics(uiCtx, cfg.Metrics.Addr, reg, logger)
	})
	if configPath != "" {
		g.Go(func() error {
			return watchConfig(uiCtx, st)
		})
	}
	return g.Wait()
}

// watchConfig hot-reloads the configuration file into the stack's dispatcher until ctx is done.
func watchConfig(ctx context.Context, st *stack) error {
	w, err := config.NewWatcher(configPath, cfg, st.dispatcher,
		config.WithKindResolver(st.registry.Lookup),
		config.WithLogger(st.logger),
	)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	w.Stop()
	return nil
}
