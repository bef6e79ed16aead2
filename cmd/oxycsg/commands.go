package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/config"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath  string
	metricsAddr string
	logFile     string

	// cfg is loaded once by the root PersistentPreRunE.
	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   "oxycsg",
		Short: "Compose two primitive solids with a boolean operation and watch the result",
		Long: `oxycsg keeps a composition of two primitive brushes and a boolean operation,
recomputes the solid whenever an edit arrives and shows exactly one result.`,
		SilenceUsage: true,
	}

	tuiCmd = &cobra.Command{
		Use:   "tui",
		Short: "Interactive terminal panel (default)",
		RunE:  runTUI, // Defined in cmd_tui.go
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Compose headless, optionally writing a PNG snapshot",
		RunE:  runHeadless, // Defined in cmd_run.go
	}

	matrixCmd = &cobra.Command{
		Use:   "matrix",
		Short: "Evaluate every kind x kind x operation combination and print statistics",
		RunE:  runMatrix, // Defined in cmd_matrix.go
	}
)

func init() {
	rootCmd.PersistentPreRunE = loadConfig
	rootCmd.RunE = runTUI

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML configuration file (hot reloaded)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on host:port (overrides metrics.addr)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(tuiCmd)

	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("snapshot", "", "Write a PNG of the first result to this path and exit")
	runCmd.Flags().Duration("duration", 0, "Stop after this long (0 runs until interrupted)")

	rootCmd.AddCommand(matrixCmd)
	matrixCmd.Flags().StringSlice("kinds", nil, "Kinds to combine (default: every built-in kind)")
	matrixCmd.Flags().StringSlice("ops", nil, "Operations to evaluate (default: every operation)")
	matrixCmd.Flags().Int("jobs", 0, "Concurrent evaluations (default: number of CPUs)")
}

// loadConfig reads the configuration and installs the process logger.
func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		loaded.Metrics.Addr = metricsAddr
		if err := loaded.Validate(); err != nil {
			return err
		}
	}
	cfg = loaded

	w, err := logWriter(cmd)
	if err != nil {
		return err
	}
	logger := slog.New(cfg.Log.Handler(w))
	common.SetLogger(logger)
	slog.SetDefault(logger)
	return nil
}

// logWriter picks the log destination. The panel owns the terminal, so it logs nowhere unless
// --log-file is given.
func logWriter(cmd *cobra.Command) (io.Writer, error) {
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		return f, nil
	}
	if !cmd.HasParent() || cmd.Name() == "tui" {
		return io.Discard, nil
	}
	return cmd.ErrOrStderr(), nil
}
