package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/config"
	"github.com/Carmen-Shannon/oxy-csg/engine/csg"
	"github.com/Carmen-Shannon/oxy-csg/engine/events"
	"github.com/Carmen-Shannon/oxy-csg/engine/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockedBuffer is a bytes.Buffer safe for the concurrent writes of slog and the command output.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut lockedBuffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		configPath, metricsAddr, logFile = "", "", ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oxycsg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMatrixCommand(t *testing.T) {
	out, err := execute(t, "matrix", "--kinds", "box,cylinder", "--ops", "union,intersection", "--jobs", "2", "--log-file", filepath.Join(t.TempDir(), "log"))
	require.NoError(t, err)
	assert.Contains(t, out, "intersection")
	assert.Contains(t, out, "cylinder")
	assert.Contains(t, out, "8 combinations, 0 failed, 0 live geometries")

	_, err = execute(t, "matrix", "--kinds", "teapot")
	assert.Error(t, err)
}

func TestRunCommand_Snapshot(t *testing.T) {
	cfgPath := writeConfig(t, `
composition:
  resolution: low
  operation: union
render:
  width: 64
  height: 48
  supersample: 1
`)
	snap := filepath.Join(t.TempDir(), "out.png")

	out, err := execute(t, "run", "--config", cfgPath, "--snapshot", snap)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+snap+" (64x48, union")
	assert.NotContains(t, out, "composition installed", "logs go to stderr")

	f, err := os.Open(snap)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	cfgPath := writeConfig(t, "composition:\n  operation: xor\n")
	_, err := execute(t, "matrix", "--config", cfgPath)
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = execute(t, "matrix", "--metrics-addr", "nope")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestStack_DispatchRecomputes(t *testing.T) {
	c := config.Default()
	c.Composition.Resolution = "low"
	reg := newMetricsRegistry()

	st, err := newStack(context.Background(), c, reg, common.Logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, st.composer.Wait(ctx))

	require.NoError(t, st.dispatcher.DispatchAll(
		events.OperationChanged{Operation: csg.Union},
		events.MaterialPropertyChanged{Name: material.PropertyRoughness, Value: 0.2},
	))
	require.NoError(t, st.composer.Wait(ctx))

	status := st.composer.Status()
	assert.Equal(t, csg.Union, status.Operation)
	assert.True(t, status.Installed)
	assert.Equal(t, status.Revision, status.InstalledRevision)
	assert.InDelta(t, 0.2, st.material.Snapshot().Roughness, 1e-6)
	assert.NotNil(t, st.scene.Slot(st.adapter.Slot()))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["oxycsg_composer_installs_total"])
	assert.True(t, names["go_goroutines"])
}

func TestServeMetrics_DisabledWaitsForContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveMetrics(ctx, "", newMetricsRegistry(), common.Logger()) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("serveMetrics did not return")
	}
}
