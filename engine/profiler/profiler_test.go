package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestProfiler_ReportsAfterInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	var buf bytes.Buffer
	p := NewProfiler(
		WithClock(clock.now),
		WithInterval(time.Second),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)

	for range 29 {
		clock.t = clock.t.Add(10 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	assert.Zero(t, p.Last().FPS)

	clock.t = clock.t.Add(710 * time.Millisecond)
	assert.True(t, p.Tick())

	snap := p.Last()
	assert.InDelta(t, 30.0, snap.FPS, 1e-9)
	assert.Positive(t, snap.HeapMB)
	assert.Equal(t, clock.t, snap.At)
	assert.Contains(t, buf.String(), "fps=30")

	clock.t = clock.t.Add(10 * time.Millisecond)
	assert.False(t, p.Tick())
}

func TestProfiler_Defaults(t *testing.T) {
	p := NewProfiler(WithInterval(-1), WithClock(nil))
	assert.Equal(t, time.Second, p.updateInterval)
	assert.NotNil(t, p.now)
	assert.NotNil(t, p.logger)
}
