package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/profiler"
	"github.com/Carmen-Shannon/oxy-csg/engine/renderer"
	"github.com/Carmen-Shannon/oxy-csg/engine/scene"
)

var (
	// ErrAlreadyRunning is returned by Run when the engine loops are already running.
	ErrAlreadyRunning = errors.New("engine: already running")

	// ErrStopped is returned by Run after Quit; an engine runs at most once.
	ErrStopped = errors.New("engine: stopped")

	// ErrNoRenderer is returned by RenderOnce when no renderer is configured.
	ErrNoRenderer = errors.New("engine: no renderer")
)

// engine implements the Engine interface.
// Coordinates the fixed-rate tick loop and the render loop.
type engine struct {
	mu *sync.RWMutex

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	renderer renderer.Renderer
	logger   *slog.Logger

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32, stats renderer.Stats)

	scenes map[int]scene.Scene

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main loop driver.
// It advances active scenes at a fixed tick rate and renders them through a Renderer on a second
// goroutine, merging every active scene into one frame in ascending z-index order.
type Engine interface {
	// Renderer returns the renderer used by the render loop.
	//
	// Returns:
	//   - renderer.Renderer: the renderer, or nil
	Renderer() renderer.Renderer

	// SetRenderer replaces the renderer used by the render loop.
	//
	// Parameters:
	//   - r: the renderer
	SetRenderer(r renderer.Renderer)

	// Profiler returns the frame profiler.
	//
	// Returns:
	//   - *profiler.Profiler: the profiler
	Profiler() *profiler.Profiler

	// EnableProfiler enables periodic profiler reports.
	EnableProfiler()

	// DisableProfiler disables periodic profiler reports.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// The tick callback will be called at this rate after active scenes have advanced.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each render frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds and the frame statistics
	SetRenderCallback(callback func(deltaTime float32, stats renderer.Stats))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop.
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index determining merge order (lower first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by z-index.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Tick advances every active scene by dt and fires the tick callback.
	//
	// Parameters:
	//   - dt: the delta time in seconds
	Tick(dt float32)

	// RenderOnce renders the active scenes synchronously.
	//
	// Returns:
	//   - renderer.Stats: the frame statistics
	//   - error: ErrNoRenderer or the renderer's error
	RenderOnce() (renderer.Stats, error)

	// Run starts the tick and render loops and blocks until ctx is done or Quit is called.
	//
	// Parameters:
	//   - ctx: cancelling the context stops the engine
	//
	// Returns:
	//   - error: ErrAlreadyRunning or ErrStopped when the engine cannot start
	Run(ctx context.Context) error

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// The tick rate defaults to 60Hz and the render loop to 30 frames per second.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, renderer, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:               &sync.RWMutex{},
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		scenes:           make(map[int]scene.Scene),
		engineTickRate:   time.Second / 60,
		renderFrameLimit: time.Second / 30,
	}

	for _, opt := range options {
		opt(e)
	}
	e.logger = common.Coalesce(e.logger, common.Logger())
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}

	return e
}

func (e *engine) Renderer() renderer.Renderer {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.renderer
}

func (e *engine) SetRenderer(r renderer.Renderer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderer = r
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Run(ctx context.Context) error {
	select {
	case <-e.quitChannel:
		return ErrStopped
	default:
	}
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	e.handle()
	select {
	case <-ctx.Done():
		e.signalQuit()
	case <-e.quitChannel:
	}
	e.wg.Wait()
	e.running.Store(false)
	return nil
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handle launches the tick and render goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the fixed-rate tick loop in its own goroutine.
// Advances active scenes and fires the tick callback at the configured tick rate and listens for
// dynamic rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer e.recoverLoop("tick")

	e.mu.RLock()
	rate := e.engineTickRate
	e.mu.RUnlock()
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.Tick(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.mu.Lock()
			e.engineTickRate = newRate
			e.mu.Unlock()
		}
	}
}

// handleRender runs the frame-limited render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer e.recoverLoop("render")

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		stats, err := e.RenderOnce()
		if err != nil && !errors.Is(err, ErrNoRenderer) {
			e.logger.Debug("render frame failed", "error", err)
		}

		e.mu.RLock()
		cb := e.renderCallback
		limit := e.renderFrameLimit
		e.mu.RUnlock()
		if cb != nil {
			cb(dt, stats)
		}

		if e.profilingEnabled.Load() {
			e.profiler.Tick()
		}

		if limit <= 0 {
			continue
		}
		remaining := limit - time.Since(lastRender)
		if remaining <= 0 {
			continue
		}
		timer := time.NewTimer(remaining)
		select {
		case <-e.quitChannel:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// recoverLoop logs a panic from an engine goroutine and stops the engine.
func (e *engine) recoverLoop(loop string) {
	if r := recover(); r != nil {
		e.logger.Error("engine goroutine recovered from panic", "loop", loop, "panic", fmt.Sprint(r))
		e.signalQuit()
	}
}

func (e *engine) Tick(dt float32) {
	for _, s := range e.activeScenes() {
		s.PrepareCompute(dt)
	}
	e.mu.RLock()
	cb := e.tickCallback
	e.mu.RUnlock()
	if cb != nil {
		cb(dt)
	}
}

func (e *engine) RenderOnce() (renderer.Stats, error) {
	r := e.Renderer()
	if r == nil {
		return renderer.Stats{}, ErrNoRenderer
	}
	return r.Render(mergeFrames(e.activeScenes()))
}

// activeScenes returns the active scenes in ascending z-index order.
func (e *engine) activeScenes() []scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()

	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	active := make([]scene.Scene, 0, len(keys))
	for _, k := range keys {
		if s := e.scenes[k]; s.Active() {
			active = append(active, s)
		}
	}
	return active
}

// mergeFrames composes the frames of several scenes into one. The first scene supplies the
// camera and ambient term; items and lights are concatenated in order.
func mergeFrames(scenes []scene.Scene) scene.Frame {
	var out scene.Frame
	for i, s := range scenes {
		f := s.Frame()
		if i == 0 {
			out.ViewProjection = f.ViewProjection
			out.Eye = f.Eye
			out.Ambient = f.Ambient
		}
		out.Lights = append(out.Lights, f.Lights...)
		out.Items = append(out.Items, f.Items...)
		out.Culled += f.Culled
	}
	return out
}

// EnableProfiler enables periodic profiler reports.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables periodic profiler reports.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if e.running.Load() {
		// Latest value wins: replace a pending update that the loop has not consumed yet.
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			select {
			case e.tickRateChannel <- newRate:
			default:
			}
		}
		return
	}
	e.mu.Lock()
	e.engineTickRate = newRate
	e.mu.Unlock()
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32, stats renderer.Stats)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}
