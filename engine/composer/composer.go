// Package composer owns the current composition of two brushes and an operation, recomputes the
// derived geometry when an edit arrives, and keeps exactly one result installed in the display.
//
// Edits are serialized by the controller lock and applied in arrival order. At most one evaluation
// runs at a time: edits that arrive while it runs only replace the pending composition, and the
// finished result is installed only if its revision is still the latest. A stale result is disposed
// and the latest composition is evaluated next.
package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/brush"
	"github.com/Carmen-Shannon/oxy-csg/engine/csg"
	"github.com/Carmen-Shannon/oxy-csg/engine/geometry"
	"github.com/Carmen-Shannon/oxy-csg/engine/presentation"
	"github.com/Carmen-Shannon/oxy-csg/engine/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// BrushCount is the number of brushes in a composition.
const BrushCount = 2

var tracer = otel.Tracer("oxy-csg/engine/composer")

var (
	// ErrIndexOutOfRange is returned for brush indices outside [0, BrushCount).
	ErrIndexOutOfRange = errors.New("brush index out of range")

	// ErrNilBrush is returned by SetBrush for a nil brush.
	ErrNilBrush = errors.New("nil brush")

	// ErrInvalidPlacement is returned for placements with a zero scale component.
	ErrInvalidPlacement = errors.New("invalid placement")

	// ErrBrushCount is returned by NewComposer when the initial brushes are not exactly BrushCount.
	ErrBrushCount = errors.New("composition needs exactly two brushes")

	// ErrNoPresenter is returned by NewComposer without a presenter.
	ErrNoPresenter = errors.New("composer: nil presenter")

	// ErrClosed is returned for edits after Close.
	ErrClosed = errors.New("composer closed")
)

// Presenter installs derived geometry into the display. presentation.Adapter implements it.
type Presenter interface {
	Install(g geometry.Geometry) (presentation.Handle, error)
	Uninstall(h presentation.Handle) error
}

// Preflighter is implemented by presenters that can tell whether an install would succeed before
// the current result is removed. presentation.Adapter implements it.
type Preflighter interface {
	CanInstall(g geometry.Geometry) error
}

type composer struct {
	mu *sync.Mutex

	current Composition
	slots   []slot

	registry  primitive.Registry
	evaluator csg.Evaluator
	presenter Presenter
	scheduler Scheduler
	ownedPool *poolScheduler
	workers   int
	logger    *slog.Logger
	metrics   *metrics
	onOutcome OutcomeHandler
	baseCtx   context.Context

	initial []brush.Brush
	initOp  csg.Operation

	phase     State
	idle      chan struct{}
	installed presentation.Handle
	hasResult bool
	status    Status
	closed    bool
	shutdown  bool
}

// Composer is the composition controller.
type Composer interface {
	// SetBrush replaces the brush at index. The brush is baked before it is stored.
	//
	// Parameters:
	//   - index: the brush index
	//   - b: the new brush
	//
	// Returns:
	//   - error: ErrIndexOutOfRange, ErrNilBrush or ErrClosed; the composition is unchanged on error
	SetBrush(index int, b brush.Brush) error

	// SetBrushKind replaces the brush at index with a new primitive of the given kind placed at the
	// slot's home placement.
	//
	// Parameters:
	//   - index: the brush index
	//   - kind: the primitive kind
	//
	// Returns:
	//   - error: ErrIndexOutOfRange, primitive.ErrUnknownKind or ErrClosed; the composition is unchanged on error
	SetBrushKind(index int, kind primitive.Kind) error

	// SetBrushPlacement moves the brush at index.
	//
	// Parameters:
	//   - index: the brush index
	//   - placement: the new placement
	//
	// Returns:
	//   - error: ErrIndexOutOfRange, ErrInvalidPlacement or ErrClosed; the composition is unchanged on error
	SetBrushPlacement(index int, placement common.Placement) error

	// SetOperation selects the boolean operation.
	//
	// Parameters:
	//   - op: the operation
	//
	// Returns:
	//   - error: csg.ErrUnknownOperation or ErrClosed; the composition is unchanged on error
	SetOperation(op csg.Operation) error

	// Composition returns a snapshot of the latest composition.
	Composition() Composition

	// State returns whether an evaluation is in flight.
	State() State

	// Status returns a summary for display.
	Status() Status

	// Installed returns the handle of the displayed result.
	//
	// Returns:
	//   - presentation.Handle: the handle
	//   - bool: false if nothing is installed
	Installed() (presentation.Handle, bool)

	// Wait blocks until the controller is idle or ctx is done.
	//
	// Parameters:
	//   - ctx: bounds the wait
	//
	// Returns:
	//   - error: ctx.Err() if ctx ended first
	Wait(ctx context.Context) error

	// Close rejects further edits, waits for the in-flight evaluation and uninstalls the result.
	// A result that finishes after Close is disposed without being installed; if ctx ends first,
	// that late finish also performs the teardown.
	//
	// Parameters:
	//   - ctx: bounds the wait
	//
	// Returns:
	//   - error: ctx.Err() if ctx ended before the controller went idle
	Close(ctx context.Context) error
}

var _ Composer = &composer{}

// NewComposer creates a controller that installs results through presenter and starts the initial
// evaluation. Without WithBrushes the composition is a sphere and a box at x=0.4; without
// WithOperation it is a subtraction.
//
// Parameters:
//   - presenter: installs results into the display
//   - options: functional options to configure the controller
//
// Returns:
//   - Composer: the controller
//   - error: ErrNoPresenter, ErrBrushCount or a brush construction error
func NewComposer(presenter Presenter, options ...ComposerBuilderOption) (Composer, error) {
	if presenter == nil {
		return nil, ErrNoPresenter
	}
	c := &composer{
		mu:        &sync.Mutex{},
		presenter: presenter,
		workers:   1,
		initOp:    csg.Subtraction,
		baseCtx:   context.Background(),
		idle:      closedChan(),
	}
	for _, option := range options {
		option(c)
	}
	if c.logger == nil {
		c.logger = common.Logger()
	}
	if c.registry == nil {
		c.registry = primitive.NewRegistry(primitive.WithLogger(c.logger))
	}
	if c.evaluator == nil {
		c.evaluator = csg.NewEvaluator(csg.WithLogger(c.logger))
	}
	if c.metrics == nil {
		c.metrics = newMetrics(nil)
	}
	if !c.initOp.Valid() {
		return nil, fmt.Errorf("new composer: %w: %d", csg.ErrUnknownOperation, int(c.initOp))
	}

	if c.initial == nil {
		defaults, err := defaultBrushes(c.registry)
		if err != nil {
			return nil, fmt.Errorf("new composer: %w", err)
		}
		c.initial = defaults
	}
	if len(c.initial) != BrushCount {
		return nil, fmt.Errorf("new composer: %w: got %d", ErrBrushCount, len(c.initial))
	}
	brushes := make([]brush.Brush, BrushCount)
	c.slots = make([]slot, BrushCount)
	for i, b := range c.initial {
		if b == nil {
			return nil, fmt.Errorf("new composer: brush %d: %w", i, ErrNilBrush)
		}
		brushes[i] = b.Bake()
		c.slots[i] = slot{name: b.Name(), home: b.Placement()}
	}

	if c.scheduler == nil {
		c.ownedPool = newPoolScheduler(c.workers)
		c.scheduler = c.ownedPool
	}

	c.mu.Lock()
	c.current = Composition{Brushes: brushes, Operation: c.initOp}
	task := c.commitLocked(c.current)
	c.mu.Unlock()
	c.run(task)
	return c, nil
}

// defaultBrushes builds the sphere and the box offset along X.
func defaultBrushes(reg primitive.Registry) ([]brush.Brush, error) {
	s, err := brush.NewBrush(reg, primitive.KindSphere, brush.WithName("brush1"))
	if err != nil {
		return nil, err
	}
	b, err := brush.NewBrush(reg, primitive.KindBox, brush.WithName("brush2"), brush.WithPosition(0.4, 0, 0))
	if err != nil {
		return nil, err
	}
	return []brush.Brush{s, b}, nil
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (c *composer) SetBrush(index int, b brush.Brush) error {
	c.mu.Lock()
	if err := c.checkLocked(index); err != nil {
		c.mu.Unlock()
		return err
	}
	if b == nil {
		c.reject("nil_brush")
		c.mu.Unlock()
		return ErrNilBrush
	}
	task := c.commitLocked(c.current.withBrush(index, b.Bake()))
	c.metrics.edits.WithLabelValues("brush").Inc()
	c.mu.Unlock()
	c.run(task)
	return nil
}

func (c *composer) SetBrushKind(index int, kind primitive.Kind) error {
	c.mu.Lock()
	if err := c.checkLocked(index); err != nil {
		c.mu.Unlock()
		return err
	}
	s := c.slots[index]
	b, err := brush.NewBaked(c.registry, kind, brush.WithName(s.name), brush.WithPlacement(s.home))
	if err != nil {
		c.reject("unknown_kind")
		c.mu.Unlock()
		return fmt.Errorf("set brush %d: %w", index, err)
	}
	task := c.commitLocked(c.current.withBrush(index, b))
	c.metrics.edits.WithLabelValues("brush_kind").Inc()
	c.mu.Unlock()
	c.run(task)
	return nil
}

func (c *composer) SetBrushPlacement(index int, placement common.Placement) error {
	c.mu.Lock()
	if err := c.checkLocked(index); err != nil {
		c.mu.Unlock()
		return err
	}
	if placement.Degenerate() {
		c.reject("invalid_placement")
		c.mu.Unlock()
		return fmt.Errorf("set brush %d: %w: %s", index, ErrInvalidPlacement, placement)
	}
	moved := c.current.Brushes[index].WithPlacement(placement).Bake()
	task := c.commitLocked(c.current.withBrush(index, moved))
	c.metrics.edits.WithLabelValues("brush_placement").Inc()
	c.mu.Unlock()
	c.run(task)
	return nil
}

func (c *composer) SetOperation(op csg.Operation) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !op.Valid() {
		c.reject("unknown_operation")
		c.mu.Unlock()
		return fmt.Errorf("set operation: %w: %d", csg.ErrUnknownOperation, int(op))
	}
	next := c.current.clone()
	next.Operation = op
	task := c.commitLocked(next)
	c.metrics.edits.WithLabelValues("operation").Inc()
	c.mu.Unlock()
	c.run(task)
	return nil
}

// checkLocked validates the common preconditions of brush edits. Caller must hold c.mu.
func (c *composer) checkLocked(index int) error {
	if c.closed {
		return ErrClosed
	}
	if index < 0 || index >= len(c.current.Brushes) {
		c.reject("index_out_of_range")
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(c.current.Brushes))
	}
	return nil
}

func (c *composer) reject(reason string) {
	c.metrics.rejected.WithLabelValues(reason).Inc()
}

// commitLocked makes next the current composition under a new revision. If no evaluation is in
// flight it starts one and returns the task to schedule once the lock is released; otherwise the
// edit is folded into the running recompute and nil is returned. Caller must hold c.mu.
func (c *composer) commitLocked(next Composition) func() {
	next.Revision = c.current.Revision + 1
	c.current = next
	if c.phase == StateRecomputing {
		c.metrics.coalesced.Inc()
		c.logger.Debug("edit coalesced", slog.Uint64("revision", next.Revision))
		return nil
	}
	c.phase = StateRecomputing
	c.idle = make(chan struct{})
	return c.taskLocked()
}

// taskLocked captures the current composition for evaluation. Caller must hold c.mu.
func (c *composer) taskLocked() func() {
	snap := c.current.clone()
	return func() { c.recompute(snap) }
}

func (c *composer) run(task func()) {
	if task != nil {
		c.scheduler.Schedule(task)
	}
}

func (c *composer) recompute(snap Composition) {
	ctx, span := tracer.Start(c.baseCtx, "composer.recompute", trace.WithAttributes(
		attribute.Int64("revision", int64(snap.Revision)),
		attribute.String("operation", snap.Operation.String()),
	))
	start := time.Now()
	g, err := c.evaluate(ctx, snap)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	c.metrics.duration.Observe(elapsed.Seconds())
	c.finish(snap, g, err, elapsed)
}

// evaluate runs the evaluator, converting a panic into an evaluation error.
func (c *composer) evaluate(ctx context.Context, snap Composition) (g geometry.Geometry, err error) {
	defer func() {
		if r := recover(); r != nil {
			if g != nil {
				g.Dispose()
			}
			g = nil
			err = &csg.EvaluationError{Operation: snap.Operation, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return c.evaluator.Evaluate(ctx, snap.Brushes[0], snap.Brushes[1], snap.Operation)
}

// finish applies the freshness check and, for a fresh result, swaps the installed result.
func (c *composer) finish(snap Composition, g geometry.Geometry, err error, elapsed time.Duration) {
	c.mu.Lock()

	if snap.Revision != c.current.Revision {
		if g != nil {
			g.Dispose()
		}
		c.metrics.evaluations.WithLabelValues("discarded").Inc()
		c.logger.Debug("stale result discarded",
			slog.Uint64("revision", snap.Revision),
			slog.Uint64("latest", c.current.Revision),
		)
		if c.closed {
			c.teardownLocked(func(stop func()) { go stop() })
			c.goIdleLocked()
			c.mu.Unlock()
			return
		}
		task := c.taskLocked()
		c.mu.Unlock()
		c.run(task)
		return
	}

	out := Outcome{Revision: snap.Revision, Operation: snap.Operation, Duration: elapsed}
	if c.closed {
		if g != nil {
			g.Dispose()
		}
		c.metrics.evaluations.WithLabelValues("discarded").Inc()
		c.logger.Debug("result discarded after close", slog.Uint64("revision", snap.Revision))
		c.teardownLocked(func(stop func()) { go stop() })
		out.Err = ErrClosed
		c.status.LastError = ErrClosed
		c.goIdleLocked()
		handler := c.onOutcome
		c.mu.Unlock()
		if handler != nil {
			c.deliver(handler, out)
		}
		return
	}
	if err != nil {
		c.metrics.evaluations.WithLabelValues("failed").Inc()
		out.Err = err
		if errors.Is(err, csg.ErrStaleTransform) {
			c.logger.Error("unbaked brush reached the evaluator", slog.Uint64("revision", snap.Revision), slog.Any("error", err))
		} else {
			c.logger.Error("evaluation failed, keeping previous result",
				slog.Uint64("revision", snap.Revision),
				slog.String("operation", snap.Operation.String()),
				slog.Any("error", err),
			)
		}
	} else {
		c.metrics.evaluations.WithLabelValues("ok").Inc()
		out.Triangles = g.TriangleCount()
		c.swapLocked(g, &out)
	}

	c.status.LastError = out.Err
	c.status.LastDuration = elapsed
	if out.Installed {
		c.status.InstalledRevision = snap.Revision
		c.status.Triangles = out.Triangles
	}
	c.goIdleLocked()
	handler := c.onOutcome
	c.mu.Unlock()

	if handler != nil {
		c.deliver(handler, out)
	}
}

// swapLocked releases the installed result and installs g in its place. A presenter that refuses
// the install up front leaves the previous result in place. Caller must hold c.mu.
func (c *composer) swapLocked(g geometry.Geometry, out *Outcome) {
	if pf, ok := c.presenter.(Preflighter); ok {
		if err := pf.CanInstall(g); err != nil {
			g.Dispose()
			out.Err = fmt.Errorf("install revision %d: %w", out.Revision, err)
			c.logger.Error("install refused, keeping previous result", slog.Uint64("revision", out.Revision), slog.Any("error", err))
			return
		}
	}
	if c.hasResult {
		if err := c.presenter.Uninstall(c.installed); err != nil {
			c.logger.Warn("uninstall failed", slog.String("handle", c.installed.String()), slog.Any("error", err))
		}
		c.metrics.uninstalls.Inc()
		c.hasResult = false
		c.installed = presentation.Handle{}
	}

	h, err := c.presenter.Install(g)
	if err != nil {
		g.Dispose()
		out.Err = fmt.Errorf("install revision %d: %w", out.Revision, err)
		c.logger.Error("install failed", slog.Uint64("revision", out.Revision), slog.Any("error", err))
		return
	}
	c.metrics.installs.Inc()
	c.installed = h
	c.hasResult = true
	out.Installed = true
	out.Handle = h
	c.logger.Info("composition installed",
		slog.Uint64("revision", out.Revision),
		slog.String("operation", out.Operation.String()),
		slog.Int("triangles", out.Triangles),
		slog.Duration("took", out.Duration),
	)
}

func (c *composer) deliver(handler OutcomeHandler, out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("outcome handler panicked", slog.Any("panic", r))
		}
	}()
	handler(out)
}

// goIdleLocked leaves the Recomputing state. Caller must hold c.mu.
func (c *composer) goIdleLocked() {
	c.phase = StateIdle
	close(c.idle)
}

func (c *composer) Composition() Composition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.clone()
}

func (c *composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *composer) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.status
	s.State = c.phase
	s.Revision = c.current.Revision
	s.Operation = c.current.Operation
	s.Installed = c.hasResult
	s.Kinds = make([]string, len(c.current.Brushes))
	s.Placements = make([]common.Placement, len(c.current.Brushes))
	for i, b := range c.current.Brushes {
		s.Kinds[i] = b.KindName()
		s.Placements[i] = b.Placement()
	}
	return s
}

func (c *composer) Installed() (presentation.Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.installed, c.hasResult
}

func (c *composer) Wait(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *composer) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	if err := c.Wait(ctx); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked(func(stop func()) { stop() })
	return nil
}

// teardownLocked releases the installed result and stops the owned worker pool, once. A recompute
// that finishes after a timed-out Close runs it from a pool worker, so the pool stop is handed to
// stopper. Caller must hold c.mu.
func (c *composer) teardownLocked(stopper func(stop func())) {
	if c.shutdown {
		return
	}
	c.shutdown = true
	if c.hasResult {
		if err := c.presenter.Uninstall(c.installed); err != nil {
			c.logger.Warn("uninstall failed", slog.String("handle", c.installed.String()), slog.Any("error", err))
		}
		c.metrics.uninstalls.Inc()
		c.hasResult = false
		c.installed = presentation.Handle{}
	}
	if c.ownedPool != nil {
		stopper(c.ownedPool.stop)
	}
}
