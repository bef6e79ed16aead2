package composer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/brush"
	"github.com/Carmen-Shannon/oxy-csg/engine/csg"
	"github.com/Carmen-Shannon/oxy-csg/engine/geometry"
	"github.com/Carmen-Shannon/oxy-csg/engine/presentation"
	"github.com/Carmen-Shannon/oxy-csg/engine/primitive"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePresenter enforces the single-result rule and disposes geometry on uninstall.
type fakePresenter struct {
	mu         sync.Mutex
	live       map[uuid.UUID]geometry.Geometry
	installs   int
	uninstalls int
	maxLive    int
	last       geometry.Geometry
	installErr error
	refuseErr  error
}

func newFakePresenter() *fakePresenter {
	return &fakePresenter{live: make(map[uuid.UUID]geometry.Geometry)}
}

func (p *fakePresenter) Install(g geometry.Geometry) (presentation.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.installErr != nil {
		return presentation.Handle{}, p.installErr
	}
	if len(p.live) > 0 {
		return presentation.Handle{}, presentation.ErrSlotOccupied
	}
	h := presentation.Handle{ID: uuid.New(), ObjectID: uint64(p.installs + 1), Slot: "result"}
	p.live[h.ID] = g
	p.installs++
	p.last = g
	p.maxLive = max(p.maxLive, len(p.live))
	return h, nil
}

func (p *fakePresenter) CanInstall(geometry.Geometry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refuseErr
}

func (p *fakePresenter) Uninstall(h presentation.Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.live[h.ID]
	if !ok {
		return presentation.ErrUnknownHandle
	}
	delete(p.live, h.ID)
	g.Dispose()
	p.uninstalls++
	return nil
}

func (p *fakePresenter) counts() (installs, uninstalls, live, maxLive int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.installs, p.uninstalls, len(p.live), p.maxLive
}

func (p *fakePresenter) current() geometry.Geometry {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, g := range p.live {
		return g
	}
	return nil
}

// scriptedEvaluator counts calls, can hold evaluations at a gate and can fail or panic per operation.
type scriptedEvaluator struct {
	inner   csg.Evaluator
	calls   atomic.Int32
	entered chan csg.Operation

	mu      sync.Mutex
	gate    chan struct{}
	failOn  map[csg.Operation]error
	panicOn map[csg.Operation]bool
}

func newScriptedEvaluator(ledger *geometry.Ledger) *scriptedEvaluator {
	return &scriptedEvaluator{
		inner:   csg.NewEvaluator(csg.WithLedger(ledger)),
		entered: make(chan csg.Operation, 64),
		failOn:  make(map[csg.Operation]error),
		panicOn: make(map[csg.Operation]bool),
	}
}

func (e *scriptedEvaluator) hold() chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gate = make(chan struct{})
	return e.gate
}

func (e *scriptedEvaluator) Evaluate(ctx context.Context, a, b brush.Brush, op csg.Operation) (geometry.Geometry, error) {
	e.calls.Add(1)
	e.entered <- op

	e.mu.Lock()
	gate := e.gate
	failErr := e.failOn[op]
	boom := e.panicOn[op]
	e.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if boom {
		panic("clipper exploded")
	}
	if failErr != nil {
		return nil, &csg.EvaluationError{Operation: op, Err: failErr}
	}
	return e.inner.Evaluate(ctx, a, b, op)
}

var (
	syncScheduler = SchedulerFunc(func(task func()) { task() })
	goScheduler   = SchedulerFunc(func(task func()) { go task() })
)

type outcomeLog struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (l *outcomeLog) record(o Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outcomes = append(l.outcomes, o)
}

func (l *outcomeLog) all() []Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Outcome(nil), l.outcomes...)
}

func (l *outcomeLog) lastOutcome() Outcome {
	all := l.all()
	if len(all) == 0 {
		return Outcome{}
	}
	return all[len(all)-1]
}

type harness struct {
	c         *composer
	presenter *fakePresenter
	evaluator *scriptedEvaluator
	ledger    *geometry.Ledger
	outcomes  *outcomeLog
}

func newHarness(t *testing.T, scheduler Scheduler, opts ...ComposerBuilderOption) *harness {
	t.Helper()
	h := &harness{
		presenter: newFakePresenter(),
		ledger:    geometry.NewLedger(),
		outcomes:  &outcomeLog{},
	}
	h.evaluator = newScriptedEvaluator(h.ledger)
	base := []ComposerBuilderOption{
		WithRegistry(primitive.NewRegistry(primitive.WithResolution(primitive.ResolutionLow))),
		WithEvaluator(h.evaluator),
		WithScheduler(scheduler),
		WithOutcomeHandler(h.outcomes.record),
	}
	c, err := NewComposer(h.presenter, append(base, opts...)...)
	require.NoError(t, err)
	h.c = c.(*composer)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return h
}

func (h *harness) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, h.c.Wait(ctx))
}

func TestComposer_InitialComposition(t *testing.T) {
	h := newHarness(t, syncScheduler)
	h.wait(t)

	st := h.c.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Equal(t, uint64(1), st.Revision)
	assert.Equal(t, csg.Subtraction, st.Operation)
	assert.Equal(t, []string{"sphere", "box"}, st.Kinds)
	assert.Equal(t, common.At(0.4, 0, 0), st.Placements[1])
	assert.True(t, st.Installed)
	assert.Equal(t, uint64(1), st.InstalledRevision)

	comp := h.c.Composition()
	for _, b := range comp.Brushes {
		assert.True(t, b.Baked())
	}
	assert.Equal(t, "brush2", comp.Brushes[1].Name())

	_, ok := h.c.Installed()
	assert.True(t, ok)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.c.metrics.installs))
}

func TestComposer_SphereBoxSubtractionThenUnion(t *testing.T) {
	h := newHarness(t, syncScheduler)
	h.wait(t)

	sphereVolume := h.c.Composition().Brushes[0].Mesh().Volume()
	subtracted := h.presenter.current()
	require.NotNil(t, subtracted)
	assert.Less(t, subtracted.Volume(), sphereVolume)

	require.NoError(t, h.c.SetOperation(csg.Union))
	h.wait(t)

	united := h.presenter.current()
	require.NotNil(t, united)
	assert.Greater(t, united.Volume(), sphereVolume)
	assert.True(t, subtracted.Disposed(), "previous result released")

	installs, uninstalls, live, maxLive := h.presenter.counts()
	assert.Equal(t, 2, installs)
	assert.Equal(t, 1, uninstalls)
	assert.Equal(t, 1, live)
	assert.Equal(t, 1, maxLive)

	out := h.outcomes.lastOutcome()
	assert.Equal(t, csg.Union, out.Operation)
	assert.True(t, out.Installed)
	assert.NoError(t, out.Err)
	assert.Positive(t, out.Triangles)
}

func TestComposer_InvalidKindRejected(t *testing.T) {
	h := newHarness(t, syncScheduler)
	h.wait(t)
	before := h.c.Composition()
	calls := h.evaluator.calls.Load()

	for i := 0; i < 2; i++ {
		err := h.c.SetBrushKind(1, primitive.Kind(999))
		assert.ErrorIs(t, err, primitive.ErrUnknownKind)
		assert.Equal(t, before, h.c.Composition(), "rejected edit leaves the composition unchanged")
	}

	assert.Equal(t, calls, h.evaluator.calls.Load())
	assert.Equal(t, StateIdle, h.c.State())
	assert.Equal(t, float64(2), testutil.ToFloat64(h.c.metrics.rejected.WithLabelValues("unknown_kind")))
}

func TestComposer_RejectsBadEdits(t *testing.T) {
	h := newHarness(t, syncScheduler)
	h.wait(t)
	before := h.c.Composition()

	sphere, err := brush.NewBrush(h.c.registry, primitive.KindSphere)
	require.NoError(t, err)

	tests := []struct {
		name string
		edit func() error
		err  error
	}{
		{"index too large", func() error { return h.c.SetBrush(2, sphere) }, ErrIndexOutOfRange},
		{"negative index", func() error { return h.c.SetBrushKind(-1, primitive.KindBox) }, ErrIndexOutOfRange},
		{"nil brush", func() error { return h.c.SetBrush(0, nil) }, ErrNilBrush},
		{"unknown operation", func() error { return h.c.SetOperation(csg.Operation(42)) }, csg.ErrUnknownOperation},
		{"zero scale", func() error {
			return h.c.SetBrushPlacement(0, common.Placement{Scale: [3]float32{1, 0, 1}})
		}, ErrInvalidPlacement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.edit(), tt.err)
			assert.Equal(t, before, h.c.Composition())
		})
	}
}

func TestComposer_CoalescesEditsDuringRecompute(t *testing.T) {
	h := newHarness(t, goScheduler)
	h.wait(t)
	<-h.evaluator.entered
	base := h.evaluator.calls.Load()

	gate := h.evaluator.hold()
	require.NoError(t, h.c.SetOperation(csg.Union))
	<-h.evaluator.entered
	require.NoError(t, h.c.SetOperation(csg.Intersection))
	require.NoError(t, h.c.SetBrushKind(1, primitive.KindCylinder))
	assert.Equal(t, StateRecomputing, h.c.State())

	close(gate)
	h.wait(t)

	assert.Equal(t, int32(2), h.evaluator.calls.Load()-base, "three edits, two evaluations")
	st := h.c.Status()
	assert.Equal(t, uint64(4), st.Revision)
	assert.Equal(t, uint64(4), st.InstalledRevision)
	assert.Equal(t, csg.Intersection, st.Operation)
	assert.Equal(t, "cylinder", st.Kinds[1])

	var installedRevisions []uint64
	for _, o := range h.outcomes.all() {
		installedRevisions = append(installedRevisions, o.Revision)
	}
	assert.Equal(t, []uint64{1, 4}, installedRevisions, "superseded revisions are never installed")

	assert.Equal(t, float64(2), testutil.ToFloat64(h.c.metrics.coalesced))
	assert.Equal(t, float64(1), testutil.ToFloat64(h.c.metrics.evaluations.WithLabelValues("discarded")))
	_, _, _, maxLive := h.presenter.counts()
	assert.Equal(t, 1, maxLive)
}

func TestComposer_NoLeak(t *testing.T) {
	h := newHarness(t, syncScheduler)
	h.wait(t)

	ops := []csg.Operation{csg.Union, csg.Intersection, csg.Difference, csg.ReverseSubtraction, csg.HollowSubtraction}
	for _, op := range ops {
		require.NoError(t, h.c.SetOperation(op))
		h.wait(t)
	}

	n := len(ops) + 1
	installs, uninstalls, live, maxLive := h.presenter.counts()
	assert.Equal(t, n, installs)
	assert.Equal(t, n-1, uninstalls)
	assert.Equal(t, 1, live)
	assert.Equal(t, 1, maxLive)
	assert.Equal(t, int64(1), h.ledger.Live())

	require.NoError(t, h.c.Close(context.Background()))
	_, uninstalls, live, _ = h.presenter.counts()
	assert.Equal(t, n, uninstalls)
	assert.Zero(t, live)
	assert.Zero(t, h.ledger.Live())
	assert.Equal(t, float64(n), testutil.ToFloat64(h.c.metrics.uninstalls))
}

func TestComposer_FailureKeepsPreviousResult(t *testing.T) {
	h := newHarness(t, syncScheduler)
	h.wait(t)
	installed, _ := h.c.Installed()

	h.evaluator.mu.Lock()
	h.evaluator.failOn[csg.Intersection] = errors.New("non-manifold input")
	h.evaluator.mu.Unlock()

	require.NoError(t, h.c.SetOperation(csg.Intersection))
	h.wait(t)

	still, ok := h.c.Installed()
	assert.True(t, ok)
	assert.Equal(t, installed, still)
	out := h.outcomes.lastOutcome()
	assert.ErrorIs(t, out.Err, csg.ErrEvaluation)
	assert.False(t, out.Installed)
	assert.ErrorIs(t, h.c.Status().LastError, csg.ErrEvaluation)
	assert.Equal(t, uint64(1), h.c.Status().InstalledRevision)

	require.NoError(t, h.c.SetOperation(csg.Union))
	h.wait(t)
	assert.NoError(t, h.c.Status().LastError)
	assert.Equal(t, uint64(3), h.c.Status().InstalledRevision)
}

func TestComposer_RecoversEvaluatorPanic(t *testing.T) {
	h := newHarness(t, syncScheduler)
	h.wait(t)

	h.evaluator.mu.Lock()
	h.evaluator.panicOn[csg.Difference] = true
	h.evaluator.mu.Unlock()

	require.NoError(t, h.c.SetOperation(csg.Difference))
	h.wait(t)

	out := h.outcomes.lastOutcome()
	var evalErr *csg.EvaluationError
	require.ErrorAs(t, out.Err, &evalErr)
	assert.Contains(t, evalErr.Error(), "clipper exploded")
	assert.Equal(t, StateIdle, h.c.State())
	_, ok := h.c.Installed()
	assert.True(t, ok)
}

func TestComposer_InstallFailureDisposesResult(t *testing.T) {
	h := newHarness(t, syncScheduler)
	h.wait(t)

	h.presenter.mu.Lock()
	h.presenter.installErr = errors.New("display gone")
	h.presenter.mu.Unlock()

	require.NoError(t, h.c.SetOperation(csg.Union))
	h.wait(t)

	out := h.outcomes.lastOutcome()
	assert.Error(t, out.Err)
	assert.False(t, out.Installed)
	_, ok := h.c.Installed()
	assert.False(t, ok, "previous result was released before the failed install")
	assert.Zero(t, h.ledger.Live())
}

func TestComposer_RefusedInstallKeepsPreviousResult(t *testing.T) {
	h := newHarness(t, syncScheduler)
	h.wait(t)
	before, ok := h.c.Installed()
	require.True(t, ok)

	h.presenter.mu.Lock()
	h.presenter.refuseErr = presentation.ErrSlotOccupied
	h.presenter.mu.Unlock()

	require.NoError(t, h.c.SetOperation(csg.Union))
	h.wait(t)

	out := h.outcomes.lastOutcome()
	assert.ErrorIs(t, out.Err, presentation.ErrSlotOccupied)
	assert.False(t, out.Installed)
	after, ok := h.c.Installed()
	assert.True(t, ok, "previous result stays on display")
	assert.Equal(t, before, after)

	st := h.c.Status()
	assert.Equal(t, uint64(1), st.InstalledRevision)
	assert.ErrorIs(t, st.LastError, presentation.ErrSlotOccupied)
	installs, uninstalls, live, _ := h.presenter.counts()
	assert.Equal(t, 1, installs)
	assert.Zero(t, uninstalls)
	assert.Equal(t, 1, live)
	assert.Equal(t, int64(1), h.ledger.Live(), "refused result disposed")
}

func TestComposer_KindChangeResetsHomePlacement(t *testing.T) {
	h := newHarness(t, syncScheduler)
	h.wait(t)

	require.NoError(t, h.c.SetBrushPlacement(1, common.At(2, 0, 0)))
	h.wait(t)
	assert.Equal(t, common.At(2, 0, 0), h.c.Status().Placements[1])

	require.NoError(t, h.c.SetBrushKind(1, primitive.KindTorus))
	h.wait(t)
	st := h.c.Status()
	assert.Equal(t, common.At(0.4, 0, 0), st.Placements[1])
	assert.Equal(t, "torus", st.Kinds[1])
	assert.Equal(t, "brush2", h.c.Composition().Brushes[1].Name())
}

func TestComposer_SetBrushBakes(t *testing.T) {
	h := newHarness(t, syncScheduler)
	h.wait(t)

	unbaked, err := brush.NewBrush(h.c.registry, primitive.KindIcosahedron, brush.WithPosition(-0.3, 0, 0))
	require.NoError(t, err)
	require.False(t, unbaked.Baked())

	require.NoError(t, h.c.SetBrush(0, unbaked))
	h.wait(t)

	assert.True(t, h.c.Composition().Brushes[0].Baked())
	assert.NoError(t, h.outcomes.lastOutcome().Err)
}

func TestComposer_Deterministic(t *testing.T) {
	a := newHarness(t, syncScheduler)
	b := newHarness(t, syncScheduler)
	for _, h := range []*harness{a, b} {
		require.NoError(t, h.c.SetBrushKind(0, primitive.KindTorus))
		require.NoError(t, h.c.SetOperation(csg.Intersection))
		h.wait(t)
	}
	assert.True(t, geometry.Equivalent(a.presenter.current(), b.presenter.current(), 0))
}

func TestComposer_CloseRejectsEdits(t *testing.T) {
	h := newHarness(t, syncScheduler)
	h.wait(t)

	require.NoError(t, h.c.Close(context.Background()))
	require.NoError(t, h.c.Close(context.Background()))

	assert.ErrorIs(t, h.c.SetOperation(csg.Union), ErrClosed)
	assert.ErrorIs(t, h.c.SetBrushKind(0, primitive.KindBox), ErrClosed)
	_, ok := h.c.Installed()
	assert.False(t, ok)
}

func TestComposer_CloseTimeoutReleasesLateResult(t *testing.T) {
	h := newHarness(t, goScheduler)
	h.wait(t)
	<-h.evaluator.entered

	gate := h.evaluator.hold()
	require.NoError(t, h.c.SetOperation(csg.Union))
	<-h.evaluator.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.c.Close(ctx), context.DeadlineExceeded)
	assert.ErrorIs(t, h.c.SetOperation(csg.Intersection), ErrClosed)

	close(gate)
	h.wait(t)

	_, ok := h.c.Installed()
	assert.False(t, ok)
	installs, uninstalls, live, _ := h.presenter.counts()
	assert.Equal(t, 1, installs, "late result is not installed")
	assert.Equal(t, 1, uninstalls)
	assert.Zero(t, live)
	assert.Zero(t, h.ledger.Live())
	assert.ErrorIs(t, h.outcomes.lastOutcome().Err, ErrClosed)
	assert.False(t, h.outcomes.lastOutcome().Installed)

	require.NoError(t, h.c.Close(context.Background()))
}

func TestComposer_WaitHonoursContext(t *testing.T) {
	h := newHarness(t, goScheduler)
	h.wait(t)
	<-h.evaluator.entered

	gate := h.evaluator.hold()
	require.NoError(t, h.c.SetOperation(csg.Union))
	<-h.evaluator.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.c.Wait(ctx), context.DeadlineExceeded)

	close(gate)
	h.wait(t)
}

func TestComposer_DefaultWorkerPool(t *testing.T) {
	presenter := newFakePresenter()
	c, err := NewComposer(presenter,
		WithRegistry(primitive.NewRegistry(primitive.WithResolution(primitive.ResolutionLow))),
		WithWorkers(2),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
	require.NoError(t, c.SetOperation(csg.Union))
	require.NoError(t, c.Wait(ctx))

	installs, _, _, _ := presenter.counts()
	assert.Equal(t, 2, installs)
	require.NoError(t, c.Close(ctx))
}

func TestNewComposer_Validation(t *testing.T) {
	_, err := NewComposer(nil)
	assert.ErrorIs(t, err, ErrNoPresenter)

	reg := primitive.NewRegistry(primitive.WithResolution(primitive.ResolutionLow))
	only, err := brush.NewBrush(reg, primitive.KindBox)
	require.NoError(t, err)
	_, err = NewComposer(newFakePresenter(), WithRegistry(reg), WithBrushes(only), WithScheduler(syncScheduler))
	assert.ErrorIs(t, err, ErrBrushCount)

	_, err = NewComposer(newFakePresenter(), WithRegistry(reg), WithOperation(csg.Operation(-1)), WithScheduler(syncScheduler))
	assert.ErrorIs(t, err, csg.ErrUnknownOperation)
}
