package csg

import (
	"context"
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-csg/engine/brush"
	"github.com/Carmen-Shannon/oxy-csg/engine/geometry"
	"github.com/Carmen-Shannon/oxy-csg/engine/primitive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lowRegistry() primitive.Registry {
	return primitive.NewRegistry(primitive.WithResolution(primitive.ResolutionLow))
}

// boxes returns a unit box at the origin and a box scaled 1.2 in y/z at x=0.4,
// so that no faces are coplanar.
func boxes(t *testing.T) (brush.Brush, brush.Brush) {
	t.Helper()
	r := lowRegistry()
	a, err := brush.NewBaked(r, primitive.KindBox, brush.WithName("a"))
	require.NoError(t, err)
	b, err := brush.NewBaked(r, primitive.KindBox, brush.WithName("b"),
		brush.WithPosition(0.4, 0, 0), brush.WithScale(1.2, 1.2, 1.2))
	require.NoError(t, err)
	return a, b
}

func TestOperation_ParseAndString(t *testing.T) {
	tests := []struct {
		input    string
		expected Operation
	}{
		{"union", Union},
		{"SUBTRACTION", Subtraction},
		{"REVERSE_SUBTRACTION", ReverseSubtraction},
		{"reverse-subtraction", ReverseSubtraction},
		{"Intersection", Intersection},
		{"difference", Difference},
		{"HOLLOW_SUBTRACTION", HollowSubtraction},
		{"hollow intersection", HollowIntersection},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			op, err := ParseOperation(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, op)
		})
	}

	_, err := ParseOperation("xor")
	assert.ErrorIs(t, err, ErrUnknownOperation)
	assert.Len(t, Operations(), 7)
	assert.False(t, Operation(7).Valid())
	assert.Equal(t, "operation(9)", Operation(9).String())
}

func TestOperation_TextMarshaling(t *testing.T) {
	text, err := HollowIntersection.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "hollow-intersection", string(text))

	var op Operation
	require.NoError(t, op.UnmarshalText([]byte("Difference")))
	assert.Equal(t, Difference, op)

	_, err = Operation(-1).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestEvaluate_BoxBoolean(t *testing.T) {
	a, b := boxes(t)
	e := NewEvaluator()

	tests := []struct {
		op           Operation
		minX, maxX   float32
		maxY         float32
		volume       float64
		checkVolume  bool
	}{
		{Union, -0.5, 1.0, 0.6, 2.028, true},
		{Subtraction, -0.5, -0.2, 0.5, 0.3, true},
		{ReverseSubtraction, -0.2, 1.0, 0.6, 1.028, true},
		{Intersection, -0.2, 0.5, 0.5, 0.7, true},
		{Difference, -0.5, 1.0, 0.6, 1.328, true},
		{HollowSubtraction, -0.5, -0.2, 0.5, 0, false},
		{HollowIntersection, -0.2, 0.5, 0.5, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			g, err := e.Evaluate(context.Background(), a, b, tt.op)
			require.NoError(t, err)
			defer g.Dispose()

			require.Positive(t, g.TriangleCount())
			bounds := g.Bounds()
			assert.InDelta(t, tt.minX, bounds.Min.X, 1e-4)
			assert.InDelta(t, tt.maxX, bounds.Max.X, 1e-4)
			assert.InDelta(t, tt.maxY, bounds.Max.Y, 1e-4)
			if tt.checkVolume {
				assert.InDelta(t, tt.volume, g.Volume(), 1e-3)
			}
		})
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	r := lowRegistry()
	s, err := brush.NewBaked(r, primitive.KindSphere)
	require.NoError(t, err)
	bx, err := brush.NewBaked(r, primitive.KindBox, brush.WithPosition(0.4, 0, 0))
	require.NoError(t, err)

	e := NewEvaluator()
	for _, op := range Operations() {
		first, err := e.Evaluate(context.Background(), s, bx, op)
		require.NoError(t, err)
		second, err := e.Evaluate(context.Background(), s, bx, op)
		require.NoError(t, err)
		assert.True(t, geometry.Equivalent(first, second, 0), op.String())
	}
}

func TestEvaluate_SphereBoxScenario(t *testing.T) {
	r := lowRegistry()
	s, err := brush.NewBaked(r, primitive.KindSphere, brush.WithName("brush1"))
	require.NoError(t, err)
	bx, err := brush.NewBaked(r, primitive.KindBox, brush.WithName("brush2"), brush.WithPosition(0.4, 0, 0))
	require.NoError(t, err)

	e := NewEvaluator()
	sub, err := e.Evaluate(context.Background(), s, bx, Subtraction)
	require.NoError(t, err)
	uni, err := e.Evaluate(context.Background(), s, bx, Union)
	require.NoError(t, err)

	assert.False(t, geometry.Equivalent(sub, uni, 1e-4))
	assert.Less(t, sub.Volume(), s.Mesh().Volume())
	assert.Greater(t, uni.Volume(), s.Mesh().Volume())
}

func TestEvaluate_DisjointIntersectionIsEmpty(t *testing.T) {
	r := lowRegistry()
	a, err := brush.NewBaked(r, primitive.KindBox)
	require.NoError(t, err)
	b, err := brush.NewBaked(r, primitive.KindBox, brush.WithPosition(5, 0, 0))
	require.NoError(t, err)

	g, err := NewEvaluator().Evaluate(context.Background(), a, b, Intersection)
	require.NoError(t, err)
	assert.Zero(t, g.TriangleCount())
	assert.True(t, g.Bounds().IsEmpty())
}

func TestEvaluate_StaleTransform(t *testing.T) {
	r := lowRegistry()
	baked, err := brush.NewBaked(r, primitive.KindSphere)
	require.NoError(t, err)
	unbaked, err := brush.NewBrush(r, primitive.KindBox)
	require.NoError(t, err)

	g, err := NewEvaluator().Evaluate(context.Background(), baked, unbaked, Union)
	assert.Nil(t, g)
	assert.ErrorIs(t, err, ErrStaleTransform)
	assert.False(t, errors.Is(err, ErrEvaluation))
}

func TestEvaluate_UnknownOperation(t *testing.T) {
	a, b := boxes(t)
	_, err := NewEvaluator().Evaluate(context.Background(), a, b, Operation(42))
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestEvaluate_SingularPlacementIsEvaluationError(t *testing.T) {
	r := lowRegistry()
	a, err := brush.NewBaked(r, primitive.KindBox)
	require.NoError(t, err)
	flat, err := brush.NewBaked(r, primitive.KindBox, brush.WithScale(1, 0, 1))
	require.NoError(t, err)

	_, err = NewEvaluator().Evaluate(context.Background(), a, flat, Union)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEvaluation)

	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, Union, evalErr.Operation)
}

func TestEvaluate_CancelledContext(t *testing.T) {
	a, b := boxes(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEvaluator().Evaluate(ctx, a, b, Union)
	assert.ErrorIs(t, err, ErrEvaluation)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluate_LedgerTracksResults(t *testing.T) {
	a, b := boxes(t)
	ledger := geometry.NewLedger()
	e := NewEvaluator(WithLedger(ledger))

	g1, err := e.Evaluate(context.Background(), a, b, Union)
	require.NoError(t, err)
	g2, err := e.Evaluate(context.Background(), a, b, Intersection)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ledger.Live())

	g1.Dispose()
	g2.Dispose()
	assert.Zero(t, ledger.Live())
	assert.Equal(t, int64(2), ledger.Allocated())
}
