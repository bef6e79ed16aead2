// Package csg combines two brushes into a derived triangle mesh with boolean set operations.
//
// Meshes are converted to world-space polygon soups, combined by BSP-tree clipping and
// triangulated back into an indexed geometry. The evaluator keeps no state between calls.
package csg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cogentcore.org/core/math32"
	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/brush"
	"github.com/Carmen-Shannon/oxy-csg/engine/geometry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("oxy-csg/engine/csg")

// Evaluator combines two baked brushes with a boolean operation.
type Evaluator interface {
	// Evaluate computes op(a, b) as a new geometry owned by the caller.
	//
	// Parameters:
	//   - ctx: context for tracing and cancellation before the clipping starts
	//   - a: the first brush, must be baked
	//   - b: the second brush, must be baked
	//   - op: the boolean operation
	//
	// Returns:
	//   - geometry.Geometry: the derived geometry; the caller must Dispose it
	//   - error: ErrStaleTransform, ErrUnknownOperation or an *EvaluationError
	Evaluate(ctx context.Context, a, b brush.Brush, op Operation) (geometry.Geometry, error)
}

type evaluatorImpl struct {
	ledger *geometry.Ledger
	logger *slog.Logger
}

var _ Evaluator = &evaluatorImpl{}

// NewEvaluator creates a BSP-based boolean evaluator.
//
// Parameters:
//   - options: functional options to configure the evaluator
//
// Returns:
//   - Evaluator: the newly created evaluator
func NewEvaluator(options ...EvaluatorBuilderOption) Evaluator {
	e := &evaluatorImpl{}
	for _, option := range options {
		option(e)
	}
	if e.logger == nil {
		e.logger = common.Logger()
	}
	return e
}

func (e *evaluatorImpl) Evaluate(ctx context.Context, a, b brush.Brush, op Operation) (result geometry.Geometry, err error) {
	ctx, span := tracer.Start(ctx, "Evaluator.Evaluate",
		trace.WithAttributes(
			attribute.String("csg.operation", op.String()),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !op.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOperation, int(op))
	}
	if a == nil || b == nil {
		return nil, &EvaluationError{Operation: op, Err: errors.New("nil brush")}
	}
	for _, br := range []brush.Brush{a, b} {
		if !br.Baked() {
			return nil, fmt.Errorf("%w: %s", ErrStaleTransform, br.Name())
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, &EvaluationError{Operation: op, Err: err}
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &EvaluationError{Operation: op, Err: fmt.Errorf("panic: %v", r)}
			e.logger.Error("boolean evaluation panicked",
				slog.String("operation", op.String()),
				slog.Any("panic", r),
			)
		}
	}()

	start := time.Now()
	pa, err := toPolygons(a)
	if err != nil {
		return nil, &EvaluationError{Operation: op, Err: err}
	}
	pb, err := toPolygons(b)
	if err != nil {
		return nil, &EvaluationError{Operation: op, Err: err}
	}
	span.SetAttributes(
		attribute.Int("csg.polygons_a", len(pa)),
		attribute.Int("csg.polygons_b", len(pb)),
	)

	polys, err := combine(op, pa, pb)
	if err != nil {
		return nil, &EvaluationError{Operation: op, Err: err}
	}

	result = fromPolygons(polys, fmt.Sprintf("%s(%s, %s)", op, a.KindName(), b.KindName()), e.ledger)
	span.SetAttributes(attribute.Int("csg.triangles", result.TriangleCount()))
	e.logger.Debug("boolean evaluated",
		slog.String("operation", op.String()),
		slog.String("a", a.KindName()),
		slog.String("b", b.KindName()),
		slog.Int("triangles", result.TriangleCount()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// toPolygons converts a baked brush into world-space triangles. Degenerate triangles are dropped.
func toPolygons(b brush.Brush) ([]polygon, error) {
	mesh := b.Mesh()
	if mesh == nil || mesh.Disposed() {
		return nil, fmt.Errorf("brush %s has no mesh", b.Name())
	}
	m := b.WorldMatrix()
	nm, ok := common.NormalMatrix(m[:])
	if !ok {
		return nil, fmt.Errorf("brush %s has a singular placement", b.Name())
	}

	positions, normals, indices := mesh.Positions(), mesh.Normals(), mesh.Indices()
	world := make([]vertex, len(positions))
	for i, p := range positions {
		px, py, pz := common.TransformPoint(m[:], p.X, p.Y, p.Z)
		n := normals[i]
		nx, ny, nz := common.TransformNormal(nm, n.X, n.Y, n.Z)
		world[i] = vertex{
			pos:    vec3{float64(px), float64(py), float64(pz)},
			normal: vec3{float64(nx), float64(ny), float64(nz)},
		}
	}

	polys := make([]polygon, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		va, vb, vc := world[indices[i]], world[indices[i+1]], world[indices[i+2]]
		pl, ok := planeFromPoints(va.pos, vb.pos, vc.pos)
		if !ok {
			continue
		}
		polys = append(polys, polygon{vertices: []vertex{va, vb, vc}, plane: pl})
	}
	return polys, nil
}

// fromPolygons fan-triangulates convex polygons into an indexed geometry.
func fromPolygons(polys []polygon, label string, ledger *geometry.Ledger) geometry.Geometry {
	var positions, normals []math32.Vector3
	var indices []uint32
	for _, p := range polys {
		base := uint32(len(positions))
		for _, v := range p.vertices {
			positions = append(positions, math32.Vec3(float32(v.pos[0]), float32(v.pos[1]), float32(v.pos[2])))
			n := v.normal
			if l := n.length(); l > 0 {
				n = n.scale(1 / l)
			} else {
				n = p.plane.normal
			}
			normals = append(normals, math32.Vec3(float32(n[0]), float32(n[1]), float32(n[2])))
		}
		for k := uint32(1); k+1 < uint32(len(p.vertices)); k++ {
			indices = append(indices, base, base+k, base+k+1)
		}
	}
	if indices == nil {
		indices = []uint32{}
	}
	return geometry.NewGeometry(
		geometry.WithLabel(label),
		geometry.WithPositions(positions),
		geometry.WithNormals(normals),
		geometry.WithIndices(indices),
		geometry.WithLedger(ledger),
	)
}
