package composer

import (
	"context"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-csg/engine/brush"
	"github.com/Carmen-Shannon/oxy-csg/engine/csg"
	"github.com/Carmen-Shannon/oxy-csg/engine/primitive"
	"github.com/prometheus/client_golang/prometheus"
)

// ComposerBuilderOption is a functional option for configuring a Composer.
type ComposerBuilderOption func(*composer)

// WithRegistry sets the primitive registry used to build brushes for SetBrushKind.
//
// Parameters:
//   - registry: the registry
//
// Returns:
//   - ComposerBuilderOption: the functional option
func WithRegistry(registry primitive.Registry) ComposerBuilderOption {
	return func(c *composer) {
		c.registry = registry
	}
}

// WithEvaluator sets the boolean evaluator.
//
// Parameters:
//   - evaluator: the evaluator
//
// Returns:
//   - ComposerBuilderOption: the functional option
func WithEvaluator(evaluator csg.Evaluator) ComposerBuilderOption {
	return func(c *composer) {
		c.evaluator = evaluator
	}
}

// WithScheduler replaces the default worker pool. The controller does not stop a supplied scheduler.
//
// Parameters:
//   - scheduler: the scheduler
//
// Returns:
//   - ComposerBuilderOption: the functional option
func WithScheduler(scheduler Scheduler) ComposerBuilderOption {
	return func(c *composer) {
		c.scheduler = scheduler
	}
}

// WithWorkers sets the size of the default worker pool.
//
// Parameters:
//   - n: number of workers (minimum 1)
//
// Returns:
//   - ComposerBuilderOption: the functional option
func WithWorkers(n int) ComposerBuilderOption {
	return func(c *composer) {
		c.workers = max(n, 1)
	}
}

// WithBrushes sets the initial brushes. Each brush's placement becomes the home placement of its
// slot, restored whenever the slot's kind changes.
//
// Parameters:
//   - brushes: exactly BrushCount brushes
//
// Returns:
//   - ComposerBuilderOption: the functional option
func WithBrushes(brushes ...brush.Brush) ComposerBuilderOption {
	return func(c *composer) {
		c.initial = brushes
	}
}

// WithOperation sets the initial operation.
//
// Parameters:
//   - op: the operation
//
// Returns:
//   - ComposerBuilderOption: the functional option
func WithOperation(op csg.Operation) ComposerBuilderOption {
	return func(c *composer) {
		c.initOp = op
	}
}

// WithOutcomeHandler sets the callback that receives evaluation outcomes.
//
// Parameters:
//   - handler: the callback
//
// Returns:
//   - ComposerBuilderOption: the functional option
func WithOutcomeHandler(handler OutcomeHandler) ComposerBuilderOption {
	return func(c *composer) {
		c.onOutcome = handler
	}
}

// WithRegisterer registers the controller's Prometheus collectors with reg.
//
// Parameters:
//   - reg: the registerer
//
// Returns:
//   - ComposerBuilderOption: the functional option
func WithRegisterer(reg prometheus.Registerer) ComposerBuilderOption {
	return func(c *composer) {
		c.metrics = newMetrics(reg)
	}
}

// WithContext sets the parent context of evaluation spans.
//
// Parameters:
//   - ctx: the context
//
// Returns:
//   - ComposerBuilderOption: the functional option
func WithContext(ctx context.Context) ComposerBuilderOption {
	return func(c *composer) {
		c.baseCtx = ctx
	}
}

// WithLogger sets the logger.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - ComposerBuilderOption: the functional option
func WithLogger(logger *slog.Logger) ComposerBuilderOption {
	return func(c *composer) {
		c.logger = logger
	}
}
