package csg

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-csg/engine/geometry"
)

type EvaluatorBuilderOption func(*evaluatorImpl)

// WithLedger records every derived geometry in the given ledger.
//
// Parameters:
//   - ledger: the allocation ledger
//
// Returns:
//   - EvaluatorBuilderOption: a function that sets the ledger
func WithLedger(ledger *geometry.Ledger) EvaluatorBuilderOption {
	return func(e *evaluatorImpl) {
		e.ledger = ledger
	}
}

// WithLogger sets the logger used by the evaluator.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - EvaluatorBuilderOption: a function that sets the logger
func WithLogger(logger *slog.Logger) EvaluatorBuilderOption {
	return func(e *evaluatorImpl) {
		e.logger = logger
	}
}
