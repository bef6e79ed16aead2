package csg

import (
	"errors"
	"fmt"
)

var (
	// ErrStaleTransform is returned when a brush reaches the evaluator without a baked world matrix.
	ErrStaleTransform = errors.New("stale transform: brush placement not baked")

	// ErrUnknownOperation is returned for operation values outside the closed set.
	ErrUnknownOperation = errors.New("unknown boolean operation")

	// ErrEvaluation matches every *EvaluationError through errors.Is.
	ErrEvaluation = errors.New("boolean evaluation failed")
)

// EvaluationError reports a failure inside the boolean evaluator, including recovered panics.
type EvaluationError struct {
	Operation Operation
	Err       error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate %s: %v", e.Operation, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrEvaluation) true for any EvaluationError.
func (e *EvaluationError) Is(target error) bool {
	return target == ErrEvaluation
}
