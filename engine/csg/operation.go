package csg

import (
	"fmt"
	"strings"
)

// Operation identifies a boolean combination of two solids A and B.
type Operation int

const (
	// Union keeps everything inside A or B.
	Union Operation = iota
	// Subtraction keeps A minus B.
	Subtraction
	// ReverseSubtraction keeps B minus A.
	ReverseSubtraction
	// Intersection keeps what is inside both A and B.
	Intersection
	// Difference keeps (A minus B) together with (B minus A).
	Difference
	// HollowSubtraction keeps the surface of A outside B, leaving the cut open.
	HollowSubtraction
	// HollowIntersection keeps the surface of A inside B, leaving the cut open.
	HollowIntersection

	operationEnd
)

// Operations returns every operation in declaration order.
//
// Returns:
//   - []Operation: the operations
func Operations() []Operation {
	ops := make([]Operation, 0, int(operationEnd))
	for op := Union; op < operationEnd; op++ {
		ops = append(ops, op)
	}
	return ops
}

// Valid reports whether op is a member of the closed operation set.
func (op Operation) Valid() bool {
	return op >= Union && op < operationEnd
}

func (op Operation) String() string {
	switch op {
	case Union:
		return "union"
	case Subtraction:
		return "subtraction"
	case ReverseSubtraction:
		return "reverse-subtraction"
	case Intersection:
		return "intersection"
	case Difference:
		return "difference"
	case HollowSubtraction:
		return "hollow-subtraction"
	case HollowIntersection:
		return "hollow-intersection"
	}
	return fmt.Sprintf("operation(%d)", int(op))
}

// ParseOperation resolves an operation from its name. Matching ignores case, spaces, '-' and '_'.
// The original upper-case identifiers such as "REVERSE_SUBTRACTION" are accepted.
//
// Parameters:
//   - s: the operation name
//
// Returns:
//   - Operation: the parsed operation
//   - error: ErrUnknownOperation if s names no operation
func ParseOperation(s string) (Operation, error) {
	name := normalize(s)
	for _, op := range Operations() {
		if normalize(op.String()) == name {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, s)
}

// MarshalText implements encoding.TextMarshaler.
func (op Operation) MarshalText() ([]byte, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOperation, int(op))
	}
	return []byte(op.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (op *Operation) UnmarshalText(text []byte) error {
	parsed, err := ParseOperation(string(text))
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}

func normalize(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}
