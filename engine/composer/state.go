package composer

import (
	"fmt"
	"slices"
	"time"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/brush"
	"github.com/Carmen-Shannon/oxy-csg/engine/csg"
	"github.com/Carmen-Shannon/oxy-csg/engine/presentation"
)

// State is the controller's lifecycle state.
type State int

const (
	// StateIdle means the latest composition has been evaluated (successfully or not).
	StateIdle State = iota
	// StateRecomputing means an evaluation is in flight.
	StateRecomputing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecomputing:
		return "recomputing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Composition is an immutable snapshot of the brushes and the operation combining them.
// Revision increases by one with every accepted edit.
type Composition struct {
	Revision  uint64
	Brushes   []brush.Brush
	Operation csg.Operation
}

// clone copies the brush list so a snapshot never aliases the controller's state.
func (c Composition) clone() Composition {
	c.Brushes = slices.Clone(c.Brushes)
	return c
}

// withBrush returns a copy with one brush replaced.
func (c Composition) withBrush(index int, b brush.Brush) Composition {
	next := c.clone()
	next.Brushes[index] = b
	return next
}

// Outcome reports the end of one evaluation that was not superseded.
type Outcome struct {
	Revision  uint64
	Operation csg.Operation
	Installed bool
	Handle    presentation.Handle
	Err       error
	Duration  time.Duration
	Triangles int
}

// OutcomeHandler receives outcomes. It is called from a worker goroutine without the
// controller lock held, so it may call back into the controller.
type OutcomeHandler func(Outcome)

// Status is a point-in-time summary of the controller for front ends.
type Status struct {
	State             State
	Revision          uint64
	Operation         csg.Operation
	Kinds             []string
	Placements        []common.Placement
	Installed         bool
	InstalledRevision uint64
	LastError         error
	LastDuration      time.Duration
	Triangles         int
}

// slot is a brush position in the composition. Geometry changes reset the brush to home.
type slot struct {
	name string
	home common.Placement
}
