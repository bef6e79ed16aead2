// Package events carries discrete edit events from front ends to the engine.
//
// Geometry edits (brush kind, brush placement, operation) are routed to the composition
// controller; style edits are routed to the shared material. The two paths never cross:
// a material change does not trigger a recompute.
package events

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/csg"
	"github.com/Carmen-Shannon/oxy-csg/engine/primitive"
)

// Path identifies which target an event is routed to.
type Path int

const (
	// PathGeometry events change the composition and cause a recompute.
	PathGeometry Path = iota
	// PathStyle events change the shared material in place.
	PathStyle
)

func (p Path) String() string {
	switch p {
	case PathGeometry:
		return "geometry"
	case PathStyle:
		return "style"
	}
	return fmt.Sprintf("path(%d)", int(p))
}

// Event is an edit request. The set of events is closed: only the types in this package implement it.
type Event interface {
	// Path returns the routing path of the event.
	Path() Path

	// String returns a short description for logs.
	String() string

	event()
}

// BrushGeometryChanged replaces the primitive kind of the brush at Slot.
type BrushGeometryChanged struct {
	Slot int
	Kind primitive.Kind
}

// BrushPlacementChanged moves the brush at Slot.
type BrushPlacementChanged struct {
	Slot      int
	Placement common.Placement
}

// OperationChanged selects a new boolean operation.
type OperationChanged struct {
	Operation csg.Operation
}

// MaterialPropertyChanged sets one property of the shared material.
type MaterialPropertyChanged struct {
	Name  string
	Value any
}

func (BrushGeometryChanged) Path() Path    { return PathGeometry }
func (BrushPlacementChanged) Path() Path   { return PathGeometry }
func (OperationChanged) Path() Path        { return PathGeometry }
func (MaterialPropertyChanged) Path() Path { return PathStyle }

func (BrushGeometryChanged) event()    {}
func (BrushPlacementChanged) event()   {}
func (OperationChanged) event()        {}
func (MaterialPropertyChanged) event() {}

func (e BrushGeometryChanged) String() string {
	return fmt.Sprintf("brush %d kind=%s", e.Slot, e.Kind)
}

func (e BrushPlacementChanged) String() string {
	return fmt.Sprintf("brush %d placement=%s", e.Slot, e.Placement)
}

func (e OperationChanged) String() string {
	return "operation=" + e.Operation.String()
}

func (e MaterialPropertyChanged) String() string {
	return fmt.Sprintf("material %s=%v", e.Name, e.Value)
}
