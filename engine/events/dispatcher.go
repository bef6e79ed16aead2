package events

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/csg"
	"github.com/Carmen-Shannon/oxy-csg/engine/primitive"
)

var (
	// ErrNoTarget is returned when an event arrives for a path that has no target.
	ErrNoTarget = errors.New("events: no target for path")

	// ErrUnknownEvent is returned for nil events.
	ErrUnknownEvent = errors.New("events: unknown event")
)

// GeometryTarget receives geometry edits. The composition controller implements it.
type GeometryTarget interface {
	SetBrushKind(index int, kind primitive.Kind) error
	SetBrushPlacement(index int, placement common.Placement) error
	SetOperation(op csg.Operation) error
}

// StyleTarget receives style edits. material.Material implements it.
type StyleTarget interface {
	Set(name string, value any) error
}

type dispatcher struct {
	geometry GeometryTarget
	style    StyleTarget
	logger   *slog.Logger
}

// Dispatcher routes events to their target and returns the target's error synchronously.
type Dispatcher interface {
	// Dispatch routes one event.
	//
	// Parameters:
	//   - e: the event
	//
	// Returns:
	//   - error: the target's rejection, ErrNoTarget or ErrUnknownEvent
	Dispatch(e Event) error

	// DispatchAll routes events in order and joins every error.
	//
	// Parameters:
	//   - events: the events
	//
	// Returns:
	//   - error: the joined errors, or nil
	DispatchAll(events ...Event) error
}

var _ Dispatcher = &dispatcher{}

// NewDispatcher creates a Dispatcher. Either target may be nil; events for a missing target fail with ErrNoTarget.
//
// Parameters:
//   - geometry: receives BrushGeometryChanged, BrushPlacementChanged and OperationChanged
//   - style: receives MaterialPropertyChanged
//   - logger: the logger, or nil for the package default
//
// Returns:
//   - Dispatcher: the dispatcher
func NewDispatcher(geometry GeometryTarget, style StyleTarget, logger *slog.Logger) Dispatcher {
	return &dispatcher{
		geometry: geometry,
		style:    style,
		logger:   common.Coalesce(logger, common.Logger()),
	}
}

func (d *dispatcher) Dispatch(e Event) error {
	if e == nil {
		return ErrUnknownEvent
	}
	err := d.route(e)
	if err != nil {
		d.logger.Warn("edit rejected",
			slog.String("path", e.Path().String()),
			slog.String("event", e.String()),
			slog.Any("error", err),
		)
		return err
	}
	d.logger.Debug("edit applied", slog.String("path", e.Path().String()), slog.String("event", e.String()))
	return nil
}

func (d *dispatcher) route(e Event) error {
	switch ev := e.(type) {
	case BrushGeometryChanged:
		if d.geometry == nil {
			return fmt.Errorf("%w: %s", ErrNoTarget, ev.Path())
		}
		return d.geometry.SetBrushKind(ev.Slot, ev.Kind)
	case BrushPlacementChanged:
		if d.geometry == nil {
			return fmt.Errorf("%w: %s", ErrNoTarget, ev.Path())
		}
		return d.geometry.SetBrushPlacement(ev.Slot, ev.Placement)
	case OperationChanged:
		if d.geometry == nil {
			return fmt.Errorf("%w: %s", ErrNoTarget, ev.Path())
		}
		return d.geometry.SetOperation(ev.Operation)
	case MaterialPropertyChanged:
		if d.style == nil {
			return fmt.Errorf("%w: %s", ErrNoTarget, ev.Path())
		}
		return d.style.Set(ev.Name, ev.Value)
	}
	return fmt.Errorf("%w: %T", ErrUnknownEvent, e)
}

func (d *dispatcher) DispatchAll(events ...Event) error {
	var errs []error
	for _, e := range events {
		if err := d.Dispatch(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
