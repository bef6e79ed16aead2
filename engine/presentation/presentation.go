// Package presentation binds evaluated geometry to the display: it packs a mesh into a model,
// attaches the shared material and places the result in a named scene slot.
package presentation

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/game_object"
	"github.com/Carmen-Shannon/oxy-csg/engine/geometry"
	"github.com/Carmen-Shannon/oxy-csg/engine/material"
	"github.com/Carmen-Shannon/oxy-csg/engine/model"
	"github.com/Carmen-Shannon/oxy-csg/engine/scene"
	"github.com/google/uuid"
)

// DefaultSlot is the scene slot the adapter installs into unless configured otherwise.
const DefaultSlot = "result"

var (
	// ErrSlotOccupied is returned by Install while a previous result is still installed.
	ErrSlotOccupied = errors.New("presentation: slot occupied")

	// ErrUnknownHandle is returned by Uninstall for a handle that is not the installed one.
	ErrUnknownHandle = errors.New("presentation: unknown handle")

	// ErrNilGeometry is returned by Install when no geometry is given.
	ErrNilGeometry = errors.New("presentation: nil geometry")
)

// Handle identifies one installed result.
type Handle struct {
	ID       uuid.UUID
	ObjectID uint64
	Slot     string
}

// String returns the short form of the handle used in logs.
func (h Handle) String() string {
	return fmt.Sprintf("%s#%d@%s", h.ID.String()[:8], h.ObjectID, h.Slot)
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.ID == uuid.Nil
}

type adapter struct {
	mu *sync.Mutex

	scene    scene.Scene
	slot     string
	name     string
	material material.Material
	logger   *slog.Logger

	rotationSpeed [3]float32
	rotation      [3]float32

	current    Handle
	currentObj game_object.GameObject
}

// Adapter installs evaluated geometry into the display and removes it again.
// At most one result is installed at a time.
type Adapter interface {
	// Install takes ownership of g on success and makes it the displayed result.
	//
	// Parameters:
	//   - g: the geometry to display
	//
	// Returns:
	//   - Handle: identifies the installed result for Uninstall
	//   - error: ErrSlotOccupied, ErrNilGeometry; g is not consumed on error
	Install(g geometry.Geometry) (Handle, error)

	// Uninstall removes the installed result and disposes its geometry.
	//
	// Parameters:
	//   - h: the handle returned by Install
	//
	// Returns:
	//   - error: ErrUnknownHandle if h is not the installed result
	Uninstall(h Handle) error

	// CanInstall reports whether Install(g) would succeed once the installed result, if any, is
	// uninstalled. It does not change the display.
	//
	// Parameters:
	//   - g: the geometry that would be installed
	//
	// Returns:
	//   - error: ErrNilGeometry, or ErrSlotOccupied if another object holds the slot
	CanInstall(g geometry.Geometry) error

	// Current returns the installed handle.
	//
	// Returns:
	//   - Handle: the installed handle
	//   - bool: false if nothing is installed
	Current() (Handle, bool)

	// Slot returns the scene slot the adapter installs into.
	Slot() string
}

var _ Adapter = &adapter{}

// NewAdapter creates an Adapter that installs into sc.
//
// Parameters:
//   - sc: the scene to install into
//   - options: functional options to configure the adapter
//
// Returns:
//   - Adapter: the adapter
func NewAdapter(sc scene.Scene, options ...AdapterBuilderOption) Adapter {
	a := &adapter{
		mu:    &sync.Mutex{},
		scene: sc,
		slot:  DefaultSlot,
		name:  "csg-result",
	}
	for _, option := range options {
		option(a)
	}
	if a.material == nil {
		a.material = material.NewMaterial()
	}
	if a.logger == nil {
		a.logger = common.Logger()
	}
	return a
}

func (a *adapter) Install(g geometry.Geometry) (Handle, error) {
	if g == nil {
		return Handle{}, ErrNilGeometry
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.current.IsZero() {
		return Handle{}, fmt.Errorf("%w: %s", ErrSlotOccupied, a.current)
	}

	mdl := model.NewModel(
		model.WithName(a.name),
		model.WithGeometry(g),
		model.WithMaterial(a.material),
	)
	obj := game_object.NewGameObject(
		game_object.WithName(a.name),
		game_object.WithModel(mdl),
		game_object.WithRotation(a.rotation[0], a.rotation[1], a.rotation[2]),
		game_object.WithRotationSpeed(a.rotationSpeed[0], a.rotationSpeed[1], a.rotationSpeed[2]),
	)

	id, err := a.scene.SetSlot(a.slot, obj)
	if err != nil {
		if errors.Is(err, scene.ErrSlotOccupied) {
			return Handle{}, fmt.Errorf("%w: %v", ErrSlotOccupied, err)
		}
		return Handle{}, fmt.Errorf("install: %w", err)
	}

	a.current = Handle{ID: uuid.New(), ObjectID: id, Slot: a.slot}
	a.currentObj = obj
	a.logger.Debug("result installed",
		slog.String("handle", a.current.String()),
		slog.Int("triangles", g.TriangleCount()),
	)
	return a.current, nil
}

func (a *adapter) Uninstall(h Handle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if h.IsZero() || h != a.current {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}

	obj, _ := a.scene.ClearSlot(a.slot)
	if obj == nil {
		obj = a.currentObj
	}
	if obj != nil {
		rx, ry, rz := obj.Rotation()
		a.rotation = [3]float32{rx, ry, rz}
		if mdl := obj.Model(); mdl != nil {
			mdl.Release()
		}
	}

	a.logger.Debug("result uninstalled", slog.String("handle", h.String()))
	a.current = Handle{}
	a.currentObj = nil
	return nil
}

func (a *adapter) CanInstall(g geometry.Geometry) error {
	if g == nil {
		return ErrNilGeometry
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	occupant := a.scene.Slot(a.slot)
	if occupant != nil && occupant != a.currentObj {
		return fmt.Errorf("%w: slot %q held by another object", ErrSlotOccupied, a.slot)
	}
	return nil
}

func (a *adapter) Current() (Handle, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current, !a.current.IsZero()
}

func (a *adapter) Slot() string {
	return a.slot
}
