// Package tui is the interactive terminal panel: keys become edit events, the composed solid is
// drawn with braille dots and a side panel shows the controller status and the material.
package tui

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine"
	"github.com/Carmen-Shannon/oxy-csg/engine/camera"
	"github.com/Carmen-Shannon/oxy-csg/engine/composer"
	"github.com/Carmen-Shannon/oxy-csg/engine/events"
	"github.com/Carmen-Shannon/oxy-csg/engine/material"
	"github.com/Carmen-Shannon/oxy-csg/engine/primitive"
	"github.com/Carmen-Shannon/oxy-csg/engine/renderer"
	"github.com/charmbracelet/bubbles/help"
	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	sidebarWidth = 36
	moveStep     = 0.1
	tweakStep    = 0.05
)

// palette is the color cycle offered by the color key.
var palette = []string{"#0088ff", "#ff5533", "#33cc66", "#ffcc00", "#cc66ff", "#e6e6e6"}

// StatusSource reports the composition controller status. composer.Composer implements it.
type StatusSource interface {
	Status() composer.Status
}

// Model is the Bubble Tea model of the panel.
type Model struct {
	width  int
	height int

	dispatcher events.Dispatcher
	source     StatusSource
	material   material.Material
	engine     engine.Engine
	camera     camera.Camera
	backend    renderer.BrailleBackend
	kinds      []primitive.Kind
	logger     *slog.Logger

	cellAspect float32
	frameRate  float64
	lastFrame  time.Time

	slot    int
	message string
	failed  bool

	view  []string
	stats renderer.Stats

	picking bool
	picker  list.Model

	keys keyMap
	help help.Model
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithMaterial sets the material shown in the panel and used as the base for relative tweaks.
//
// Parameters:
//   - m: the shared material
//
// Returns:
//   - ModelOption: option function to apply
func WithMaterial(m material.Material) ModelOption {
	return func(model *Model) {
		model.material = m
	}
}

// WithEngine sets the engine ticked and rendered on every frame. The panel installs a braille
// renderer on it.
//
// Parameters:
//   - e: the engine
//
// Returns:
//   - ModelOption: option function to apply
func WithEngine(e engine.Engine) ModelOption {
	return func(model *Model) {
		model.engine = e
	}
}

// WithCamera sets the camera steered by the orbit and zoom keys.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - ModelOption: option function to apply
func WithCamera(c camera.Camera) ModelOption {
	return func(model *Model) {
		model.camera = c
	}
}

// WithKinds sets the kinds offered by the kind keys and the picker.
//
// Parameters:
//   - kinds: the kinds, e.g. primitive.Registry.Kinds()
//
// Returns:
//   - ModelOption: option function to apply
func WithKinds(kinds []primitive.Kind) ModelOption {
	return func(model *Model) {
		if len(kinds) > 0 {
			model.kinds = kinds
		}
	}
}

// WithFrameRate sets the redraw rate.
//
// Parameters:
//   - fps: frames per second (default 30)
//
// Returns:
//   - ModelOption: option function to apply
func WithFrameRate(fps float64) ModelOption {
	return func(model *Model) {
		if fps > 0 {
			model.frameRate = fps
		}
	}
}

// WithCellAspect sets the height-to-width ratio of a terminal cell.
//
// Parameters:
//   - aspect: cell height divided by cell width (default 2)
//
// Returns:
//   - ModelOption: option function to apply
func WithCellAspect(aspect float32) ModelOption {
	return func(model *Model) {
		if aspect > 0 {
			model.cellAspect = aspect
		}
	}
}

// WithLogger sets the logger.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - ModelOption: option function to apply
func WithLogger(logger *slog.Logger) ModelOption {
	return func(model *Model) {
		model.logger = logger
	}
}

// New creates the panel model.
//
// Parameters:
//   - dispatcher: receives the edit events produced by keys
//   - source: reports the controller status
//   - options: functional options
//
// Returns:
//   - Model: the model
func New(dispatcher events.Dispatcher, source StatusSource, options ...ModelOption) Model {
	m := Model{
		dispatcher: dispatcher,
		source:     source,
		kinds:      primitive.BuiltinKinds(),
		cellAspect: 2,
		frameRate:  30,
		message:    "oxycsg ready",
		keys:       defaultKeyMap(),
		help:       help.New(),
	}
	for _, opt := range options {
		opt(&m)
	}
	m.logger = common.Coalesce(m.logger, common.Logger())

	m.backend = renderer.NewBrailleBackend(0, 0)
	if m.engine != nil {
		m.engine.SetRenderer(renderer.NewRenderer(
			renderer.WithBackend(m.backend),
			renderer.WithLogger(m.logger),
		))
	}

	items := make([]list.Item, 0, len(m.kinds))
	for _, k := range m.kinds {
		items = append(items, kindItem{kind: k})
	}
	m.picker = list.New(items, list.NewDefaultDelegate(), sidebarWidth-2, 10)
	m.picker.Title = "Primitive"
	m.picker.SetShowHelp(false)
	m.picker.SetShowStatusBar(false)
	return m
}

// kindItem is a picker entry.
type kindItem struct {
	kind primitive.Kind
}

func (i kindItem) Title() string       { return i.kind.String() }
func (i kindItem) Description() string { return "replace the selected brush" }
func (i kindItem) FilterValue() string { return i.kind.String() }

// frameMsg drives the tick and render cycle.
type frameMsg time.Time

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.engine == nil {
		return nil
	}
	return m.nextFrame()
}

func (m Model) nextFrame() tea.Cmd {
	return tea.Tick(time.Duration(float64(time.Second)/m.frameRate), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Slot returns the brush index the keys edit.
func (m Model) Slot() int {
	return m.slot
}

// Message returns the last status line.
func (m Model) Message() string {
	return m.message
}
