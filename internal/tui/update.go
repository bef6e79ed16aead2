package tui

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/composer"
	"github.com/Carmen-Shannon/oxy-csg/engine/csg"
	"github.com/Carmen-Shannon/oxy-csg/engine/events"
	"github.com/Carmen-Shannon/oxy-csg/engine/material"
	"github.com/charmbracelet/bubbles/key"
	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
	case frameMsg:
		m.frame(time.Time(msg))
		return m, m.nextFrame()
	case tea.KeyMsg:
		if m.picking {
			return m.updatePicker(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.picker.FilterState() != list.Filtering {
		switch msg.String() {
		case "esc", "p":
			m.picking = false
			m.message = "pick cancelled"
			return m, nil
		case "enter":
			m.picking = false
			if it, ok := m.picker.SelectedItem().(kindItem); ok {
				m.apply(events.BrushGeometryChanged{Slot: m.slot, Kind: it.kind})
			}
			return m, nil
		case "ctrl+c":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
	case key.Matches(msg, k.Slot):
		m.slot = (m.slot + 1) % composer.BrushCount
		m.message = fmt.Sprintf("editing brush %d", m.slot+1)
	case key.Matches(msg, k.NextKind):
		m.cycleKind(1)
	case key.Matches(msg, k.PrevKind):
		m.cycleKind(-1)
	case key.Matches(msg, k.PickKind):
		m.picking = true
		m.picker.Select(m.kindIndex())
	case key.Matches(msg, k.NextOp):
		m.cycleOperation(1)
	case key.Matches(msg, k.PrevOp):
		m.cycleOperation(-1)
	case key.Matches(msg, k.MoveLeft):
		m.move(-moveStep, 0)
	case key.Matches(msg, k.MoveRight):
		m.move(moveStep, 0)
	case key.Matches(msg, k.MoveUp):
		m.move(0, moveStep)
	case key.Matches(msg, k.MoveDown):
		m.move(0, -moveStep)
	case key.Matches(msg, k.Model):
		m.cycleModel()
	case key.Matches(msg, k.Color):
		m.cycleColor()
	case key.Matches(msg, k.Rougher):
		m.tweak(material.PropertyRoughness, tweakStep)
	case key.Matches(msg, k.Smoother):
		m.tweak(material.PropertyRoughness, -tweakStep)
	case key.Matches(msg, k.MoreMetal):
		m.tweak(material.PropertyMetalness, tweakStep)
	case key.Matches(msg, k.LessMetal):
		m.tweak(material.PropertyMetalness, -tweakStep)
	case key.Matches(msg, k.Wireframe):
		m.toggle(material.PropertyWireframe)
	case key.Matches(msg, k.FlatShading):
		m.toggle(material.PropertyFlatShading)
	case key.Matches(msg, k.OrbitLeft):
		m.orbit(func() { m.camera.Controller().OrbitLeft() })
	case key.Matches(msg, k.OrbitRight):
		m.orbit(func() { m.camera.Controller().OrbitRight() })
	case key.Matches(msg, k.OrbitUp):
		m.orbit(func() { m.camera.Controller().OrbitUp() })
	case key.Matches(msg, k.OrbitDown):
		m.orbit(func() { m.camera.Controller().OrbitDown() })
	case key.Matches(msg, k.ZoomIn):
		m.orbit(func() { m.camera.Controller().Zoom(1) })
	case key.Matches(msg, k.ZoomOut):
		m.orbit(func() { m.camera.Controller().Zoom(-1) })
	}
	return m, nil
}

// apply dispatches one event and records the outcome in the status line.
func (m *Model) apply(e events.Event) {
	if m.dispatcher == nil {
		m.message, m.failed = "no dispatcher", true
		return
	}
	if err := m.dispatcher.Dispatch(e); err != nil {
		m.logger.Warn("edit rejected", "event", e.String(), "error", err)
		m.message, m.failed = "rejected: "+err.Error(), true
		return
	}
	m.message, m.failed = e.String(), false
}

func (m *Model) status() composer.Status {
	if m.source == nil {
		return composer.Status{}
	}
	return m.source.Status()
}

// kindIndex returns the position of the selected brush's kind in the offered kinds.
func (m *Model) kindIndex() int {
	st := m.status()
	if m.slot >= len(st.Kinds) {
		return 0
	}
	for i, k := range m.kinds {
		if k.String() == st.Kinds[m.slot] {
			return i
		}
	}
	return 0
}

func (m *Model) cycleKind(delta int) {
	n := len(m.kinds)
	next := m.kinds[((m.kindIndex()+delta)%n+n)%n]
	m.apply(events.BrushGeometryChanged{Slot: m.slot, Kind: next})
}

func (m *Model) cycleOperation(delta int) {
	ops := csg.Operations()
	n := len(ops)
	cur := int(m.status().Operation)
	m.apply(events.OperationChanged{Operation: ops[((cur+delta)%n+n)%n]})
}

func (m *Model) move(dx, dy float32) {
	st := m.status()
	if m.slot >= len(st.Placements) {
		m.message, m.failed = "no brush placement", true
		return
	}
	p := st.Placements[m.slot]
	p.Position[0] += dx
	p.Position[1] += dy
	m.apply(events.BrushPlacementChanged{Slot: m.slot, Placement: p})
}

func (m *Model) snapshot() (material.Properties, bool) {
	if m.material == nil {
		m.message, m.failed = "no material", true
		return material.Properties{}, false
	}
	return m.material.Snapshot(), true
}

func (m *Model) cycleModel() {
	p, ok := m.snapshot()
	if !ok {
		return
	}
	models := material.Models()
	next := models[(int(p.Model)+1)%len(models)]
	m.apply(events.MaterialPropertyChanged{Name: material.PropertyModel, Value: next.String()})
}

func (m *Model) cycleColor() {
	p, ok := m.snapshot()
	if !ok {
		return
	}
	next := palette[0]
	cur := p.Color.Hex()
	for i, c := range palette {
		if c == cur {
			next = palette[(i+1)%len(palette)]
			break
		}
	}
	m.apply(events.MaterialPropertyChanged{Name: material.PropertyColor, Value: next})
}

func (m *Model) tweak(name string, delta float32) {
	p, ok := m.snapshot()
	if !ok {
		return
	}
	cur := p.Roughness
	if name == material.PropertyMetalness {
		cur = p.Metalness
	}
	m.apply(events.MaterialPropertyChanged{Name: name, Value: common.Clamp(cur+delta, 0, 1)})
}

func (m *Model) toggle(name string) {
	p, ok := m.snapshot()
	if !ok {
		return
	}
	cur := p.Wireframe
	if name == material.PropertyFlatShading {
		cur = p.FlatShading
	}
	m.apply(events.MaterialPropertyChanged{Name: name, Value: !cur})
}

func (m *Model) orbit(step func()) {
	if m.camera == nil || m.camera.Controller() == nil {
		return
	}
	step()
	m.camera.Update()
}

// resize recomputes the viewport from the window size.
func (m *Model) resize() {
	cols, rows := m.viewportSize()
	m.backend.Resize(cols, rows)
	m.picker.SetSize(sidebarWidth-2, max(4, rows-2))
	if m.camera != nil && cols > 0 && rows > 0 {
		m.camera.SetAspect(float32(cols) / (float32(rows) * m.cellAspect))
	}
}

// viewportSize returns the braille area in cells.
func (m *Model) viewportSize() (cols, rows int) {
	if m.width == 0 || m.height == 0 {
		return 0, 0
	}
	footer := lipgloss.Height(m.help.View(m.keys)) + 1
	cols = m.width - sidebarWidth - 1
	rows = m.height - 1 - footer
	return max(cols, 0), max(rows, 0)
}

// frame advances the engine and redraws the viewport.
func (m *Model) frame(now time.Time) {
	if m.engine == nil {
		return
	}
	dt := float32(0)
	if !m.lastFrame.IsZero() {
		dt = float32(min(now.Sub(m.lastFrame), 100*time.Millisecond).Seconds())
	}
	m.lastFrame = now
	m.engine.Tick(dt)

	if cols, rows := m.viewportSize(); cols == 0 || rows == 0 {
		return
	}
	stats, err := m.engine.RenderOnce()
	if err != nil {
		m.logger.Debug("render skipped", "error", err)
		return
	}
	m.stats = stats
	m.view = m.backend.Lines()
}
