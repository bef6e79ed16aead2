package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-csg/engine/composer"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := titleStyle.Render(" oxycsg ─ solid composer ")
	header = lipgloss.NewStyle().Width(m.width).Render(header)

	cols, rows := m.viewportSize()
	canvas := strings.Join(m.view, "\n")
	viewport := lipgloss.NewStyle().Width(cols).Height(rows).MaxHeight(rows).Render(canvas)

	var side string
	if m.picking {
		side = m.picker.View()
	} else {
		side = boxStyle.Width(sidebarWidth - 2).Render(m.panel())
	}
	side = lipgloss.NewStyle().Width(sidebarWidth).MaxHeight(rows).Render(side)

	body := lipgloss.JoinHorizontal(lipgloss.Top, viewport, " ", side)

	msg := dimStyle.Render(m.message)
	if m.failed {
		msg = errorStyle.Render(m.message)
	}
	footer := lipgloss.JoinVertical(lipgloss.Left, msg, m.help.View(m.keys))

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, body, footer))
}

// panel renders the controller status and the material.
func (m Model) panel() string {
	st := m.status()
	var b strings.Builder

	for i := 0; i < composer.BrushCount; i++ {
		kind, pos := "-", ""
		if i < len(st.Kinds) {
			kind = st.Kinds[i]
		}
		if i < len(st.Placements) {
			p := st.Placements[i].Position
			pos = fmt.Sprintf("(%.1f, %.1f, %.1f)", p[0], p[1], p[2])
		}
		line := fmt.Sprintf("%-12s %s", kind, pos)
		label := labelStyle.Render(fmt.Sprintf("brush %d", i+1))
		if i == m.slot {
			line = selectedStyle.Render(line)
		}
		b.WriteString(label + line + "\n")
	}
	b.WriteString(labelStyle.Render("op") + st.Operation.String() + "\n")

	state := st.State.String()
	if st.State == composer.StateRecomputing {
		state = busyStyle.Render(state)
	}
	b.WriteString(labelStyle.Render("state") + fmt.Sprintf("%s rev %d", state, st.Revision) + "\n")

	result := dimStyle.Render("none")
	if st.Installed {
		result = fmt.Sprintf("rev %d, %d tris, %s", st.InstalledRevision, st.Triangles, st.LastDuration.Round(100*time.Microsecond))
	}
	b.WriteString(labelStyle.Render("result") + result + "\n")
	if st.LastError != nil {
		b.WriteString(labelStyle.Render("error") + errorStyle.Render(st.LastError.Error()) + "\n")
	}

	if m.material != nil {
		p := m.material.Snapshot()
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("shading") + fmt.Sprintf("%s %s", p.Model, p.Color.Hex()) + "\n")
		b.WriteString(labelStyle.Render("rough") + fmt.Sprintf("%.2f", p.Roughness) + "\n")
		b.WriteString(labelStyle.Render("metal") + fmt.Sprintf("%.2f", p.Metalness) + "\n")
		b.WriteString(labelStyle.Render("wire") + fmt.Sprintf("%v flat %v", p.Wireframe, p.FlatShading) + "\n")
	}

	if m.engine != nil {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("frame") + fmt.Sprintf("%d tris, %d culled", m.stats.Triangles, m.stats.BackFaces))
	}
	return strings.TrimRight(b.String(), "\n")
}
