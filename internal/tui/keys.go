package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Slot        key.Binding
	NextKind    key.Binding
	PrevKind    key.Binding
	PickKind    key.Binding
	NextOp      key.Binding
	PrevOp      key.Binding
	MoveLeft    key.Binding
	MoveRight   key.Binding
	MoveUp      key.Binding
	MoveDown    key.Binding
	Model       key.Binding
	Color       key.Binding
	Rougher     key.Binding
	Smoother    key.Binding
	MoreMetal   key.Binding
	LessMetal   key.Binding
	Wireframe   key.Binding
	FlatShading key.Binding
	OrbitLeft   key.Binding
	OrbitRight  key.Binding
	OrbitUp     key.Binding
	OrbitDown   key.Binding
	ZoomIn      key.Binding
	ZoomOut     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Slot:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "brush")),
		NextKind:    key.NewBinding(key.WithKeys("k"), key.WithHelp("k/K", "kind")),
		PrevKind:    key.NewBinding(key.WithKeys("K")),
		PickKind:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pick kind")),
		NextOp:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o/O", "operation")),
		PrevOp:      key.NewBinding(key.WithKeys("O")),
		MoveLeft:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a/d/w/s", "move brush")),
		MoveRight:   key.NewBinding(key.WithKeys("d")),
		MoveUp:      key.NewBinding(key.WithKeys("w")),
		MoveDown:    key.NewBinding(key.WithKeys("s")),
		Model:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "shading")),
		Color:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "color")),
		Rougher:     key.NewBinding(key.WithKeys("]"), key.WithHelp("[/]", "roughness")),
		Smoother:    key.NewBinding(key.WithKeys("[")),
		MoreMetal:   key.NewBinding(key.WithKeys("}"), key.WithHelp("{/}", "metalness")),
		LessMetal:   key.NewBinding(key.WithKeys("{")),
		Wireframe:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "wireframe")),
		FlatShading: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "flat")),
		OrbitLeft:   key.NewBinding(key.WithKeys("left"), key.WithHelp("←/→/↑/↓", "orbit")),
		OrbitRight:  key.NewBinding(key.WithKeys("right")),
		OrbitUp:     key.NewBinding(key.WithKeys("up")),
		OrbitDown:   key.NewBinding(key.WithKeys("down")),
		ZoomIn:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "zoom")),
		ZoomOut:     key.NewBinding(key.WithKeys("-", "_")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Slot, k.NextKind, k.NextOp, k.Model, k.OrbitLeft, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Slot, k.NextKind, k.PickKind, k.NextOp, k.MoveLeft},
		{k.Model, k.Color, k.Rougher, k.MoreMetal, k.Wireframe, k.FlatShading},
		{k.OrbitLeft, k.ZoomIn, k.Help, k.Quit},
	}
}
