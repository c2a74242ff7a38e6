package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start     key.Binding
	Toggle    key.Binding
	Reset     key.Binding
	Average   key.Binding
	DragLeft  key.Binding
	DragRight key.Binding
	Focus     key.Binding
	Blur      key.Binding
	Theme     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Start: key.NewBinding(
			key.WithKeys("enter", "s"),
			key.WithHelp("enter/s", "start"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "stop/resume"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Average: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "average"),
		),
		DragLeft: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "drag left"),
		),
		DragRight: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "drag right"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "edit inputs"),
		),
		Blur: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "done editing"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "theme"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Toggle, k.Reset, k.Average, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Toggle, k.Reset, k.Average},
		{k.DragLeft, k.DragRight, k.Focus, k.Blur},
		{k.Theme, k.Help, k.Quit},
	}
}
