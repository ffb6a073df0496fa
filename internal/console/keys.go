package console

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Capture     key.Binding
	CaptureNote key.Binding
	Sync        key.Binding
	Checklist   key.Binding
	Refresh     key.Binding
	Quit        key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Capture, k.CaptureNote, k.Sync, k.Checklist, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Capture: key.NewBinding(
		key.WithKeys("c", " "),
		key.WithHelp("c", "capture"),
	),
	CaptureNote: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "capture with note"),
	),
	Sync: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sync"),
	),
	Checklist: key.NewBinding(
		key.WithKeys("k"),
		key.WithHelp("k", "checklist"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
