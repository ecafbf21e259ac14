package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keyboard bindings of the main window.
type KeyMap struct {
	Run      key.Binding
	Stop     key.Binding
	Send     key.Binding
	Save     key.Binding
	Copy     key.Binding
	Pick     key.Binding
	Quit     key.Binding
	Next     key.Binding
	Prev     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Cancel   key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Run: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "run"),
		),
		Stop: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "stop"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "save"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "copy reply"),
		),
		Pick: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "models"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q", "ctrl+c"),
			key.WithHelp("C-q", "exit"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←/→", "gpu layers"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp/PgDn", "±10 layers"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancel"),
		),
	}
}

// ShortHelp returns the bindings shown in the help line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Run, k.Stop, k.Send, k.Save, k.Copy, k.Pick, k.Next, k.Quit}
}

// FullHelp returns the bindings grouped for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Run, k.Stop, k.Send},
		{k.Save, k.Copy, k.Pick},
		{k.Next, k.Left, k.PageUp},
		{k.Cancel, k.Quit},
	}
}
