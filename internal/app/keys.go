package app

import "charm.land/bubbles/v2/key"

// KeyMap defines the normal-mode keybindings.
type KeyMap struct {
	Quit      key.Binding
	Insert    key.Binding
	Tab       key.Binding
	Back      key.Binding
	Up        key.Binding
	Down      key.Binding
	Top       key.Binding
	Bottom    key.Binding
	Locality  key.Binding
	Doctor    key.Binding
	Config    key.Binding
	Clean     key.Binding
	Install   key.Binding
	Uninstall key.Binding
	Update    key.Binding
	Tasks     key.Binding
	Activity  key.Binding
	Command   key.Binding
	Help      key.Binding
	Refresh   key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Insert: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "search"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last"),
		),
		Locality: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "local/remote"),
		),
		Doctor: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "doctor"),
		),
		Config: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "config"),
		),
		Clean: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clean"),
		),
		Install: key.NewBinding(
			key.WithKeys("I"),
			key.WithHelp("I", "install"),
		),
		Uninstall: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "uninstall"),
		),
		Update: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "upgrade"),
		),
		Tasks: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "tasks"),
		),
		Activity: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "activity"),
		),
		Command: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "command"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "refresh"),
		),
	}
}

func helpText(bindings ...key.Binding) []string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return parts
}
