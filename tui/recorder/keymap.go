package recorder

import "github.com/charmbracelet/bubbles/key"

// KeyMap is the recorder's own bindings. While a recording is armed the
// daemon captures every key before it reaches the terminal.
type KeyMap struct {
	Record key.Binding
	Clear key.Binding
	Quit  key.Binding
	Help  key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Record: key.NewBinding(key.WithKeys("r", "enter"), key.WithHelp("r", "record a shortcut")),
		Clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Record, k.Clear, k.Quit, k.Help}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Record, k.Clear}, {k.Quit, k.Help}}
}
