package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next         key.Binding
	Prev         key.Binding
	Edit         key.Binding
	Paste        key.Binding
	Reset        key.Binding
	More         key.Binding
	Fewer        key.Binding
	ClearHistory key.Binding
	Help         key.Binding
	Quit         key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Next:         key.NewBinding(key.WithKeys("right", "tab"), key.WithHelp("→/tab", "next cell")),
		Prev:         key.NewBinding(key.WithKeys("left", "shift+tab"), key.WithHelp("←/S-tab", "prev cell")),
		Edit:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit")),
		Paste:        key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "paste code")),
		Reset:        key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset")),
		More:         key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "more cells")),
		Fewer:        key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "fewer cells")),
		ClearHistory: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "clear history")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:         key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Paste, k.Reset, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Edit},
		{k.Paste, k.Reset, k.ClearHistory},
		{k.More, k.Fewer},
		{k.Help, k.Quit},
	}
}
