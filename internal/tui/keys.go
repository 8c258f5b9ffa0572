// SPDX-License-Identifier: MIT
package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Decrease key.Binding
	Increase key.Binding
	Toggle   key.Binding
	Soft     key.Binding
	Aggro    key.Binding
	Factory  key.Binding
	Custom   key.Binding
	Save     key.Binding
	Reinit   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Decrease, k.Increase, k.Toggle, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Decrease, k.Increase, k.Toggle},
		{k.Soft, k.Aggro, k.Factory, k.Custom, k.Save},
		{k.Reinit, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Decrease: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "decrease")),
	Increase: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "increase")),
	Toggle:   key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle")),
	Soft:     key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "soft")),
	Aggro:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "aggressive")),
	Factory:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "factory")),
	Custom:   key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "custom")),
	Save:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save custom")),
	Reinit:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reinit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
