package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Blink     key.Binding
	Patient   key.Binding
	Morse     key.Binding
	Menu      key.Binding
	Calibrate key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Blink:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "close/open eye")),
		Patient:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "patient")),
		Morse:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "morse")),
		Menu:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "menu")),
		Calibrate: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "calibrate")),
		Quit:      key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Blink, k.Patient, k.Morse, k.Menu, k.Calibrate, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Blink}, {k.Patient, k.Morse, k.Menu}, {k.Calibrate, k.Quit}}
}
