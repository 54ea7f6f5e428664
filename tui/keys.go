package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Submit     key.Binding
	NextScript key.Binding
	PrevScript key.Binding
	LineUp     key.Binding
	LineDown   key.Binding
	Edit       key.Binding
	Cancel     key.Binding
	Run        key.Binding
	Metro      key.Binding
	Preview    key.Binding
	HistPrev   key.Binding
	HistNext   key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run / store line")),
		NextScript: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next script")),
		PrevScript: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev script")),
		LineUp:     key.NewBinding(key.WithKeys("alt+up", "ctrl+k"), key.WithHelp("ctrl+k", "line up")),
		LineDown:   key.NewBinding(key.WithKeys("alt+down", "ctrl+j"), key.WithHelp("ctrl+j", "line down")),
		Edit:       key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "edit line")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to live")),
		Run:        key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "run script")),
		Metro:      key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "metro on/off")),
		Preview:    key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "preview values")),
		HistPrev:   key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "history")),
		HistNext:   key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "history")),
		Help:       key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NextScript, k.Edit, k.Run, k.Metro, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.HistPrev, k.HistNext, k.Cancel},
		{k.NextScript, k.PrevScript, k.LineUp, k.LineDown, k.Edit},
		{k.Run, k.Metro, k.Preview, k.Help, k.Quit},
	}
}
