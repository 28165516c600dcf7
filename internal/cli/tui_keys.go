package cli

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	CycleMode  key.Binding
	Analyze    key.Binding
	Up         key.Binding
	Down       key.Binding
	Toggle     key.Binding
	Add        key.Binding
	Break      key.Binding
	Focus      key.Binding
	Pause      key.Binding
	Finish     key.Binding
	FullScreen key.Binding
	Back       key.Binding
	Confirm    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		NextTab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		PrevTab:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev view")),
		CycleMode:  key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "mode")),
		Analyze:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "analyze")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:     key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "done")),
		Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
		Break:      key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "add break")),
		Focus:      key.NewBinding(key.WithKeys("enter", "f"), key.WithHelp("enter", "focus")),
		Pause:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause/resume")),
		Finish:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "finish")),
		FullScreen: key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "full screen")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Confirm:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
	}
}
