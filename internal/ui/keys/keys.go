package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the views respond to
type KeyMap struct {
	Quit     key.Binding
	Back     key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Enter    key.Binding
	Tab      key.Binding
	ShiftTab key.Binding
	Submit   key.Binding
	Help     key.Binding

	// Login screen
	SwitchMode key.Binding
	Google     key.Binding

	// Dashboard
	Inbox        key.Binding
	Analytics    key.Binding
	Profile      key.Binding
	New          key.Binding
	NewWorkspace key.Binding
	NewCategory  key.Binding
	Toggle       key.Binding
	Filter       key.Binding
	FilterAll    key.Binding
	FilterOpen   key.Binding
	FilterDone   key.Binding
	Generate     key.Binding
	Dismiss      key.Binding
	Logout       key.Binding
}

// DefaultKeyMap returns the default bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "right"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		SwitchMode: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "sign in / register"),
		),
		Google: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "continue with Google"),
		),
		Inbox: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "inbox"),
		),
		Analytics: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "analytics"),
		),
		Profile: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "profile"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task"),
		),
		NewWorkspace: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "new workspace"),
		),
		NewCategory: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "new category"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "space", "x"),
			key.WithHelp("space", "toggle status"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "cycle filter"),
		),
		FilterAll: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "all"),
		),
		FilterOpen: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "pending"),
		),
		FilterDone: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "completed"),
		),
		Generate: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "generate insights"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dismiss banner"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
	}
}
