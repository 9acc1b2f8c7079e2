package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the TUI.
type KeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding

	// Task management
	New    key.Binding // Focus the task form
	Edit   key.Binding // Edit selected task
	Delete key.Binding // Delete selected task
	Attach key.Binding // Attach an image file
	Detach key.Binding // Drop the pending attachment

	// Form
	Submit     key.Binding // Create or update
	NextField  key.Binding // Switch input
	Cancel     key.Binding // Leave form / cancel edit
	FormAttach key.Binding // Attach an image from the form
	ToggleMode key.Binding // Sign in <-> sign up

	// View
	Refresh key.Binding
	Help    key.Binding

	// General
	SignOut   key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
	Confirm   key.Binding // Confirm action (in confirm mode)
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Attach: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "attach image"),
		),
		Detach: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "drop image"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "next field"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		FormAttach: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "attach image"),
		),
		ToggleMode: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "sign in/up"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		SignOut: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "sign out"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
	}
}

// ShortHelp returns keybindings to show in the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.New, k.Edit, k.Delete, k.Attach, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Refresh},                       // Navigation
		{k.New, k.Edit, k.Delete},                       // Task management
		{k.Attach, k.Detach},                            // Image
		{k.Submit, k.NextField, k.FormAttach, k.Cancel}, // Form
		{k.SignOut, k.Help, k.Quit, k.ForceQuit},        // General
	}
}

// formHelp is the help shown with the credential form.
type formHelp struct {
	keys KeyMap
}

func (h formHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.keys.Submit, h.keys.NextField, h.keys.ToggleMode, h.keys.ForceQuit}
}

func (h formHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp()}
}

// inputHelp is the help shown while a task input is focused.
type inputHelp struct {
	keys KeyMap
}

func (h inputHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.keys.Submit, h.keys.NextField, h.keys.FormAttach, h.keys.Cancel}
}

func (h inputHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp()}
}

// GetBuiltinKeys returns a set of all keys used by keybindings.
func (k KeyMap) GetBuiltinKeys() map[string]bool {
	keys := make(map[string]bool)
	addKeys := func(binding key.Binding) {
		for _, k := range binding.Keys() {
			keys[k] = true
		}
	}

	addKeys(k.Up)
	addKeys(k.Down)
	addKeys(k.New)
	addKeys(k.Edit)
	addKeys(k.Delete)
	addKeys(k.Attach)
	addKeys(k.Detach)
	addKeys(k.Submit)
	addKeys(k.NextField)
	addKeys(k.Cancel)
	addKeys(k.FormAttach)
	addKeys(k.ToggleMode)
	addKeys(k.Refresh)
	addKeys(k.Help)
	addKeys(k.SignOut)
	addKeys(k.Quit)
	addKeys(k.ForceQuit)
	addKeys(k.Confirm)

	return keys
}
