package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the account grid.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	PrevColumn key.Binding
	NextColumn key.Binding

	Search  key.Binding // Focus the search input.
	Sort    key.Binding // Sort by the selected column; again to reverse.
	Unsort  key.Binding // Return to load order.
	Edit    key.Binding // Edit the selected cell.
	Save    key.Binding // Submit every staged edit.
	Discard key.Binding // Drop every staged edit.
	Open    key.Binding // Open the selected record's detail view.
	Reload  key.Binding

	Confirm key.Binding // Accept input in search and edit mode.
	Cancel  key.Binding // Leave search or edit mode.

	Quit key.Binding
}

// DefaultKeyMap is the built-in binding set, with vim-style movement
// alongside the arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PrevColumn: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "prev column"),
	),
	NextColumn: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "next column"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Sort: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sort"),
	),
	Unsort: key.NewBinding(
		key.WithKeys("S"),
		key.WithHelp("S", "clear sort"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	Save: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("C-s", "save"),
	),
	Discard: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "discard edits"),
	),
	Open: key.NewBinding(
		key.WithKeys("o", "enter"),
		key.WithHelp("o/⏎", "open"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("⏎", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Sort, k.Edit, k.Save, k.Open, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevColumn, k.NextColumn},
		{k.Search, k.Sort, k.Unsort, k.Reload},
		{k.Edit, k.Save, k.Discard, k.Open},
		{k.Quit},
	}
}
