package dashboard

import "github.com/charmbracelet/bubbles/key"

// keyMap defines key bindings for the device table
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	Activate  key.Binding
	SelectAll key.Binding
	Clear     key.Binding
	Sort      key.Binding
	Group     key.Binding
	Search    key.Binding
	Rescan    key.Binding
	Adopt     key.Binding
	Remove    key.Binding
	Back      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Activate, k.Sort, k.Group, k.Search, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Activate},
		{k.SelectAll, k.Clear, k.Sort, k.Group},
		{k.Search, k.Rescan, k.Adopt, k.Remove},
		{k.Back, k.Help, k.Quit},
	}
}

// searchKeyMap defines key bindings while the search box has focus
type searchKeyMap struct {
	Apply key.Binding
	Blur  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k searchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Apply, k.Blur}
}

// FullHelp returns keybindings for the expanded help view
func (k searchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Apply, k.Blur}}
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "select/collapse"),
		),
		Activate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear selection"),
		),
		Sort: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "sort column"),
		),
		Group: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "group by"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
		Adopt: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "take control"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "remove device"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close details"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func newSearchKeyMap() searchKeyMap {
	return searchKeyMap{
		Apply: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		Blur: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "done"),
		),
	}
}
