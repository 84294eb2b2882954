package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the dashboard.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding

	// Views
	ViewActivity key.Binding

	// Wikis
	NextWiki key.Binding
	PrevWiki key.Binding

	// Pages
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Actions
	Sync       key.Binding
	Refresh    key.Binding
	ClearCache key.Binding
	CycleSort  key.Binding
	Autoreview key.Binding

	// Configuration panel
	ToggleConfig key.Binding
	EditConfig   key.Binding
	SwitchField  key.Binding
	SaveConfig   key.Binding

	// Detail pane
	ScrollDown key.Binding
	ScrollUp   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),

		ViewActivity: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Activity log"),
		),

		NextWiki: key.NewBinding(
			key.WithKeys("tab", "right", "]"),
			key.WithHelp("tab/]", "Next wiki"),
		),
		PrevWiki: key.NewBinding(
			key.WithKeys("shift+tab", "left", "["),
			key.WithHelp("shift+tab/[", "Previous wiki"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "First page"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Last page"),
		),

		Sync: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "Reload pending"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh from wiki"),
		),
		ClearCache: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Clear cache"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Cycle sort order"),
		),
		Autoreview: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Autoreview dry-run"),
		),

		ToggleConfig: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Toggle configuration"),
		),
		EditConfig: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "Edit configuration"),
		),
		SwitchField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Switch field"),
		),
		SaveConfig: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Save configuration"),
		),

		ScrollDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("ctrl+d", "Scroll detail down"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("ctrl+u", "Scroll detail up"),
		),
	}
}

// ShortHelp returns key bindings for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextWiki, k.CycleSort, k.Refresh, k.ToggleConfig, k.Autoreview, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextWiki, k.PrevWiki, k.Up, k.Down, k.Top, k.Bottom},
		{k.Sync, k.Refresh, k.ClearCache, k.CycleSort, k.Autoreview},
		{k.ToggleConfig, k.EditConfig, k.SwitchField, k.SaveConfig},
		{k.ViewActivity, k.ScrollDown, k.ScrollUp},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
