package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding of the player screen.
type keyMap struct {
	TogglePlay key.Binding
	Previous   key.Binding
	Next       key.Binding
	VolumeUp   key.Binding
	VolumeDown key.Binding
	Mute       key.Binding
	Repeat     key.Binding
	Shuffle    key.Binding
	Theme      key.Binding
	BandLeft   key.Binding
	BandRight  key.Binding
	GainUp     key.Binding
	GainDown   key.Binding
	Preset     key.Binding
	SeekBack   key.Binding
	SeekFwd    key.Binding
	CursorDown key.Binding
	CursorUp   key.Binding
	Select     key.Binding
	Add        key.Binding
	Remove     key.Binding
	Visualizer key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		TogglePlay: key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		Previous:   key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "previous")),
		Next:       key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next")),
		VolumeUp:   key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "volume +5%")),
		VolumeDown: key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "volume -5%")),
		Mute:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		Repeat:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		Shuffle:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		Theme:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		BandLeft:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "band left")),
		BandRight:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "band right")),
		GainUp:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "gain up")),
		GainDown:   key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "gain down")),
		Preset:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "next preset")),
		SeekBack:   key.NewBinding(key.WithKeys(","), key.WithHelp(",", "seek -5%")),
		SeekFwd:    key.NewBinding(key.WithKeys("."), key.WithHelp(".", "seek +5%")),
		CursorDown: key.NewBinding(key.WithKeys("j"), key.WithHelp("j", "cursor down")),
		CursorUp:   key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "cursor up")),
		Select:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play selection")),
		Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add files")),
		Remove:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
		Visualizer: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "visualizer")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.TogglePlay, k.Previous, k.Next, k.Add, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.TogglePlay, k.Previous, k.Next, k.SeekBack, k.SeekFwd, k.Select},
		{k.VolumeUp, k.VolumeDown, k.Mute, k.Repeat, k.Shuffle, k.Theme},
		{k.BandLeft, k.BandRight, k.GainUp, k.GainDown, k.Preset, k.Visualizer},
		{k.CursorUp, k.CursorDown, k.Add, k.Remove, k.Help, k.Quit},
	}
}
