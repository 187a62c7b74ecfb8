package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	search   key.Binding
	source   key.Binding
	quality  key.Binding
	enter    key.Binding
	toggle   key.Binding
	lyrics   key.Binding
	download key.Binding
	back     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		source:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "source")),
		quality:  key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bitrate")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play/pause")),
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause")),
		lyrics:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "lyrics")),
		download: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.search, k.source, k.quality},
		{k.enter, k.toggle, k.lyrics, k.download},
		{k.back, k.quit},
	}
}
