package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/clmusic/internal/models"
	"github.com/desertthunder/clmusic/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSearchDone MsgKind = iota
	MsgSessionChanged
	MsgLyricIndex
	MsgPlayDone
	MsgDownloadDone
	MsgProgressUpdate
)

type searchResult struct {
	tracks []models.Track
	err    error
}

type downloadResult struct {
	path string
	err  error
}

// searchDoneMsg is the constructor for [MsgSearchDone]
func searchDoneMsg(tracks []models.Track, err error) Msg {
	return Msg{kind: MsgSearchDone, data: searchResult{tracks, err}}
}

// sessionChangedMsg is the constructor for [MsgSessionChanged]
func sessionChangedMsg(s models.Session) Msg {
	return Msg{kind: MsgSessionChanged, data: s}
}

// lyricIndexMsg is the constructor for [MsgLyricIndex]
func lyricIndexMsg(index int) Msg {
	return Msg{kind: MsgLyricIndex, data: index}
}

// playDoneMsg is the constructor for [MsgPlayDone]
func playDoneMsg(err error) Msg {
	return Msg{kind: MsgPlayDone, data: err}
}

// downloadDoneMsg is the constructor for [MsgDownloadDone]
func downloadDoneMsg(path string, err error) Msg {
	return Msg{kind: MsgDownloadDone, data: downloadResult{path, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}
