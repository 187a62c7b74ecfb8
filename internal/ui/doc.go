// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [SearchView] : Type a query and pick a source (tab cycles sources)
//  2. [ResultsView] : Browse results; enter plays or pauses, d downloads, b cycles bitrate
//  3. [LyricsView] : Follow the lyrics with the active line highlighted
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Session and lyric index changes arrive from resolver and sync observers through a buffered
// channel that the model drains one message at a time, the same way search and download
// progress updates do.
package ui
