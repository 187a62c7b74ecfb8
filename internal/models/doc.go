// Package models defines the domain entities shared by the search, resolution, lyric sync and download layers.
//
//   - [Track] : a search result from the aggregator (TrackDescriptor), decorated with a cover URL
//   - [Source] and [Quality] : the enumerated backends and bitrates the aggregator accepts
//   - [LyricLine] and [LyricDocument] : parsed, time-synced lyrics with an optional translation
//   - [Session] : the single active playback context, replaced wholesale on each track switch
package models
