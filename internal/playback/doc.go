// Package playback owns the active playback session and keeps the highlighted lyric line in step with playback position.
//
// # Resolution
//
// [Resolver.PlayOrToggle] either toggles the current track or switches to a new one. A switch
// clears the session's stream URL, then fetches the stream URL and lyrics concurrently and
// installs the result only if both succeed. Every switch takes the next sequence number and
// cancels the switch before it; a resolution that finishes after a newer one started is
// discarded with [shared.ErrSuperseded].
//
// # Lyric Sync
//
// The media [Player] reports positions at its own cadence. [Sync.OnProgress] accepts at most one
// position per throttle window (leading edge, extra calls dropped), maps it to the active lyric
// line and notifies its observer only when the line changes.
//
// # Player
//
// Audio decoding is out of scope. [ClockPlayer] stands in for a media player: it accepts a URL and
// emits positions from a wall clock while playing.
package playback
