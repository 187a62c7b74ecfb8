package models

// Session is the single active playback context.
//
// A Session is a value: the resolver replaces it wholesale on every successful track switch,
// and the play/pause toggle is the only in-place change.
type Session struct {
	ID        string        `json:"id"`
	Seq       uint64        `json:"seq"`
	Track     *Track        `json:"track,omitempty"`
	StreamURL string        `json:"stream_url,omitempty"`
	Playing   bool          `json:"playing"`
	Quality   Quality       `json:"quality"`
	Lyrics    LyricDocument `json:"lyrics"`
}

// Playable reports whether the session holds a track with a usable stream URL.
func (s Session) Playable() bool {
	return s.Track != nil && s.StreamURL != ""
}

// IsCurrent reports whether the session's track has the given id.
func (s Session) IsCurrent(trackID string) bool {
	return s.Track != nil && s.Track.ID == trackID
}
