package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Source identifies one of the upstream catalogs the aggregator can query.
type Source string

const (
	SourceNetease  Source = "netease"
	SourceTencent  Source = "tencent"
	SourceTidal    Source = "tidal"
	SourceSpotify  Source = "spotify"
	SourceYTMusic  Source = "ytmusic"
	SourceQobuz    Source = "qobuz"
	SourceJoox     Source = "joox"
	SourceDeezer   Source = "deezer"
	SourceMigu     Source = "migu"
	SourceKugou    Source = "kugou"
	SourceKuwo     Source = "kuwo"
	SourceXimalaya Source = "ximalaya"
)

// Sources lists every backend in the order the client presents them.
var Sources = []Source{
	SourceNetease, SourceTencent, SourceTidal, SourceSpotify,
	SourceYTMusic, SourceQobuz, SourceJoox, SourceDeezer,
	SourceMigu, SourceKugou, SourceKuwo, SourceXimalaya,
}

// ParseSource validates a backend identifier.
func ParseSource(s string) (Source, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, src := range Sources {
		if string(src) == s {
			return src, true
		}
	}
	return "", false
}

func (s Source) String() string { return string(s) }

// Quality is the bitrate selector passed as `br` to stream URL resolution.
type Quality int

const (
	Quality128 Quality = 128
	Quality192 Quality = 192
	Quality320 Quality = 320
	Quality740 Quality = 740
	Quality999 Quality = 999

	DefaultQuality = Quality999
)

// Qualities lists the accepted bitrates in ascending order.
var Qualities = []Quality{Quality128, Quality192, Quality320, Quality740, Quality999}

// ParseQuality validates a bitrate given as "320" or "320k".
func ParseQuality(s string) (Quality, bool) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "k")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	for _, q := range Qualities {
		if int(q) == n {
			return q, true
		}
	}
	return 0, false
}

func (q Quality) String() string { return strconv.Itoa(int(q)) }

// Track represents a single search result (TrackDescriptor).
//
// Tracks are treated as immutable; [Track.WithCover] returns a decorated copy.
type Track struct {
	ID        string `json:"id"`
	Source    Source `json:"source"`
	Name      string `json:"name"`
	Artist    string `json:"artist"`
	Album     string `json:"album"`
	PictureID string `json:"pic_id"`
	LyricID   string `json:"lyric_id"`
	CoverURL  string `json:"cover_url,omitempty"`
}

// WithCover returns a copy of the track decorated with the given cover URL.
func (t Track) WithCover(url string) Track {
	t.CoverURL = url
	return t
}

// Display is used for log lines and prompts.
func (t Track) Display() string {
	if t.Artist == "" {
		return t.Name
	}
	return t.Name + " - " + t.Artist
}

// UnmarshalJSON accepts ids as numbers or strings and artists as a string or a list of names.
func (t *Track) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        flexString      `json:"id"`
		Source    string          `json:"source"`
		Name      string          `json:"name"`
		Artist    json.RawMessage `json:"artist"`
		Album     string          `json:"album"`
		PictureID flexString      `json:"pic_id"`
		LyricID   flexString      `json:"lyric_id"`
		CoverURL  string          `json:"cover_url"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	artist, err := decodeArtist(raw.Artist)
	if err != nil {
		return fmt.Errorf("invalid artist field: %w", err)
	}

	*t = Track{
		ID:        string(raw.ID),
		Source:    Source(raw.Source),
		Name:      raw.Name,
		Artist:    artist,
		Album:     raw.Album,
		PictureID: string(raw.PictureID),
		LyricID:   string(raw.LyricID),
		CoverURL:  raw.CoverURL,
	}
	return nil
}

func decodeArtist(data json.RawMessage) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '[' {
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return "", err
		}
		return strings.Join(names, ", "), nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return "", err
	}
	return name, nil
}

// flexString decodes a JSON string or number into its string form.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
