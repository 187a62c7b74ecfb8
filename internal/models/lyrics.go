package models

// LyricLine is one timestamped line of a lyric document.
type LyricLine struct {
	Time float64 `json:"time"` // seconds from track start
	Text string  `json:"text"`
}

// LyricDocument pairs the primary lyric lines with an optional translation.
//
// Translated lines are matched to primary lines by position, not by timestamp.
type LyricDocument struct {
	Primary    []LyricLine `json:"primary"`
	Translated []LyricLine `json:"translated,omitempty"`
}

// Empty reports whether the document has no primary lines.
func (d LyricDocument) Empty() bool {
	return len(d.Primary) == 0
}

// Len returns the number of primary lines.
func (d LyricDocument) Len() int {
	return len(d.Primary)
}

// Line returns the primary line at index i, or false when i is out of range.
func (d LyricDocument) Line(i int) (LyricLine, bool) {
	if i < 0 || i >= len(d.Primary) {
		return LyricLine{}, false
	}
	return d.Primary[i], true
}

// TranslationAt returns the translated text positioned at index i, or "" when there is none.
func (d LyricDocument) TranslationAt(i int) string {
	if i < 0 || i >= len(d.Translated) {
		return ""
	}
	return d.Translated[i].Text
}

// Aligned reports whether positional pairing is safe, i.e. there is no translation or both sides have the same line count.
func (d LyricDocument) Aligned() bool {
	return len(d.Translated) == 0 || len(d.Translated) == len(d.Primary)
}
