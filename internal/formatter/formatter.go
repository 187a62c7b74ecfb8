// package formatter renders search results, lyrics and sessions as text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/clmusic/internal/models"
	"github.com/desertthunder/clmusic/internal/shared"
)

// Output formats accepted by [Tracks].
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// Tracks renders a result list in the named format; an empty format means text.
func Tracks(format string, tracks []models.Track) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return TracksToText(tracks), nil
	case FormatJSON:
		return toJSON(tracks)
	case FormatCSV:
		return TracksToCSV(tracks)
	case FormatMarkdown, "md":
		return TracksToMarkdown(tracks), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// TracksToCSV converts tracks to CSV with columns: ID, Source, Name, Artist, Album, PictureID, LyricID, Cover
func TracksToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Source", "Name", "Artist", "Album", "PictureID", "LyricID", "Cover"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			track.Source.String(),
			track.Name,
			track.Artist,
			track.Album,
			track.PictureID,
			track.LyricID,
			track.CoverURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// TracksToMarkdown renders tracks as a numbered Markdown list with cover thumbnails.
func TracksToMarkdown(tracks []models.Track) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("**Results**: %d\n\n", len(tracks)))
	for i, track := range tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		coverPart := ""
		if track.CoverURL != "" {
			coverPart = fmt.Sprintf(" ![cover](%s)", track.CoverURL)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s `%s:%s`%s\n",
			i+1, track.Artist, track.Name, albumPart, track.Source, track.ID, coverPart))
	}

	return buf.Bytes()
}

// TracksToText renders one numbered line per track.
func TracksToText(tracks []models.Track) []byte {
	var buf bytes.Buffer
	if len(tracks) == 0 {
		buf.WriteString("No results.\n")
		return buf.Bytes()
	}

	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%2d. %s [%s:%s]\n", i+1, track.Display(), track.Source, track.ID))
	}
	return buf.Bytes()
}

// Timestamp formats seconds as mm:ss.cc.
func Timestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	cs := int(math.Round(seconds * 100))
	return fmt.Sprintf("%02d:%02d.%02d", cs/6000, (cs/100)%60, cs%100)
}

// LyricsToText renders a document as LRC-style lines; translations follow their line, indented.
//
// When active is a valid index the line is marked with "> ".
func LyricsToText(doc models.LyricDocument, active int) []byte {
	var buf bytes.Buffer
	if doc.Empty() {
		buf.WriteString("No lyrics.\n")
		return buf.Bytes()
	}

	for i, line := range doc.Primary {
		marker := "  "
		if i == active {
			marker = "> "
		}
		buf.WriteString(fmt.Sprintf("%s[%s] %s\n", marker, Timestamp(line.Time), line.Text))
		if tr := doc.TranslationAt(i); tr != "" {
			buf.WriteString(fmt.Sprintf("%s           %s\n", marker, tr))
		}
	}
	return buf.Bytes()
}

// LyricsToJSON renders a document as indented JSON.
func LyricsToJSON(doc models.LyricDocument) ([]byte, error) {
	return toJSON(doc)
}

// SessionToText summarizes the playback session.
func SessionToText(s models.Session) []byte {
	var buf bytes.Buffer
	if s.Track == nil {
		buf.WriteString("Nothing playing.\n")
		return buf.Bytes()
	}

	state := "paused"
	switch {
	case s.StreamURL == "":
		state = "unavailable"
	case s.Playing:
		state = "playing"
	}

	buf.WriteString(fmt.Sprintf("Track:   %s\n", s.Track.Display()))
	buf.WriteString(fmt.Sprintf("Source:  %s\n", s.Track.Source))
	buf.WriteString(fmt.Sprintf("Quality: %s\n", s.Quality))
	buf.WriteString(fmt.Sprintf("State:   %s\n", state))
	if s.StreamURL != "" {
		buf.WriteString(fmt.Sprintf("Stream:  %s\n", s.StreamURL))
	}
	buf.WriteString(fmt.Sprintf("Lyrics:  %d lines\n", s.Lyrics.Len()))
	return buf.Bytes()
}

func toJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidArgument)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteCoverImage downloads url into path.
func WriteCoverImage(ctx context.Context, url, path string) error {
	data, err := DownloadImage(ctx, url)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save cover image: %w", err)
	}
	return nil
}
