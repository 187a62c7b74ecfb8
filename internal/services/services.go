// package services defines the [Aggregator] interface for the upstream music aggregator API
package services

import (
	"context"

	"github.com/desertthunder/clmusic/internal/models"
)

// Aggregator defines the four upstream operations the client depends on.
//
// Every method performs exactly one HTTP request and honors ctx cancellation.
type Aggregator interface {
	// Search returns tracks in the aggregator's relevance order.
	Search(ctx context.Context, params SearchParams) ([]models.Track, error)

	// Cover resolves the artwork URL for a picture id at the given pixel size.
	Cover(ctx context.Context, source models.Source, pictureID string, size int) (string, error)

	// StreamURL resolves a playable URL for a track at the given bitrate.
	StreamURL(ctx context.Context, source models.Source, id string, quality models.Quality) (*StreamInfo, error)

	// Lyric fetches the raw primary and translated lyric text for a lyric id.
	Lyric(ctx context.Context, source models.Source, lyricID string) (*LyricResult, error)
}

// SearchParams holds the query for a search request.
type SearchParams struct {
	Query  string
	Source models.Source
	Count  int
	Pages  int
}

// StreamInfo is the decoded stream URL response.
//
// URL is returned with escaping backslashes already stripped.
type StreamInfo struct {
	URL     string
	Size    int64 // bytes, 0 when the upstream omits it
	Bitrate int
}

// LyricResult is the decoded lyric response; either field may be empty.
type LyricResult struct {
	Lyric      string
	Translated string
}
