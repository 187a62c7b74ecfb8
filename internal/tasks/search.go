package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/clmusic/internal/models"
	"github.com/desertthunder/clmusic/internal/services"
	"github.com/desertthunder/clmusic/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultCount     = 20
	DefaultPages     = 1
	DefaultWorkers   = 5
	DefaultRateLimit = 10.0
	maxWorkers       = 10
)

// Searcher is the search half of [services.Aggregator].
type Searcher interface {
	Search(ctx context.Context, p services.SearchParams) ([]models.Track, error)
}

// CoverResolver returns a displayable cover URL, falling back to a placeholder.
type CoverResolver interface {
	Resolve(ctx context.Context, source models.Source, pictureID string, size int) string
}

// Query is one search request.
type Query struct {
	Text   string
	Source string
	Count  int
	Pages  int
}

// SearchOpts configures a [SearchService]. Zero values select defaults.
type SearchOpts struct {
	Workers   int     // concurrent cover lookups (default: 5, max: 10)
	RateLimit float64 // cover lookups per second (default: 10)
	CoverSize int     // 0 lets the cover cache pick its default
	Logger    *log.Logger
}

// SearchService runs catalog searches and holds the latest result list (QueryService).
type SearchService struct {
	searcher Searcher
	covers   CoverResolver
	opts     SearchOpts
	logger   *log.Logger

	seq     atomic.Uint64
	mu      sync.RWMutex
	results []models.Track
}

// NewSearchService creates a search service. covers may be nil, in which case results are not decorated.
func NewSearchService(searcher Searcher, covers CoverResolver, opts SearchOpts) *SearchService {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Workers > maxWorkers {
		opts.Workers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &SearchService{searcher: searcher, covers: covers, opts: opts, logger: opts.Logger}
}

// Results returns a copy of the latest result list.
func (s *SearchService) Results() []models.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Track, len(s.results))
	copy(out, s.results)
	return out
}

// Search queries the aggregator and replaces the held results.
//
// A blank query is a no-op returning the current results. On failure the held results are
// left untouched and the error wraps [shared.ErrSearchFailed]. Results keep the upstream order.
func (s *SearchService) Search(ctx context.Context, q Query, progress chan<- ProgressUpdate) ([]models.Track, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return s.Results(), nil
	}

	source, ok := models.ParseSource(q.Source)
	if !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidSource, q.Source)
	}
	if q.Count <= 0 {
		q.Count = DefaultCount
	}
	if q.Pages <= 0 {
		q.Pages = DefaultPages
	}

	seq := s.seq.Add(1)
	sendProgress(progress, searchingUpdate(text, source))

	tracks, err := s.searcher.Search(ctx, services.SearchParams{
		Query:  text,
		Source: source,
		Count:  q.Count,
		Pages:  q.Pages,
	})
	if err != nil {
		s.logger.Warn("search failed", "query", text, "source", source, "err", err)
		return nil, fmt.Errorf("%w: %w", shared.ErrSearchFailed, err)
	}

	tracks, err = s.decorate(ctx, tracks, progress)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrSearchFailed, err)
	}

	s.mu.Lock()
	if seq == s.seq.Load() {
		s.results = tracks
	}
	s.mu.Unlock()

	s.logger.Debug("search complete", "query", text, "source", source, "results", len(tracks))
	out := make([]models.Track, len(tracks))
	copy(out, tracks)
	return out, nil
}

// decorate returns copies of tracks with CoverURL filled; tracks itself is left as received.
// Only cancellation of ctx is an error.
func (s *SearchService) decorate(ctx context.Context, tracks []models.Track, progress chan<- ProgressUpdate) ([]models.Track, error) {
	if s.covers == nil || len(tracks) == 0 {
		return tracks, nil
	}

	limiter := rate.NewLimiter(rate.Limit(s.opts.RateLimit), s.opts.Workers)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	var done atomic.Int32
	total := len(tracks)
	decorated := make([]models.Track, total)
	for i := range tracks {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			tr := tracks[i]
			decorated[i] = tr.WithCover(s.covers.Resolve(gctx, tr.Source, tr.PictureID, s.opts.CoverSize))
			sendProgress(progress, coverUpdate(int(done.Add(1)), total, &decorated[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return decorated, nil
}
