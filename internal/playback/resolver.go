package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/clmusic/internal/lyrics"
	"github.com/desertthunder/clmusic/internal/models"
	"github.com/desertthunder/clmusic/internal/services"
	"github.com/desertthunder/clmusic/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Upstream is the part of [services.Aggregator] resolution needs.
type Upstream interface {
	StreamURL(ctx context.Context, source models.Source, id string, quality models.Quality) (*services.StreamInfo, error)
	Lyric(ctx context.Context, source models.Source, lyricID string) (*services.LyricResult, error)
}

// SessionObserver receives a copy of the session after every change.
type SessionObserver func(models.Session)

// Resolver owns the single playback session (ResolutionService).
type Resolver struct {
	mu       sync.Mutex
	upstream Upstream
	player   Player
	sync     *Sync
	timeout  time.Duration
	logger   *log.Logger
	observer SessionObserver

	session models.Session
	seq     uint64
	cancel  context.CancelFunc
}

// ResolverOpts configures a [Resolver]. Zero values select defaults.
type ResolverOpts struct {
	Player   Player
	Sync     *Sync
	Timeout  time.Duration // bounds one whole resolution, 0 disables
	Logger   *log.Logger
	Observer SessionObserver
}

// NewResolver creates a resolver with an empty session.
func NewResolver(upstream Upstream, opts ResolverOpts) *Resolver {
	if opts.Player == nil {
		opts.Player = NopPlayer{}
	}
	if opts.Sync == nil {
		opts.Sync = NewSync(SyncOpts{})
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	return &Resolver{
		upstream: upstream,
		player:   opts.Player,
		sync:     opts.Sync,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		observer: opts.Observer,
		session:  models.Session{Quality: models.DefaultQuality},
	}
}

// Session returns a copy of the current session.
func (r *Resolver) Session() models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// SetObserver replaces the session observer. fn runs with the resolver locked and must not call back into it.
func (r *Resolver) SetObserver(fn SessionObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = fn
}

// Sync returns the lyric sync controller the resolver resets on each switch.
func (r *Resolver) Sync() *Sync {
	return r.sync
}

// PlayOrToggle toggles playback when track is the current, playable track; otherwise it switches to track.
//
// Selecting the current track while it has no stream URL (a switch pending or failed) resolves it
// again instead of toggling.
//
// A switch blocks until both the stream URL and lyrics resolve. On failure the session is left
// without a stream URL and not playing, and the error wraps [shared.ErrResolutionFailed]. A switch
// overtaken by a newer one returns [shared.ErrSuperseded] and changes nothing.
func (r *Resolver) PlayOrToggle(ctx context.Context, track models.Track, quality models.Quality) error {
	r.mu.Lock()
	if r.session.IsCurrent(track.ID) && r.session.Playable() {
		r.session.Playing = !r.session.Playing
		r.player.SetPlaying(r.session.Playing)
		r.logger.Debug("toggled playback", "track", track.Display(), "playing", r.session.Playing)
		r.publish()
		r.mu.Unlock()
		return nil
	}

	seq, rctx := r.begin(ctx)
	r.mu.Unlock()

	return r.resolve(rctx, seq, track, quality)
}

// begin must be called with r.mu held. It supersedes any in-flight switch and clears the playable state.
func (r *Resolver) begin(ctx context.Context) (uint64, context.Context) {
	if r.cancel != nil {
		r.cancel()
	}
	r.seq++

	var rctx context.Context
	if r.timeout > 0 {
		rctx, r.cancel = context.WithTimeout(ctx, r.timeout)
	} else {
		rctx, r.cancel = context.WithCancel(ctx)
	}

	r.session.Seq = r.seq
	r.session.Playing = false
	r.session.StreamURL = ""
	r.session.Lyrics = models.LyricDocument{}
	r.player.Stop()
	r.sync.Reset(r.session.Lyrics)
	r.publish()

	return r.seq, rctx
}

func (r *Resolver) resolve(ctx context.Context, seq uint64, track models.Track, quality models.Quality) error {
	lyricID := track.LyricID
	if lyricID == "" {
		lyricID = track.ID
	}

	var (
		stream *services.StreamInfo
		lyric  *services.LyricResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info, err := r.upstream.StreamURL(gctx, track.Source, track.ID, quality)
		if err != nil {
			return fmt.Errorf("stream url: %w", err)
		}
		stream = info
		return nil
	})
	g.Go(func() error {
		res, err := r.upstream.Lyric(gctx, track.Source, lyricID)
		if err != nil {
			return fmt.Errorf("lyric: %w", err)
		}
		lyric = res
		return nil
	})
	err := g.Wait()

	var url string
	if err == nil {
		url = shared.StripEscapes(stream.URL)
		if url == "" {
			err = shared.ErrEmptyURL
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if seq != r.seq {
		r.logger.Debug("discarding stale resolution", "track", track.Display(), "seq", seq, "latest", r.seq)
		return fmt.Errorf("%w: %s", shared.ErrSuperseded, track.Display())
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}

	if err != nil {
		r.session.Playing = false
		r.session.StreamURL = ""
		r.publish()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", shared.ErrTimeout, err)
		}
		r.logger.Warn("track unavailable", "track", track.Display(), "err", err)
		return fmt.Errorf("%w: %s: %w", shared.ErrResolutionFailed, track.Display(), err)
	}

	doc := lyrics.ParseDocument(lyric.Lyric, lyric.Translated)
	if !doc.Aligned() {
		r.logger.Warn("translated lyrics do not line up", "track", track.Display(),
			"lines", len(doc.Primary), "translated", len(doc.Translated))
	}

	current := track
	r.session = models.Session{
		ID:        shared.GenerateID(),
		Seq:       seq,
		Track:     &current,
		StreamURL: url,
		Playing:   true,
		Quality:   quality,
		Lyrics:    doc,
	}
	r.sync.Reset(doc)
	r.player.Load(url)
	r.publish()

	r.logger.Info("now playing", "track", track.Display(), "quality", quality, "lyrics", doc.Len())
	return nil
}

// publish must be called with r.mu held.
func (r *Resolver) publish() {
	if r.observer != nil {
		r.observer(r.session)
	}
}
