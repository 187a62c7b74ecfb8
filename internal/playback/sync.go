package playback

import (
	"sync"
	"time"

	"github.com/desertthunder/clmusic/internal/lyrics"
	"github.com/desertthunder/clmusic/internal/models"
	"golang.org/x/time/rate"
)

// DefaultThrottle is the minimum spacing between applied progress events.
const DefaultThrottle = 500 * time.Millisecond

// IndexObserver receives the active lyric index whenever it changes.
type IndexObserver func(index int)

// Sync maps playback positions to the active lyric line (PlaybackSyncController).
type Sync struct {
	mu       sync.Mutex
	interval time.Duration
	limiter  *rate.Limiter
	now      func() time.Time
	lines    []models.LyricLine
	index    int
	observer IndexObserver
}

// SyncOpts configures a [Sync].
type SyncOpts struct {
	Throttle time.Duration // 0 selects [DefaultThrottle], negative disables throttling
	Now      func() time.Time
	Observer IndexObserver
}

// NewSync creates a controller with no lyrics loaded.
func NewSync(opts SyncOpts) *Sync {
	if opts.Throttle == 0 {
		opts.Throttle = DefaultThrottle
	}
	if opts.Throttle < 0 {
		opts.Throttle = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Sync{
		interval: opts.Throttle,
		limiter:  newThrottle(opts.Throttle),
		now:      opts.Now,
		index:    -1,
		observer: opts.Observer,
	}
}

// newThrottle admits one event, then one more per interval; refused events do not consume tokens.
func newThrottle(interval time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(interval), 1)
}

// SetObserver replaces the index observer.
func (s *Sync) SetObserver(fn IndexObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

// Reset installs a new lyric document, clears the active index and reopens the throttle window.
func (s *Sync) Reset(doc models.LyricDocument) {
	s.mu.Lock()
	s.lines = doc.Primary
	s.limiter = newThrottle(s.interval)
	notify := s.set(-1)
	s.mu.Unlock()

	notify()
}

// OnProgress handles one position event from the media player.
func (s *Sync) OnProgress(seconds float64) {
	s.mu.Lock()
	if !s.limiter.AllowN(s.now(), 1) {
		s.mu.Unlock()
		return
	}
	notify := s.set(lyrics.Index(s.lines, seconds))
	s.mu.Unlock()

	notify()
}

// Index returns the active lyric index, -1 when no line is active.
func (s *Sync) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// set must be called with s.mu held; the returned func delivers the notification after unlocking.
func (s *Sync) set(index int) func() {
	if index == s.index {
		return func() {}
	}
	s.index = index

	observer := s.observer
	if observer == nil {
		return func() {}
	}
	return func() { observer(index) }
}
