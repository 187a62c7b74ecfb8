package playback

import (
	"context"
	"sync"
	"time"
)

// Player is the media-playback collaborator.
//
// Implementations must not block and must not call back into the [Resolver] from these methods.
type Player interface {
	Load(url string) // start playing url from the beginning
	SetPlaying(playing bool)
	Stop()
}

// ProgressFunc receives the playback position in seconds.
type ProgressFunc func(seconds float64)

// NopPlayer ignores every call.
type NopPlayer struct{}

func (NopPlayer) Load(string)     {}
func (NopPlayer) SetPlaying(bool) {}
func (NopPlayer) Stop()           {}

// ClockPlayer stands in for a media player by advancing a position from the wall clock.
//
// Positions are reported on every tick while a URL is loaded and playing.
type ClockPlayer struct {
	mu         sync.Mutex
	url        string
	playing    bool
	position   time.Duration
	last       time.Time
	tick       time.Duration
	now        func() time.Time
	onProgress ProgressFunc
}

// NewClockPlayer creates a player that reports to onProgress every tick.
func NewClockPlayer(tick time.Duration, onProgress ProgressFunc) *ClockPlayer {
	if tick <= 0 {
		tick = 250 * time.Millisecond
	}
	return &ClockPlayer{
		tick:       tick,
		now:        time.Now,
		onProgress: onProgress,
	}
}

// SetProgress replaces the progress callback.
func (p *ClockPlayer) SetProgress(fn ProgressFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onProgress = fn
}

func (p *ClockPlayer) Load(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	p.position = 0
	p.playing = url != ""
	p.last = p.now()
}

func (p *ClockPlayer) SetPlaying(playing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.url == "" {
		return
	}
	if playing && !p.playing {
		p.last = p.now()
	}
	if !playing && p.playing {
		p.advance()
	}
	p.playing = playing
}

func (p *ClockPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = ""
	p.playing = false
	p.position = 0
}

// URL returns the loaded URL.
func (p *ClockPlayer) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Playing reports whether the player is advancing.
func (p *ClockPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Position returns the current position.
func (p *ClockPlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		p.advance()
	}
	return p.position
}

// Seek moves the position to d.
func (p *ClockPlayer) Seek(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d < 0 {
		d = 0
	}
	p.position = d
	p.last = p.now()
}

// advance must be called with p.mu held.
func (p *ClockPlayer) advance() {
	now := p.now()
	p.position += now.Sub(p.last)
	p.last = now
}

// Run emits progress events until ctx is done.
func (p *ClockPlayer) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.emit()
		}
	}
}

func (p *ClockPlayer) emit() {
	p.mu.Lock()
	if !p.playing || p.onProgress == nil {
		p.mu.Unlock()
		return
	}
	p.advance()
	seconds := p.position.Seconds()
	fn := p.onProgress
	p.mu.Unlock()

	fn(seconds)
}
