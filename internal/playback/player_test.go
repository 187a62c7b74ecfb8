package playback

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestClockPlayer(t *testing.T) {
	newPlayer := func() (*ClockPlayer, *fakeClock) {
		clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
		p := NewClockPlayer(time.Millisecond, nil)
		p.now = clock.Now
		return p, clock
	}

	t.Run("Load starts from zero", func(t *testing.T) {
		p, clock := newPlayer()
		p.Load("https://cdn.example/a.mp3")
		clock.Advance(3 * time.Second)

		if !p.Playing() {
			t.Error("expected playing after Load")
		}
		if got := p.Position(); got != 3*time.Second {
			t.Errorf("expected 3s, got %v", got)
		}

		p.Load("https://cdn.example/b.mp3")
		if got := p.Position(); got != 0 {
			t.Errorf("expected reload to reset position, got %v", got)
		}
	})

	t.Run("pause holds position", func(t *testing.T) {
		p, clock := newPlayer()
		p.Load("https://cdn.example/a.mp3")
		clock.Advance(2 * time.Second)
		p.SetPlaying(false)
		clock.Advance(5 * time.Second)

		if got := p.Position(); got != 2*time.Second {
			t.Errorf("expected 2s while paused, got %v", got)
		}

		p.SetPlaying(true)
		clock.Advance(time.Second)
		if got := p.Position(); got != 3*time.Second {
			t.Errorf("expected 3s after resume, got %v", got)
		}
	})

	t.Run("SetPlaying without url is ignored", func(t *testing.T) {
		p, _ := newPlayer()
		p.SetPlaying(true)
		if p.Playing() {
			t.Error("expected player to stay idle")
		}
	})

	t.Run("Stop unloads", func(t *testing.T) {
		p, clock := newPlayer()
		p.Load("https://cdn.example/a.mp3")
		clock.Advance(time.Second)
		p.Stop()

		if p.URL() != "" || p.Playing() || p.Position() != 0 {
			t.Errorf("expected stopped player, got url=%q playing=%v pos=%v", p.URL(), p.Playing(), p.Position())
		}
	})

	t.Run("Seek", func(t *testing.T) {
		p, _ := newPlayer()
		p.Load("https://cdn.example/a.mp3")
		p.Seek(65 * time.Second)
		if got := p.Position(); got != 65*time.Second {
			t.Errorf("expected 65s, got %v", got)
		}
		p.Seek(-time.Second)
		if got := p.Position(); got != 0 {
			t.Errorf("expected negative seek to clamp to 0, got %v", got)
		}
	})

	t.Run("Run reports progress while playing", func(t *testing.T) {
		var calls atomic.Int32
		p := NewClockPlayer(time.Millisecond, func(float64) { calls.Add(1) })

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			p.Run(ctx)
			close(done)
		}()

		time.Sleep(10 * time.Millisecond)
		if calls.Load() != 0 {
			t.Errorf("expected no progress while idle, got %d", calls.Load())
		}

		p.Load("https://cdn.example/a.mp3")
		waitFor(t, func() bool { return calls.Load() > 2 })

		cancel()
		<-done
	})

	t.Run("drives sync", func(t *testing.T) {
		p, clock := newPlayer()
		s, _, _ := newTestSync(-1)
		p.SetProgress(s.OnProgress)

		p.Load("https://cdn.example/a.mp3")
		clock.Advance(13 * time.Second)
		p.emit()

		if s.Index() != 0 {
			t.Errorf("expected index 0, got %d", s.Index())
		}
	})
}
