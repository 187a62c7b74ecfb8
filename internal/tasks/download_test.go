package tasks

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/clmusic/internal/models"
	"github.com/desertthunder/clmusic/internal/services"
	"github.com/desertthunder/clmusic/internal/shared"
)

type fakeStreams struct {
	url   string
	err   error
	calls int
}

func (f *fakeStreams) StreamURL(context.Context, models.Source, string, models.Quality) (*services.StreamInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &services.StreamInfo{URL: f.url}, nil
}

func TestInferExtension(t *testing.T) {
	tc := []struct {
		name string
		url  string
		want string
	}{
		{"query string", "https://h/x/song.flac?token=1", "flac"},
		{"plain", "https://h/a.mp3", "mp3"},
		{"fragment", "https://h/a.m4a#t=10", "m4a"},
		{"no extension", "https://h/stream", "audio"},
		{"dot in directory only", "https://h/v1.2/stream", "audio"},
		{"uppercase", "https://h/A.MP3", "MP3"},
		{"unparsable", "://bad url", "audio"},
		{"empty", "", "audio"},
		{"trailing dot", "https://h/a.", "audio"},
		{"trailing slash", "https://cdn.example.com/x/song.mp3/", "audio"},
		{"relative path", "song.flac", "audio"},
		{"no host", "file:///tmp/song.flac", "audio"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferExtension(tt.url); got != tt.want {
				t.Errorf("InferExtension(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestDownloadService(t *testing.T) {
	ctx := context.Background()
	track := models.Track{ID: "1", Source: models.SourceNetease, Name: "Song", Artist: "Artist"}

	t.Run("Download builds the save action", func(t *testing.T) {
		streams := &fakeStreams{url: `https:\/\/h\/x\/song.flac?token=1`}
		svc := NewDownloadService(streams, DownloadOpts{})

		action, err := svc.Download(ctx, track, models.Quality999, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if action.URL != "https://h/x/song.flac?token=1" {
			t.Errorf("unexpected url %q", action.URL)
		}
		if action.Filename != "Song - Artist.flac" {
			t.Errorf("unexpected filename %q", action.Filename)
		}
	})

	t.Run("Download always re-fetches", func(t *testing.T) {
		streams := &fakeStreams{url: "https://h/a.mp3"}
		svc := NewDownloadService(streams, DownloadOpts{})
		_, _ = svc.Download(ctx, track, models.Quality320, nil)
		_, _ = svc.Download(ctx, track, models.Quality320, nil)
		if streams.calls != 2 {
			t.Errorf("expected 2 upstream calls, got %d", streams.calls)
		}
	})

	t.Run("Download failure", func(t *testing.T) {
		svc := NewDownloadService(&fakeStreams{err: errors.New("boom")}, DownloadOpts{})
		if _, err := svc.Download(ctx, track, models.Quality999, nil); !errors.Is(err, shared.ErrDownloadFailed) {
			t.Errorf("expected ErrDownloadFailed, got %v", err)
		}
	})

	t.Run("Download empty url", func(t *testing.T) {
		svc := NewDownloadService(&fakeStreams{}, DownloadOpts{})
		_, err := svc.Download(ctx, track, models.Quality999, nil)
		if !errors.Is(err, shared.ErrDownloadFailed) || !errors.Is(err, shared.ErrEmptyURL) {
			t.Errorf("expected empty url download failure, got %v", err)
		}
	})

	t.Run("Save streams file to disk", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("User-Agent") != "clm-test" {
				t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
			}
			w.Write([]byte("ID3 fake audio"))
		}))
		defer server.Close()

		dir := t.TempDir()
		svc := NewDownloadService(&fakeStreams{}, DownloadOpts{UserAgent: "clm-test"})
		progress := make(chan ProgressUpdate, 8)

		path, err := svc.Save(ctx, SaveAction{URL: server.URL + "/a.mp3", Filename: "AC/DC - Back: In Black.mp3"}, dir, progress)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if filepath.Base(path) != "AC_DC - Back_ In Black.mp3" {
			t.Errorf("unexpected file name %q", filepath.Base(path))
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read saved file: %v", err)
		}
		if string(data) != "ID3 fake audio" {
			t.Errorf("unexpected content %q", data)
		}
		if len(progress) == 0 {
			t.Error("expected progress updates")
		}
	})

	t.Run("Save non-2xx leaves nothing behind", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		dir := t.TempDir()
		svc := NewDownloadService(&fakeStreams{}, DownloadOpts{})

		_, err := svc.Save(ctx, SaveAction{URL: server.URL, Filename: "a.mp3"}, dir, nil)
		if !errors.Is(err, shared.ErrDownloadFailed) {
			t.Fatalf("expected ErrDownloadFailed, got %v", err)
		}

		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("expected empty dir, got %d entries", len(entries))
		}
	})

	t.Run("Save unreachable host", func(t *testing.T) {
		svc := NewDownloadService(&fakeStreams{}, DownloadOpts{})
		_, err := svc.Save(ctx, SaveAction{URL: "http://127.0.0.1:1/a.mp3", Filename: "a.mp3"}, t.TempDir(), nil)
		if !errors.Is(err, shared.ErrDownloadFailed) {
			t.Errorf("expected ErrDownloadFailed, got %v", err)
		}
	})
}
