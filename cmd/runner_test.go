package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/clmusic/internal/models"
	"github.com/desertthunder/clmusic/internal/shared"
	th "github.com/desertthunder/clmusic/internal/testing"
	"github.com/urfave/cli/v3"
)

// newTestRunner serves agg over HTTP and points a runner at it.
func newTestRunner(t *testing.T, agg *th.MockAggregator) (*Runner, *bytes.Buffer) {
	t.Helper()
	srv := th.NewAggregatorServer(t, agg)

	config := shared.DefaultConfig()
	config.API.BaseURL = srv.URL
	config.API.Timeout = 2 * time.Second
	config.Player.Throttle = -1
	config.Player.Tick = 5 * time.Millisecond
	config.Download.Dir = t.TempDir()

	output := &bytes.Buffer{}
	runner, err := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
	})
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	t.Cleanup(func() { runner.Close() })
	return runner, output
}

func run(r *Runner, args ...string) error {
	app := &cli.Command{Name: "clm", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"clm"}, args...))
}

func testAggregator() *th.MockAggregator {
	agg := th.NewMockAggregator()
	agg.Tracks = []models.Track{
		{ID: "186016", Name: "Hello", Artist: "Adele", Album: "25", PictureID: "p1", LyricID: "186016"},
		{ID: "186017", Name: "Skyfall", Artist: "Adele", PictureID: "p2"},
	}
	agg.Streams["186016"] = "https://cdn.example/hello.mp3?vkey=abc"
	agg.Lyrics["186016"] = "[00:00.01]Hello\n[00:00.05]It's me"
	agg.Covers["p1"] = "https://img.example/p1.jpg"
	return agg
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner, err := NewRunner(RunnerOpts{})
			if err != nil {
				t.Fatalf("NewRunner() error = %v", err)
			}
			defer runner.Close()

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected default http client")
			}
			if runner.client == nil {
				t.Error("expected aggregator client built from config")
			}
			if runner.db != nil {
				t.Error("memory cache should not open a database")
			}
		})

		t.Run("with injected aggregator skips the HTTP client", func(t *testing.T) {
			agg := th.NewMockAggregator()
			runner, err := NewRunner(RunnerOpts{Aggregator: agg})
			if err != nil {
				t.Fatalf("NewRunner() error = %v", err)
			}

			if runner.client != nil {
				t.Error("expected no HTTP client")
			}
			if runner.aggregator != agg {
				t.Error("expected injected aggregator")
			}
		})

		t.Run("with sqlite cache opens and migrates the database", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Cache.Driver = "sqlite"
			config.Cache.Path = shared.MemoryDSN

			runner, err := NewRunner(RunnerOpts{Config: config, Aggregator: th.NewMockAggregator()})
			if err != nil {
				t.Fatalf("NewRunner() error = %v", err)
			}
			if runner.db == nil {
				t.Fatal("expected database to be opened")
			}
			if err := runner.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner, _ := NewRunner(RunnerOpts{ConfigPath: "/tmp/clm.toml", Aggregator: th.NewMockAggregator()})
			if runner.configPath != "/tmp/clm.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner, _ := NewRunner(RunnerOpts{Output: output, Aggregator: th.NewMockAggregator()})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if output.String() != "{\n  \"key\": \"value\"\n}\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner, _ := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Aggregator: th.NewMockAggregator()})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner, _ := NewRunner(RunnerOpts{Output: th.FailingWriter{}, Aggregator: th.NewMockAggregator()})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			output := th.NewLimitedWriter(1, &bytes.Buffer{})
			runner, _ := NewRunner(RunnerOpts{Output: output, Aggregator: th.NewMockAggregator()})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner, _ := NewRunner(RunnerOpts{Aggregator: th.NewMockAggregator()})

		names := map[string]bool{}
		for _, cmd := range runner.register() {
			names[cmd.Name] = true
		}
		for _, want := range []string{"search", "play", "lyrics", "cover", "download", "api", "proxy", "tui", "config"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})
}

func TestSearchCommand(t *testing.T) {
	t.Run("prints numbered results", func(t *testing.T) {
		runner, output := newTestRunner(t, testAggregator())

		if err := run(runner, "search", "hello", "adele"); err != nil {
			t.Fatalf("search error = %v", err)
		}
		got := output.String()
		if !strings.Contains(got, " 1. Hello - Adele [netease:186016]") {
			t.Errorf("missing first result in %q", got)
		}
		if !strings.Contains(got, " 2. Skyfall - Adele") {
			t.Errorf("missing second result in %q", got)
		}
	})

	t.Run("renders csv", func(t *testing.T) {
		runner, output := newTestRunner(t, testAggregator())

		if err := run(runner, "search", "--format", "csv", "hello"); err != nil {
			t.Fatalf("search error = %v", err)
		}
		if !strings.HasPrefix(output.String(), "ID,Source,Name,Artist,Album,PictureID,LyricID,Cover") {
			t.Errorf("unexpected csv %q", output.String())
		}
	})

	t.Run("requires a query", func(t *testing.T) {
		runner, _ := newTestRunner(t, testAggregator())

		if err := run(runner, "search"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("rejects unknown sources", func(t *testing.T) {
		runner, _ := newTestRunner(t, testAggregator())

		if err := run(runner, "search", "--source", "napster", "hello"); !errors.Is(err, shared.ErrInvalidSource) {
			t.Errorf("expected ErrInvalidSource, got %v", err)
		}
	})

	t.Run("upstream failure is a search failure", func(t *testing.T) {
		agg := testAggregator()
		agg.Err = errors.New("boom")
		runner, _ := newTestRunner(t, agg)

		if err := run(runner, "search", "hello"); !errors.Is(err, shared.ErrSearchFailed) {
			t.Errorf("expected ErrSearchFailed, got %v", err)
		}
	})
}

func TestPlayCommand(t *testing.T) {
	t.Run("resolves by id and prints the session", func(t *testing.T) {
		runner, output := newTestRunner(t, testAggregator())

		if err := run(runner, "play", "--name", "Hello", "--artist", "Adele", "186016"); err != nil {
			t.Fatalf("play error = %v", err)
		}
		got := output.String()
		for _, want := range []string{
			"Track:   Hello - Adele",
			"State:   playing",
			"Stream:  https://cdn.example/hello.mp3?vkey=abc",
			"Lyrics:  2 lines",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("expected %q in %q", want, got)
			}
		}
	})

	t.Run("picks a search result", func(t *testing.T) {
		runner, output := newTestRunner(t, testAggregator())

		if err := run(runner, "play", "--query", "adele", "--pick", "1"); err != nil {
			t.Fatalf("play error = %v", err)
		}
		if !strings.Contains(output.String(), "Track:   Hello - Adele") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("pick out of range", func(t *testing.T) {
		runner, _ := newTestRunner(t, testAggregator())

		if err := run(runner, "play", "--query", "adele", "--pick", "5"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("missing stream is a resolution failure", func(t *testing.T) {
		runner, _ := newTestRunner(t, testAggregator())

		err := run(runner, "play", "186017")
		if !errors.Is(err, shared.ErrResolutionFailed) {
			t.Errorf("expected ErrResolutionFailed, got %v", err)
		}
		if runner.resolver.Session().Playable() {
			t.Error("session should not be playable")
		}
	})

	t.Run("invalid quality", func(t *testing.T) {
		runner, _ := newTestRunner(t, testAggregator())

		if err := run(runner, "play", "--quality", "64", "186016"); !errors.Is(err, shared.ErrInvalidQuality) {
			t.Errorf("expected ErrInvalidQuality, got %v", err)
		}
	})

	t.Run("follow prints lines until the last one", func(t *testing.T) {
		runner, output := newTestRunner(t, testAggregator())

		if err := run(runner, "play", "--follow", "--duration", "5s", "186016"); err != nil {
			t.Fatalf("play error = %v", err)
		}
		got := output.String()
		if !strings.Contains(got, "[00:00.01] Hello") || !strings.Contains(got, "[00:00.05] It's me") {
			t.Errorf("expected both lyric lines in %q", got)
		}
	})
}

func TestLyricsCommand(t *testing.T) {
	t.Run("marks the active line", func(t *testing.T) {
		runner, output := newTestRunner(t, testAggregator())

		if err := run(runner, "lyrics", "--at", "30ms", "186016"); err != nil {
			t.Fatalf("lyrics error = %v", err)
		}
		want := "> [00:00.01] Hello\n  [00:00.05] It's me\n"
		if output.String() != want {
			t.Errorf("got %q, want %q", output.String(), want)
		}
	})

	t.Run("renders json", func(t *testing.T) {
		runner, output := newTestRunner(t, testAggregator())

		if err := run(runner, "lyrics", "--format", "json", "186016"); err != nil {
			t.Fatalf("lyrics error = %v", err)
		}
		if !strings.Contains(output.String(), `"text": "It's me"`) {
			t.Errorf("unexpected json %q", output.String())
		}
	})

	t.Run("no lyrics", func(t *testing.T) {
		runner, output := newTestRunner(t, testAggregator())

		if err := run(runner, "lyrics", "186017"); err != nil {
			t.Fatalf("lyrics error = %v", err)
		}
		if output.String() != "No lyrics.\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}

func TestCoverCommand(t *testing.T) {
	t.Run("prints the cover url and caches it", func(t *testing.T) {
		agg := testAggregator()
		runner, output := newTestRunner(t, agg)

		for range 2 {
			if err := run(runner, "cover", "p1"); err != nil {
				t.Fatalf("cover error = %v", err)
			}
		}
		if output.String() != "https://img.example/p1.jpg\nhttps://img.example/p1.jpg\n" {
			t.Errorf("unexpected output %q", output.String())
		}
		if got := agg.CallCount("Cover"); got != 1 {
			t.Errorf("expected 1 upstream lookup, got %d", got)
		}
	})

	t.Run("falls back to the placeholder", func(t *testing.T) {
		agg := testAggregator()
		runner, output := newTestRunner(t, agg)

		for range 2 {
			if err := run(runner, "cover", "missing"); err != nil {
				t.Fatalf("cover error = %v", err)
			}
		}
		if output.String() != "default_cover.jpg\ndefault_cover.jpg\n" {
			t.Errorf("unexpected output %q", output.String())
		}
		if got := agg.CallCount("Cover"); got != 2 {
			t.Errorf("placeholder must not be cached, got %d lookups", got)
		}
	})

	t.Run("saves the image", func(t *testing.T) {
		img := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("jpeg-bytes"))
		}))
		defer img.Close()

		agg := testAggregator()
		agg.Covers["p9"] = img.URL + "/p9.jpg"
		runner, _ := newTestRunner(t, agg)

		path := filepath.Join(t.TempDir(), "cover.jpg")
		if err := run(runner, "cover", "--output", path, "p9"); err != nil {
			t.Fatalf("cover error = %v", err)
		}
		th.AssertFileExists(t, path)
		if got := th.MustReadFile(t, path); got != "jpeg-bytes" {
			t.Errorf("unexpected image contents %q", got)
		}
	})
}

func TestDownloadCommand(t *testing.T) {
	audio := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ID3-audio"))
	}))
	defer audio.Close()

	agg := testAggregator()
	agg.Streams["186016"] = audio.URL + "/files/hello.flac?sig=1"

	t.Run("url only prints the save action", func(t *testing.T) {
		runner, output := newTestRunner(t, agg)

		if err := run(runner, "download", "--url-only", "--name", "Hello", "--artist", "Adele", "186016"); err != nil {
			t.Fatalf("download error = %v", err)
		}
		if !strings.Contains(output.String(), "Hello - Adele.flac") {
			t.Errorf("expected filename in %q", output.String())
		}
	})

	t.Run("saves into the directory", func(t *testing.T) {
		runner, output := newTestRunner(t, agg)
		dir := t.TempDir()

		if err := run(runner, "download", "--dir", dir, "--name", "Hello", "--artist", "Adele", "186016"); err != nil {
			t.Fatalf("download error = %v", err)
		}
		path := filepath.Join(dir, "Hello - Adele.flac")
		th.AssertFileExists(t, path)
		if got := th.MustReadFile(t, path); got != "ID3-audio" {
			t.Errorf("unexpected contents %q", got)
		}
		if strings.TrimSpace(output.String()) != path {
			t.Errorf("expected saved path, got %q", output.String())
		}
	})

	t.Run("missing stream fails", func(t *testing.T) {
		runner, _ := newTestRunner(t, agg)

		if err := run(runner, "download", "186017"); !errors.Is(err, shared.ErrDownloadFailed) {
			t.Errorf("expected ErrDownloadFailed, got %v", err)
		}
	})
}

func TestAPICommand(t *testing.T) {
	t.Run("prints json responses", func(t *testing.T) {
		runner, output := newTestRunner(t, testAggregator())

		if err := run(runner, "api", "get", "--json", "types=pic&source=netease&id=p1"); err != nil {
			t.Fatalf("api get error = %v", err)
		}
		if strings.TrimSpace(output.String()) != `{"url":"https://img.example/p1.jpg"}` {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("non 2xx is an API error", func(t *testing.T) {
		runner, _ := newTestRunner(t, testAggregator())

		if err := run(runner, "api", "get", "types=bogus"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("requires a query", func(t *testing.T) {
		runner, _ := newTestRunner(t, testAggregator())

		if err := run(runner, "api", "get"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestConfigCommand(t *testing.T) {
	t.Run("init writes once", func(t *testing.T) {
		runner, _ := newTestRunner(t, testAggregator())
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := run(runner, "config", "init", "--path", path); err != nil {
			t.Fatalf("config init error = %v", err)
		}
		th.AssertFileExists(t, path)
		if _, err := shared.LoadConfig(path); err != nil {
			t.Errorf("written config does not load: %v", err)
		}
		if err := run(runner, "config", "init", "--path", path); err == nil {
			t.Error("expected error when the file exists")
		}
	})

	t.Run("show prints toml", func(t *testing.T) {
		runner, output := newTestRunner(t, testAggregator())

		if err := run(runner, "config", "show"); err != nil {
			t.Fatalf("config show error = %v", err)
		}
		if !strings.Contains(output.String(), "[api]") || !strings.Contains(output.String(), runner.config.API.BaseURL) {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}

func TestProxyCommand(t *testing.T) {
	t.Run("rejects bad targets", func(t *testing.T) {
		runner, _ := newTestRunner(t, testAggregator())

		if err := run(runner, "proxy", "--target", "not a url"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("rejects bad ports", func(t *testing.T) {
		runner, _ := newTestRunner(t, testAggregator())

		if err := run(runner, "proxy", "--port", "70000"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
