// package testing holds fakes and assertions shared by package tests
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/clmusic/internal/models"
	"github.com/desertthunder/clmusic/internal/services"
)

// MockAggregator is an in-memory [services.Aggregator] keyed by track id.
type MockAggregator struct {
	mu      sync.Mutex
	Tracks  []models.Track
	Streams map[string]string // track id → stream URL
	Lyrics  map[string]string // lyric id → LRC text
	Covers  map[string]string // picture id → cover URL
	Err     error             // returned by every call when set
	Calls   map[string]int    // call counts by method
}

// NewMockAggregator creates an empty mock.
func NewMockAggregator() *MockAggregator {
	return &MockAggregator{
		Streams: map[string]string{},
		Lyrics:  map[string]string{},
		Covers:  map[string]string{},
		Calls:   map[string]int{},
	}
}

func (m *MockAggregator) record(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[method]++
	return m.Err
}

// CallCount returns the number of calls made to method.
func (m *MockAggregator) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[method]
}

func (m *MockAggregator) Search(_ context.Context, p services.SearchParams) ([]models.Track, error) {
	if err := m.record("Search"); err != nil {
		return nil, err
	}
	out := make([]models.Track, 0, len(m.Tracks))
	for _, tr := range m.Tracks {
		if tr.Source == "" {
			tr.Source = p.Source
		}
		out = append(out, tr)
	}
	return out, nil
}

func (m *MockAggregator) Cover(_ context.Context, _ models.Source, pictureID string, _ int) (string, error) {
	if err := m.record("Cover"); err != nil {
		return "", err
	}
	return m.Covers[pictureID], nil
}

func (m *MockAggregator) StreamURL(_ context.Context, _ models.Source, id string, quality models.Quality) (*services.StreamInfo, error) {
	if err := m.record("StreamURL"); err != nil {
		return nil, err
	}
	return &services.StreamInfo{URL: m.Streams[id], Bitrate: int(quality)}, nil
}

func (m *MockAggregator) Lyric(_ context.Context, _ models.Source, lyricID string) (*services.LyricResult, error) {
	if err := m.record("Lyric"); err != nil {
		return nil, err
	}
	return &services.LyricResult{Lyric: m.Lyrics[lyricID]}, nil
}

// NewAggregatorServer serves m over HTTP the way the aggregator's api.php does, dispatching on
// the `types` query parameter.
func NewAggregatorServer(t *testing.T, m *MockAggregator) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		ctx := r.Context()
		source := models.Source(q.Get("source"))

		var (
			body any
			err  error
		)
		switch q.Get("types") {
		case "search":
			body, err = m.Search(ctx, services.SearchParams{Query: q.Get("name"), Source: source})
		case "pic":
			var u string
			u, err = m.Cover(ctx, source, q.Get("id"), 0)
			body = map[string]string{"url": u}
		case "url":
			var info *services.StreamInfo
			info, err = m.StreamURL(ctx, source, q.Get("id"), 0)
			if info != nil {
				body = map[string]any{"url": info.URL, "size": info.Size, "br": q.Get("br")}
			}
		case "lyric":
			var res *services.LyricResult
			res, err = m.Lyric(ctx, source, q.Get("id"))
			if res != nil {
				body = map[string]string{"lyric": res.Lyric, "tlyric": res.Translated}
			}
		default:
			http.Error(w, "unknown types", http.StatusBadRequest)
			return
		}

		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// FailingWriter rejects every write.
type FailingWriter struct{}

func (FailingWriter) Write([]byte) (int, error) {
	return 0, errors.New("write failed")
}

// LimitedWriter forwards the first n writes to target and fails the rest.
type LimitedWriter struct {
	n      int
	target io.Writer
}

func NewLimitedWriter(n int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{n: n, target: target}
}

func (l *LimitedWriter) Write(p []byte) (int, error) {
	if l.n <= 0 {
		return 0, errors.New("write limit exceeded")
	}
	l.n--
	return l.target.Write(p)
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
