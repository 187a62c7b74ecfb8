package tasks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/clmusic/internal/models"
	"github.com/desertthunder/clmusic/internal/services"
	"github.com/desertthunder/clmusic/internal/shared"
)

// DefaultExtension is used when a URL carries no recognizable extension.
const DefaultExtension = "audio"

var extPattern = regexp.MustCompile(`(?i)\.([a-z0-9]+)$`)

// StreamResolver is the stream half of [services.Aggregator].
type StreamResolver interface {
	StreamURL(ctx context.Context, source models.Source, id string, quality models.Quality) (*services.StreamInfo, error)
}

// SaveAction is a resolved download: where to fetch from and what to call the file.
type SaveAction struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// DownloadOpts configures a [DownloadService].
type DownloadOpts struct {
	HTTPClient *http.Client
	UserAgent  string
	Logger     *log.Logger
}

// DownloadService turns tracks into saveable files (DownloadService).
type DownloadService struct {
	upstream  StreamResolver
	client    *http.Client
	userAgent string
	logger    *log.Logger
}

// NewDownloadService creates a download service.
func NewDownloadService(upstream StreamResolver, opts DownloadOpts) *DownloadService {
	if opts.HTTPClient == nil {
		// Save is bounded by its ctx, not a client timeout.
		opts.HTTPClient = &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: 30 * time.Second,
		}}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &DownloadService{
		upstream:  upstream,
		client:    opts.HTTPClient,
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
	}
}

// Download resolves a fresh stream URL for track and names the file "{name} - {artist}.{ext}".
// It always asks upstream again and never reuses a session's URL.
func (d *DownloadService) Download(ctx context.Context, track models.Track, quality models.Quality, progress chan<- ProgressUpdate) (*SaveAction, error) {
	sendProgress(progress, fetchStreamUpdate(track, quality))

	info, err := d.upstream.StreamURL(ctx, track.Source, track.ID, quality)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrDownloadFailed, track.Display(), err)
	}

	u := shared.StripEscapes(info.URL)
	if u == "" {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrDownloadFailed, track.Display(), shared.ErrEmptyURL)
	}

	action := &SaveAction{
		URL:      u,
		Filename: fmt.Sprintf("%s - %s.%s", track.Name, track.Artist, InferExtension(u)),
	}
	d.logger.Debug("download resolved", "track", track.Display(), "filename", action.Filename)
	return action, nil
}

// InferExtension returns the extension of the URL's last path segment, or [DefaultExtension].
func InferExtension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return DefaultExtension
	}

	segment := u.Path[strings.LastIndex(u.Path, "/")+1:]
	m := extPattern.FindStringSubmatch(segment)
	if m == nil {
		return DefaultExtension
	}
	return m[1]
}

// Save streams action.URL into dir and returns the written path.
//
// The file is written under a temporary name and renamed once complete. A failed transfer
// leaves nothing in dir.
func (d *DownloadService) Save(ctx context.Context, action SaveAction, dir string, progress chan<- ProgressUpdate) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create %s: %w", shared.ErrDownloadFailed, dir, err)
	}

	name := shared.SanitizeFilename(action.Filename)
	if name == "" {
		name = "track." + DefaultExtension
	}
	dest := filepath.Join(dir, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, action.URL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrDownloadFailed, err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", shared.ErrDownloadFailed, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(dir, ".clm-*.part")
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrDownloadFailed, err)
	}
	defer os.Remove(tmp.Name())

	w := &progressWriter{w: tmp, total: resp.ContentLength, name: name, progress: progress}
	if _, err := io.Copy(w, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: %w", shared.ErrDownloadFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrDownloadFailed, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrDownloadFailed, err)
	}

	d.logger.Info("saved", "path", dest, "bytes", w.written)
	return dest, nil
}

type progressWriter struct {
	w        io.Writer
	written  int64
	total    int64
	name     string
	progress chan<- ProgressUpdate
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	sendProgress(p.progress, saveUpdate(p.written, p.total, p.name))
	return n, err
}
