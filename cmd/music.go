package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/clmusic/internal/formatter"
	"github.com/desertthunder/clmusic/internal/lyrics"
	"github.com/desertthunder/clmusic/internal/models"
	"github.com/desertthunder/clmusic/internal/shared"
	"github.com/desertthunder/clmusic/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Search runs a catalog search and prints the results.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	tracks, err := r.search.Search(ctx, tasks.Query{
		Text:   query,
		Source: cmd.String("source"),
		Count:  cmd.Int("count"),
		Pages:  cmd.Int("pages"),
	}, nil)
	if err != nil {
		return err
	}

	out, err := formatter.Tracks(cmd.String("format"), tracks)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// trackFromCommand builds the target track from the id argument and flags, or from a search.
func (r *Runner) trackFromCommand(ctx context.Context, cmd *cli.Command, argName string) (models.Track, error) {
	source, ok := models.ParseSource(cmd.String("source"))
	if !ok {
		return models.Track{}, fmt.Errorf("%w: %q", shared.ErrInvalidSource, cmd.String("source"))
	}

	if id := strings.TrimSpace(cmd.StringArg(argName)); id != "" {
		return models.Track{
			ID:      id,
			Source:  source,
			Name:    cmd.String("name"),
			Artist:  cmd.String("artist"),
			LyricID: cmd.String("lyric-id"),
		}, nil
	}

	query := cmd.String("query")
	if strings.TrimSpace(query) == "" {
		return models.Track{}, fmt.Errorf("%w: track id or --query", shared.ErrMissingArgument)
	}

	tracks, err := r.search.Search(ctx, tasks.Query{Text: query, Source: source.String()}, nil)
	if err != nil {
		return models.Track{}, err
	}

	pick := cmd.Int("pick")
	if pick < 1 || pick > len(tracks) {
		return models.Track{}, fmt.Errorf("%w: --pick %d with %d results", shared.ErrInvalidArgument, pick, len(tracks))
	}
	return tracks[pick-1], nil
}

func qualityFromCommand(cmd *cli.Command) (models.Quality, error) {
	q, ok := models.ParseQuality(cmd.String("quality"))
	if !ok {
		return 0, fmt.Errorf("%w: %q", shared.ErrInvalidQuality, cmd.String("quality"))
	}
	return q, nil
}

// Play resolves a track, prints the session and optionally follows the lyrics in real time.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	track, err := r.trackFromCommand(ctx, cmd, "id")
	if err != nil {
		return err
	}
	quality, err := qualityFromCommand(cmd)
	if err != nil {
		return err
	}

	if err := r.resolver.PlayOrToggle(ctx, track, quality); err != nil {
		return err
	}

	session := r.resolver.Session()
	if err := r.writeBytes(formatter.SessionToText(session)); err != nil {
		return err
	}

	if !cmd.Bool("follow") {
		return nil
	}
	return r.follow(ctx, session, cmd.Duration("duration"))
}

// follow drives the simulated player and prints each lyric line as it becomes active.
//
// It stops when ctx ends, after limit (if positive) or once the last line has been reached.
func (r *Runner) follow(ctx context.Context, session models.Session, limit time.Duration) error {
	if session.Lyrics.Empty() && limit <= 0 {
		return r.writePlain("No lyrics to follow.\n")
	}

	if limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	doc := session.Lyrics
	lines := make(chan int, 16)
	lyricSync := r.resolver.Sync()
	lyricSync.SetObserver(func(i int) {
		select {
		case lines <- i:
		default:
		}
	})
	defer lyricSync.SetObserver(nil)

	go r.player.Run(ctx)

	next := 0
	for {
		select {
		case <-ctx.Done():
			r.player.SetPlaying(false)
			return nil
		case i := <-lines:
			if i < 0 {
				continue
			}
			// lines skipped between throttled updates are printed in order
			from := next
			if i < next {
				from = i
			}
			for j := from; j <= i; j++ {
				r.printLine(doc, j)
			}
			next = i + 1
			if next >= doc.Len() {
				r.player.SetPlaying(false)
				return nil
			}
		}
	}
}

func (r *Runner) printLine(doc models.LyricDocument, i int) {
	line, ok := doc.Line(i)
	if !ok {
		return
	}
	r.writePlain("[%s] %s\n", formatter.Timestamp(line.Time), line.Text)
	if tr := doc.TranslationAt(i); tr != "" {
		r.writePlain("           %s\n", tr)
	}
}

// Lyrics fetches and prints lyrics without resolving a stream.
func (r *Runner) Lyrics(ctx context.Context, cmd *cli.Command) error {
	track, err := r.trackFromCommand(ctx, cmd, "id")
	if err != nil {
		return err
	}

	lyricID := track.LyricID
	if lyricID == "" {
		lyricID = track.ID
	}

	res, err := r.aggregator.Lyric(ctx, track.Source, lyricID)
	if err != nil {
		return fmt.Errorf("%w: lyrics for %s: %w", shared.ErrResolutionFailed, track.Display(), err)
	}

	doc := lyrics.ParseDocument(res.Lyric, res.Translated)
	if !doc.Aligned() {
		r.logger.Warn("translated lyrics do not line up", "lines", len(doc.Primary), "translated", len(doc.Translated))
	}

	switch cmd.String("format") {
	case "json":
		out, err := formatter.LyricsToJSON(doc)
		if err != nil {
			return err
		}
		return r.writeBytes(out)
	case "", "text":
		active := -1
		if at := cmd.Duration("at"); at >= 0 {
			active = lyrics.Index(doc.Primary, at.Seconds())
		}
		return r.writeBytes(formatter.LyricsToText(doc, active))
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, cmd.String("format"))
	}
}

// Cover resolves a cover URL through the cache and optionally saves the image.
func (r *Runner) Cover(ctx context.Context, cmd *cli.Command) error {
	pictureID := strings.TrimSpace(cmd.StringArg("pic_id"))
	if pictureID == "" {
		return fmt.Errorf("%w: picture id", shared.ErrMissingArgument)
	}
	source, ok := models.ParseSource(cmd.String("source"))
	if !ok {
		return fmt.Errorf("%w: %q", shared.ErrInvalidSource, cmd.String("source"))
	}

	url, err := r.covers.ResolveErr(ctx, source, pictureID, cmd.Int("size"))
	if err != nil {
		r.logger.Warn("cover unavailable, using placeholder", "err", err)
	}
	if err := r.writePlain("%s\n", url); err != nil {
		return err
	}

	out := cmd.String("output")
	if out == "" || err != nil {
		return nil
	}
	if err := formatter.WriteCoverImage(ctx, url, out); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrCoverLookupFailed, err)
	}
	r.logger.Info("cover saved", "path", out)
	return nil
}

// Download resolves a fresh stream URL and saves the file.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	track, err := r.trackFromCommand(ctx, cmd, "id")
	if err != nil {
		return err
	}
	quality, err := qualityFromCommand(cmd)
	if err != nil {
		return err
	}
	if track.Name == "" {
		track.Name = track.ID
	}

	action, err := r.downloader.Download(ctx, track, quality, nil)
	if err != nil {
		return err
	}

	if cmd.Bool("url-only") {
		return r.writeJSON(action, true)
	}

	progress := make(chan tasks.ProgressUpdate, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debug(update.Message)
		}
	}()

	path, err := r.downloader.Save(ctx, *action, cmd.String("dir"), progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", path)
}
