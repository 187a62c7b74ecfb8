package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/clmusic/internal/models"
	"github.com/desertthunder/clmusic/internal/shared"
	"github.com/desertthunder/clmusic/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive search, playback and lyrics terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	source, ok := models.ParseSource(r.defaultSource())
	if !ok {
		return fmt.Errorf("%w: %q", shared.ErrInvalidSource, r.defaultSource())
	}
	quality, ok := models.ParseQuality(r.config.Player.Quality)
	if !ok {
		quality = models.DefaultQuality
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go r.player.Run(ctx)

	model := ui.NewModel(ctx, ui.Deps{
		Search:      r.search,
		Resolver:    r.resolver,
		Downloader:  r.downloader,
		DownloadDir: r.config.Download.Dir,
		Source:      source,
		Quality:     quality,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
