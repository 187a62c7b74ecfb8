package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/clmusic/internal/cover"
	"github.com/desertthunder/clmusic/internal/models"
	"github.com/desertthunder/clmusic/internal/playback"
	"github.com/desertthunder/clmusic/internal/repositories"
	"github.com/desertthunder/clmusic/internal/services"
	"github.com/desertthunder/clmusic/internal/shared"
	"github.com/desertthunder/clmusic/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	aggregator services.Aggregator
	client     *services.AggregatorClient // nil when an Aggregator was injected
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
	covers     *cover.Cache
	search     *tasks.SearchService
	player     *playback.ClockPlayer
	resolver   *playback.Resolver
	downloader *tasks.DownloadService
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Aggregator services.Aggregator // overrides the HTTP client built from Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner wires the aggregator client, cover cache, search, playback and download services from the config.
func NewRunner(opts RunnerOpts) (*Runner, error) {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	cfg := opts.Config

	r := &Runner{
		config:     cfg,
		configPath: opts.ConfigPath,
		aggregator: opts.Aggregator,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}

	if r.aggregator == nil {
		r.client = services.NewAggregatorClient(services.ClientOpts{
			BaseURL:    cfg.API.BaseURL,
			UserAgent:  cfg.API.UserAgent,
			Timeout:    cfg.API.Timeout,
			HTTPClient: opts.HTTPClient,
			Logger:     shared.WithLogger(opts.Logger, "component", "aggregator"),
		})
		r.aggregator = r.client
	}

	store, err := r.coverStore(context.Background())
	if err != nil {
		return nil, err
	}
	r.covers = cover.NewCache(r.aggregator, cover.CacheOpts{
		Store:       store,
		Placeholder: cfg.Cache.Placeholder,
		DefaultSize: cfg.Cache.CoverSize,
		Logger:      shared.WithLogger(opts.Logger, "component", "cover"),
	})

	r.search = tasks.NewSearchService(r.aggregator, r.covers, tasks.SearchOpts{
		Workers:   cfg.Search.Workers,
		RateLimit: cfg.Search.RateLimit,
		CoverSize: cfg.Cache.CoverSize,
		Logger:    shared.WithLogger(opts.Logger, "component", "search"),
	})

	lyricSync := playback.NewSync(playback.SyncOpts{Throttle: cfg.Player.Throttle})
	r.player = playback.NewClockPlayer(cfg.Player.Tick, lyricSync.OnProgress)
	r.resolver = playback.NewResolver(r.aggregator, playback.ResolverOpts{
		Player:  r.player,
		Sync:    lyricSync,
		Timeout: cfg.API.Timeout,
		Logger:  shared.WithLogger(opts.Logger, "component", "playback"),
	})

	r.downloader = tasks.NewDownloadService(r.aggregator, tasks.DownloadOpts{
		UserAgent: cfg.API.UserAgent,
		Logger:    shared.WithLogger(opts.Logger, "component", "download"),
	})

	return r, nil
}

// coverStore opens the configured cover store; sqlite tables are created on first use.
func (r *Runner) coverStore(ctx context.Context) (cover.Store, error) {
	if r.config.Cache.Driver != "sqlite" {
		return cover.NewMemoryStore(), nil
	}

	db, err := shared.NewDatabase(r.config.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("cover cache: %w", err)
	}
	shared.ConfigureDatabase(db, 4, 1)

	repo := repositories.NewCoverRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("cover cache: %w", err)
	}
	r.db = db
	return repo, nil
}

// Close releases the cover database, if any.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SetLogger replaces the runner's logger; services keep the logger they were built with.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		searchCommand, playCommand, lyricsCommand, coverCommand, downloadCommand,
		apiCommand, proxyCommand, tuiCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// defaultSource returns the configured source, falling back to netease.
func (r *Runner) defaultSource() string {
	if r.config.Player.Source == "" {
		return models.SourceNetease.String()
	}
	return r.config.Player.Source
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(b []byte) error {
	if _, err := r.output.Write(b); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
