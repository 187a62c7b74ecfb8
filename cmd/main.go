package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/clmusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// warnings are failures the user can retry; they are logged and the process exits 0.
var warnings = []error{
	shared.ErrSearchFailed,
	shared.ErrResolutionFailed,
	shared.ErrDownloadFailed,
	shared.ErrCoverLookupFailed,
	shared.ErrEmptyURL,
}

// loadConfig reads CLMUSIC_CONFIG (or ./config.toml when present) and applies environment overrides.
func loadConfig() (*shared.Config, string, error) {
	path := os.Getenv(shared.EnvPrefix + "CONFIG")
	if path == "" {
		if _, err := os.Stat("config.toml"); err == nil {
			path = "config.toml"
		}
	}

	config := shared.DefaultConfig()
	if path != "" {
		loaded, err := shared.LoadConfig(path)
		if err != nil {
			return nil, path, err
		}
		config = loaded
	}

	if err := shared.ApplyEnv(config); err != nil {
		return nil, path, err
	}
	return config, path, nil
}

func main() {
	logger := shared.NewLogger(nil)

	config, path, err := loadConfig()
	if err != nil {
		logger.Fatal("failed to load config", "path", path, "err", err)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	runner, err := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: path,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to start", "err", err)
	}
	defer runner.Close()

	app := &cli.Command{
		Name:    "clm",
		Usage:   "Search, play, follow lyrics and download from a multi-source music aggregator",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				shared.SetLogLevel(logger, log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		for _, w := range warnings {
			if errors.Is(err, w) {
				logger.Warn(err.Error())
				return
			}
		}
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}
