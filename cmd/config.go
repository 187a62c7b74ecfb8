package main

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/desertthunder/clmusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the example configuration file.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("configuration written", "path", path)
	return r.writePlain("Wrote %s\n", path)
}

// ConfigShow prints the effective configuration after file and environment overrides.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	if r.configPath != "" {
		r.writePlain("# loaded from %s\n", r.configPath)
	}
	if err := toml.NewEncoder(r.output).Encode(r.config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
