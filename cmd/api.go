package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/clmusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the aggregator with a raw query string.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	if r.client == nil {
		return fmt.Errorf("%w: aggregator client not configured", shared.ErrServiceUnavailable)
	}

	raw := strings.TrimPrefix(strings.TrimSpace(cmd.StringArg("query")), "?")
	if raw == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	params, err := url.ParseQuery(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	r.logger.Info("GET request", "types", params.Get("types"))

	resp, err := r.client.Get(ctx, params)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !cmd.Bool("json"))
	}

	if err := r.writeBytes(resp.Body); err != nil {
		return err
	}
	return r.writePlain("\n")
}
