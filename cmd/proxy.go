package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/desertthunder/clmusic/internal/server"
	"github.com/desertthunder/clmusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// Proxy serves the CORS reverse proxy until the context is cancelled.
func (r *Runner) Proxy(ctx context.Context, cmd *cli.Command) error {
	port := cmd.Int("port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%w: port %d", shared.ErrInvalidArgument, port)
	}

	proxy, err := server.NewProxy(server.ProxyOpts{
		Target: cmd.String("target"),
		Logger: shared.WithLogger(r.logger, "component", "proxy"),
	})
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(cmd.String("host"), strconv.Itoa(port))
	return server.Serve(ctx, addr, server.NewProxyRouter(proxy, r.logger), r.logger)
}
