package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/server"
)

// serveCommand creates the serve command, which exposes the layout pipeline
// over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API over HTTP",
		Long: `Serve the layout API over HTTP.

Routes:
  GET  /healthz
  POST /v1/layout           layout plus optional rendered artifacts
  POST /v1/render/{format}  a single raw artifact
  POST /v1/hittest          the block, port or wire under a point

The listen address, body limit and timeouts come from the [server] section
of the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv := server.New(runner, server.Config{
		Layout:       c.Config.Layout,
		Theme:        c.Config.Render.Theme,
		MaxBodyBytes: c.Config.Server.MaxBodyBytes,
		Timeout:      c.Config.Server.WriteTimeout,
		ReadTimeout:  c.Config.Server.ReadTimeout,
	}, logger)

	printInfo("Serving on %s", StyleHighlight.Render(addr))
	return srv.ListenAndServe(ctx, addr)
}
