package cli

import (
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/homestats/internal/app"
	"github.com/rileyhilliard/homestats/internal/logger"
	"github.com/rileyhilliard/homestats/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pollers headless and serve them over HTTP",
	Long: `Start every poller and expose the snapshots, view models and device
commands as a JSON API, with one server-sent event stream per source and
Prometheus metrics on /metrics.

Examples:
  homestats serve
  homestats serve --addr 0.0.0.0:8765`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app.App) error {
			addr := serveAddr
			if addr == "" {
				addr = a.Settings.Serve.Addr
			}

			a.Start(ctx)
			defer a.Stop()
			return server.New(a, logger.WithComponent("server")).Run(ctx, addr)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: serve.addr from settings)")
}
