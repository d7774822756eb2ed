package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newServeCmd creates the 'serve' command
func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the discovery HTTP API",
		Long: `Serve POST /api/v1/discover, the stored report routes, /health and /metrics
until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFrom(cmd)
			if err != nil {
				return err
			}

			cfg := *env.cfg
			if cmd.Flags().Changed("port") {
				if port < 1 || port > 65535 {
					return fmt.Errorf("invalid port: %d", port)
				}
				cfg.API.Port = port
			}

			ctx := cmd.Context()
			app, cleanup, err := openApp(ctx, env, &cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := app.Start(ctx); err != nil {
				return fmt.Errorf("failed to start server: %w", err)
			}
			if !quiet {
				infoColor.Fprintf(cmd.OutOrStdout(), "hydra API listening on %s\n", app.Addr())
			}
			return app.WaitForShutdown(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides api.port)")

	return cmd
}
