package cmd

import (
	"context"
	"fmt"

	"hydra/bootstrap"

	"github.com/spf13/cobra"
)

// newReportsCmd creates the 'reports' command group
func newReportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Inspect stored discovery reports",
	}
	cmd.AddCommand(newReportsListCmd())
	cmd.AddCommand(newReportsShowCmd())
	return cmd
}

// openReports opens the application with storage forced on
func openReports(cmd *cobra.Command) (*bootstrap.App, func(), error) {
	env, err := envFrom(cmd)
	if err != nil {
		return nil, nil, err
	}
	cfg := *env.cfg
	cfg.Storage.Enabled = true
	cfg.Cache.Size = 0
	cfg.Cache.Redis.Enabled = false
	return openApp(cmd.Context(), env, &cfg)
}

func newReportsListCmd() *cobra.Command {
	var (
		limit  int
		output string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored reports, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			if limit < 1 || limit > 1000 {
				return fmt.Errorf("--limit must be between 1 and 1000")
			}

			app, cleanup, err := openReports(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultTimeout)
			defer cancel()

			summaries, err := app.SQLite.ListReports(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to list reports: %w", err)
			}

			if output != outputTable {
				return writeStructured(cmd.OutOrStdout(), output, summaries)
			}
			renderSummaries(cmd.OutOrStdout(), summaries)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of reports (1-1000)")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format (table, json, yaml)")

	return cmd
}

func newReportsShowCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <report-id>",
		Short: "Show one stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}

			app, cleanup, err := openReports(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultTimeout)
			defer cancel()

			report, err := app.SQLite.GetReport(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get report: %w", err)
			}

			if output != outputTable {
				return writeStructured(cmd.OutOrStdout(), output, report)
			}
			renderReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format (table, json, yaml)")

	return cmd
}
