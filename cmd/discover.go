package cmd

import (
	"errors"
	"fmt"
	"time"

	"hydra/core"
	"hydra/ingest"
	"hydra/service"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

// newDiscoverCmd creates the 'discover' command
func newDiscoverCmd() *cobra.Command {
	var (
		format           string
		output           string
		dotDir           string
		continueOnError  bool
		store            bool
		minEdgeFrequency int
	)

	cmd := &cobra.Command{
		Use:   "discover <log-file>",
		Short: "Discover one process model per object type",
		Long: `Read an OCEL 2.0 log, split it into one sub-log per object type and discover
an object-centric directly-follows graph for each.

By default the first failing object type aborts the run. With
--continue-on-error failures are listed in the report instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFrom(cmd)
			if err != nil {
				return err
			}
			if err := validateOutput(output); err != nil {
				return err
			}
			inputFormat, err := ingest.ParseFormat(format)
			if err != nil {
				return err
			}

			cfg := *env.cfg
			cfg.Cache.Size = 0
			cfg.Cache.Redis.Enabled = false
			if dotDir != "" {
				cfg.Discovery.Visualize = true
				cfg.Discovery.OutputDir = dotDir
			}
			if cmd.Flags().Changed("continue-on-error") {
				cfg.Discovery.ContinueOnError = continueOnError
			}
			if cmd.Flags().Changed("min-edge-frequency") {
				if minEdgeFrequency < 1 {
					return fmt.Errorf("--min-edge-frequency must be at least 1")
				}
				cfg.Discovery.MinEdgeFrequency = minEdgeFrequency
			}
			if store {
				cfg.Storage.Enabled = true
			}

			log, err := ingest.ReadFile(args[0], inputFormat, ingest.Options{
				ValidateSchema: cfg.Input.ValidateSchema,
				MaxSize:        cfg.Input.MaxSize,
			})
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			ctx := cmd.Context()
			app, cleanup, err := openApp(ctx, env, &cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			var s *spinner.Spinner
			if output == outputTable && !quiet {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
				s.Suffix = fmt.Sprintf(" Discovering %d events, %d objects...", len(log.Events), len(log.Objects))
				s.Start()
			}

			report, err := app.Service.Run(ctx, log, service.Fingerprint(ingest.Fingerprint(log)))
			if s != nil {
				s.Stop()
			}
			if err != nil {
				var de *core.DiscoveryError
				if errors.As(err, &de) {
					return fmt.Errorf("object type %q failed during %s (use --continue-on-error to skip): %w", de.ObjectType, de.Stage, de.Err)
				}
				return err
			}

			if store {
				if err := app.SQLite.SaveReport(ctx, report); err != nil {
					return fmt.Errorf("failed to store report: %w", err)
				}
			}

			w := cmd.OutOrStdout()
			if output != outputTable {
				return writeStructured(w, output, report)
			}

			renderReport(w, report)
			if !quiet {
				if store {
					successColor.Fprintf(w, "✓ Report stored: %s\n", report.RunID)
				}
				if cfg.Discovery.Visualize {
					infoColor.Fprintf(w, "DOT files written to %s\n", cfg.Discovery.OutputDir)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "auto", "Input format (auto, json, msgpack)")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format (table, json, yaml)")
	cmd.Flags().StringVar(&dotDir, "dot-dir", "", "Write one Graphviz DOT file per object type into this directory")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "Record failing object types instead of aborting")
	cmd.Flags().BoolVar(&store, "store", false, "Persist the report to the SQLite store")
	cmd.Flags().IntVar(&minEdgeFrequency, "min-edge-frequency", 1, "Drop edges seen fewer times than this")

	return cmd
}
