package cmd

import (
	"fmt"

	"hydra/ingest"

	"github.com/spf13/cobra"
)

// newConvertCmd creates the 'convert' command
func newConvertCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Re-encode a log between OCEL 2.0 JSON and msgpack",
		Long: `Convert an OCEL 2.0 log between JSON and msgpack. Formats default to the
file extensions (.json/.jsonocel, .msgpack/.mpk/.mp).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFrom(cmd)
			if err != nil {
				return err
			}
			inFormat, err := ingest.ParseFormat(from)
			if err != nil {
				return err
			}
			outFormat, err := ingest.ParseFormat(to)
			if err != nil {
				return err
			}

			log, err := ingest.ReadFile(args[0], inFormat, ingest.Options{
				ValidateSchema: env.cfg.Input.ValidateSchema,
				MaxSize:        env.cfg.Input.MaxSize,
			})
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			if err := ingest.WriteFile(args[1], log, outFormat); err != nil {
				return err
			}

			env.sugar.Debugw("Log converted", "in", args[0], "out", args[1], "events", len(log.Events))
			if !quiet {
				successColor.Fprintf(cmd.OutOrStdout(), "✓ Converted %s -> %s (%d events, %d objects, %d relations)\n",
					args[0], args[1], len(log.Events), len(log.Objects), len(log.Relations))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "auto", "Input format (auto, json, msgpack)")
	cmd.Flags().StringVar(&to, "to", "auto", "Output format (auto, json, msgpack)")

	return cmd
}
