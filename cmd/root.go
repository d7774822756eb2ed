// Package cmd provides the hydra command-line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hydra/bootstrap"
	"hydra/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Global flags
var (
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// defaultTimeout bounds CLI operations that talk to storage
const defaultTimeout = 5 * time.Minute

// runtimeEnv is what every subcommand gets from the root pre-run
type runtimeEnv struct {
	cfg    *config.Config
	logger *zap.Logger
	sugar  *zap.SugaredLogger
}

type envKey struct{}

// NewRootCmd creates the hydra root command with all subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hydra",
		Short: "Object-wise process discovery on object-centric event logs",
		Long: `hydra splits an object-centric event log (OCEL 2.0) into one sub-log per
object type and discovers a process model for each of them.

Logs are read as OCEL 2.0 JSON or msgpack. Models are object-centric
directly-follows graphs, optionally rendered as Graphviz DOT files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			level := logLevel
			if level == "" && quiet {
				level = "error"
			}

			cfg, logger, sugar, err := bootstrap.Init(configFile, level)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, envKey{}, &runtimeEnv{cfg: cfg, logger: logger, sugar: sugar}))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if env, err := envFrom(cmd); err == nil {
				_ = env.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default: ./hydra.yaml or $HOME/.hydra/hydra.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress non-essential output")

	root.AddCommand(newDiscoverCmd())
	root.AddCommand(newConvertCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newReportsCmd())

	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func envFrom(cmd *cobra.Command) (*runtimeEnv, error) {
	if ctx := cmd.Context(); ctx != nil {
		if env, ok := ctx.Value(envKey{}).(*runtimeEnv); ok {
			return env, nil
		}
	}
	return nil, errors.New("command environment not initialized")
}

// openApp builds the application with the given config. The caller must call
// the returned cleanup.
func openApp(ctx context.Context, env *runtimeEnv, cfg *config.Config) (*bootstrap.App, func(), error) {
	app, err := bootstrap.NewApp(ctx, cfg, env.logger, env.sugar)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return app, app.Shutdown, nil
}
