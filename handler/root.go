package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"aidoc/config"
	"aidoc/internal/bootstrap"
	"aidoc/pkg/logger"
	"aidoc/ui"

	"github.com/spf13/cobra"
)

// cli carries flag values and the wired core between cobra hooks.
type cli struct {
	configPath string
	verbose    bool

	open func(cfg *config.Config) (*bootstrap.Container, error)
	// runTUI starts the interactive editor; swapped out in tests.
	runTUI func(ctx context.Context, c *bootstrap.Container) error
	c      *bootstrap.Container
}

// NewRootCommand builds the aidoc command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&cli{open: bootstrap.Open, runTUI: runInteractive})
}

func newRootCommand(app *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "aidoc",
		Short: "AI Document Editor client",
		Long: `aidoc edits documents stored on an AI Document Editor backend.

Run without arguments to open the interactive editor. The subcommands
expose the same operations for scripting.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(app.configPath)
			if err != nil {
				return err
			}
			level := cfg.Log.Level
			if app.verbose {
				level = "debug"
			}
			if err := logger.Init(logger.Options{FilePath: cfg.Log.FilePath, Level: level, Console: app.verbose}); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			app.c, err = app.open(cfg)
			if err != nil {
				return fmt.Errorf("failed to open client state: %w", err)
			}
			logger.Sugar.Debugf("Using backend %s%s", cfg.API.BaseURL, cfg.API.PathPrefix)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.c != nil {
				if err := app.c.Close(); err != nil {
					logger.Sugar.Warnf("Failed to close state store: %v", err)
				}
			}
			logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runTUI(cmd.Context(), app.c)
		},
	}

	root.PersistentFlags().StringVar(&app.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newEditCommand(app),
		newLoginCommand(app),
		newRegisterCommand(app),
		newLogoutCommand(app),
		newWhoamiCommand(app),
		newDocsCommand(app),
	)
	return root
}

func newEditCommand(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open the interactive editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runTUI(cmd.Context(), app.c)
		},
	}
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		reportError(root.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func runInteractive(ctx context.Context, c *bootstrap.Container) error {
	return ui.Run(ctx, c)
}

func reportError(w io.Writer, err error) {
	if w == nil {
		w = os.Stderr
	}
	printError(w, err)
}
