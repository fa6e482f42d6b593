package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/git-pkgs/modsync/internal/logging"
)

// Execute runs the CLI with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(a.out)
	return rootCmd.ExecuteContext(ctx)
}

func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "modsync",
		Short:   "Keep a modpack manifest in step with upstream releases",
		Version: a.version,
		Long: `modsync checks every mod in a modpack manifest against the latest
release of its upstream repository. It bumps versions, fills in missing
licenses and repository URLs, picks the release jar and reports
repositories in the organization that the modpack does not track.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.config.ConfigFile, "config", "", "config file (default is $HOME/.modsync.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.String("log-format", "", "log format: auto, console, json")
	flags.String("host", "", "upstream host: "+hostList()+" (default \"github\")")
	flags.String("base-url", "", "API base URL for self-hosted instances")
	flags.Duration("timeout", 0, "HTTP timeout (default 30s)")
	flags.String("token-file", "", "file holding the API token (default $HOME/.github_personal_token)")

	rootCmd.SetVersionTemplate("modsync {{.Version}}\n")

	rootCmd.AddCommand(a.NewCheckCommand())
	rootCmd.AddCommand(a.NewMissingCommand())
	rootCmd.AddCommand(a.NewLatestCommand())

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("config") {
		if err := a.config.ReadFile(a.config.ConfigFile); err != nil {
			return err
		}
	}
	if err := a.config.BindFlags(cmd.Flags()); err != nil {
		return err
	}

	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))

	return nil
}

// ExitOnError prints an error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
