package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agentstation/plantmap/cmd/plantmap/cmd/catalog"
	"github.com/agentstation/plantmap/cmd/plantmap/cmd/detail"
	"github.com/agentstation/plantmap/cmd/plantmap/cmd/garden"
)

// Execute runs the plantmap CLI with the given arguments and closes the
// client once the command returns.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if a.cancel != nil {
		a.cancel()
	}
	return err
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "plantmap",
		Short:   "Plant catalog and garden CLI",
		Version: a.version,
		Long: `Plantmap browses the Perenual plant catalog page by page, downloads
the whole catalog for offline use and keeps a local garden of favorite
plants with watering schedules.

Care details such as light and moisture ranges come from Open Plantbook
when client credentials are configured.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.plantmap.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringP("format", "o", "", "output format: table, json, yaml, wide")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	if a.out != nil {
		rootCmd.SetOut(a.out)
		rootCmd.SetErr(a.out)
	}

	rootCmd.SetVersionTemplate("plantmap {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if path := mustGetString(cmd, "config"); path != "" {
		config, err := loadConfig(viper.New(), path)
		if err != nil {
			return err
		}
		a.config = config
	}

	// These flags are defined as persistent flags in createRootCommand, so errors indicate programming errors
	verbose := mustGetBool(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	format := mustGetString(cmd, "format")
	logLevel := mustGetString(cmd, "log-level")

	a.config.UpdateFromFlags(verbose, quiet, noColor, format, logLevel)
	if err := a.config.Validate(); err != nil {
		return err
	}

	logger := NewLogger(a.config)
	a.logger = &logger

	a.cancel = bindCommandDeadline(cmd)
	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(catalog.NewCommand(a))
	rootCmd.AddCommand(garden.NewCommand(a))
	rootCmd.AddCommand(detail.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(a.NewConfigCommand())

	// Utility commands
	rootCmd.AddCommand(a.NewVersionCommand())
}

// ExitOnError is a helper that prints an error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		//nolint:errcheck // Ignoring write error since we're exiting anyway
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
