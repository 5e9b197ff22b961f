package commands

import (
	"runtime"

	"github.com/conduit-lang/mockls/internal/cli/config"
	"github.com/conduit-lang/mockls/internal/cli/ui"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mockls",
		Short: "Scriptable mock language server",
		Long: color.CyanString(`mockls - a mock Language Server Protocol server

mockls answers every text document request with canned results that tests
configure ahead of time, and pushes diagnostics round-robin across the
connected clients.

Features:
  • stdio, TCP and WebSocket transports
  • JSON fixtures with hot reload
  • Notification journal in Redis
  • Launch descriptors for editors that spawn external servers`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewLaunchCommand())
	rootCmd.AddCommand(NewJournalCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the mockls version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			table := ui.NewKeyValueTable(cmd.OutOrStdout(), noColor(cmd))
			table.AddRow("mockls version", Version)
			table.AddRow("Git commit", GitCommit)
			table.AddRow("Build date", BuildDate)
			table.AddRow("Go version", goVer)
			table.Render()
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

func noColor(cmd *cobra.Command) bool {
	disabled, _ := cmd.Flags().GetBool("no-color")
	return disabled || color.NoColor
}

// loadConfig loads mockls.yml and reports problems in the CLI's error format.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		cmd.PrintErr(ui.ConfigError(err.Error(), noColor(cmd)))
		return nil, err
	}
	return cfg, nil
}
