package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sweeprun/sweeprun/pkg/telemetry"
)

var (
	// Global flags
	verbose  bool
	jsonLogs bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sweeprun",
		Short: "sweeprun - parameter sweep experiment runner",
		Long: `sweeprun runs a command once for every combination of declared
parameter values, collects numeric metrics from its output, and records
everything in a resumable CSV result file.

Parameter values support comma lists, numeric ranges (start:end:step),
and arithmetic expressions referencing other parameters. Values are
passed to the command as environment variables.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "emit logs in JSON format")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newExpandCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}

// newLogger builds the structured logger for one command invocation
// from the global flags.
func newLogger() *telemetry.Logger {
	level := "info"
	if verbose {
		level = "debug"
	}
	format := "console"
	if jsonLogs {
		format = "json"
	}
	return telemetry.NewLogger(telemetry.LoggingConfig{Level: level, Format: format})
}
