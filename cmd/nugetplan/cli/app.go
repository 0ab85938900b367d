// Package cli holds the nugetplan root command and build information.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/willibrandon/nugetplan/cmd/nugetplan/output"
)

// Global flag names shared by the subcommands.
const (
	FlagConfigFile   = "configfile"
	FlagVerbosity    = "verbosity"
	FlagTrace        = "trace"
	FlagOTLPEndpoint = "otlp-endpoint"
	FlagMetricsFile  = "metrics-file"
)

var rootCmd = NewRootCommand()

// Console is the global console for CLI commands
var Console *output.Console

// NewRootCommand creates the root command with the global flags. Subcommands
// are added by the caller.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nugetplan",
		Short: "Plan and apply NuGet package operations",
		Long: `nugetplan resolves install, update and uninstall requests for packages.config
projects and solutions into an ordered action plan, and applies that plan to the
project files, packages.config and content files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.String(FlagConfigFile, "", "NuGet configuration file to use")
	flags.StringP(FlagVerbosity, "v", "normal", "Display verbosity (quiet, normal, detailed, diagnostic)")
	flags.String(FlagTrace, "none", "Trace exporter (none, stdout, otlp)")
	flags.String(FlagOTLPEndpoint, "localhost:4317", "OTLP collector endpoint used with --trace otlp")
	flags.String(FlagMetricsFile, "", "Write Prometheus metrics to this file on exit")
	return cmd
}

// ExecuteContext runs the root command. Commands see ctx through
// cmd.Context().
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	Console = output.DefaultConsole()
}

// SetupVersion configures version information after variables are set
func SetupVersion() {
	rootCmd.SetVersionTemplate(GetFullVersion() + "\n")
	rootCmd.Version = GetVersion()
}

// AddCommand adds a command to the root command
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}
