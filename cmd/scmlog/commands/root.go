// Package commands implements CLI command handlers for scmlog.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/scmlog/pkg/version"
)

// GlobalOptions holds flags shared by every command.
type GlobalOptions struct {
	Verbose bool
	Quiet   bool
	LogJSON bool
}

// NewRootCommand assembles the scmlog command tree.
func NewRootCommand() *cobra.Command {
	globals := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "scmlog",
		Short: "Per-file metrics from source-control history",
		Long: `scmlog reads a commit history and aggregates per-file metrics
such as commit counts, authors, renames and line churn.

Commands:
  aggregate  Aggregate metrics from a git log, a repository or a paginated feed
  metrics    List the available metrics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&globals.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&globals.Quiet, "quiet", "q", false, "suppress output")
	rootCmd.PersistentFlags().BoolVar(&globals.LogJSON, "log-json", false, "emit logs as JSON")

	rootCmd.AddCommand(NewAggregateCommand(globals))
	rootCmd.AddCommand(NewMetricsCommand())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scmlog %s\n", version.String())
		},
	}
}
