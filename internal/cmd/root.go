package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for nuxview
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nuxview",
		Short: "Directory tree scanner and browser",
		Long: `nuxview scans a directory hierarchy into a tree of directories and
serves it for lazy, level-by-level browsing.

A full scan runs in the background, reports progress while it runs, and
saves the finished tree as a snapshot. Individual directories can be
expanded one level at a time without touching the snapshot.

Configuration is loaded from $NUXVIEW_HOME/config.yaml (default ~/.nuxview).
CLI flags override configuration file settings.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main prints the returned error
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: $NUXVIEW_HOME/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().String("log-dir", "", "Directory for run logs")

	// Add subcommands
	cmd.AddCommand(NewScanCommand())
	cmd.AddCommand(NewExpandCommand())
	cmd.AddCommand(NewTreeCommand())
	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}
