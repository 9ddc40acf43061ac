package cmd

import (
	"github.com/spf13/cobra"
)

// NewExpandCommand creates the expand command
func NewExpandCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand <path>",
		Short: "List one directory level as JSON",
		Long: `List path and its immediate subdirectories as a JSON node. Each child
carries a hasChildren hint so a browser can decide whether to offer
another expansion. The snapshot and scan history are not touched.`,
		Args: cobra.ExactArgs(1),
		RunE: runExpand,
	}

	cmd.Flags().StringSlice("exclude", nil, "Additional exclusion rule (repeatable)")

	return cmd
}

func runExpand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	excludes, _ := cmd.Flags().GetStringSlice("exclude")
	node, err := a.scanner.ScanOneLevel(cmd.Context(), args[0], excludes)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), node)
}
