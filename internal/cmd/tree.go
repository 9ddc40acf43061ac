package cmd

import (
	"github.com/spf13/cobra"
)

// NewTreeCommand creates the tree command
func NewTreeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the cached tree root as JSON",
		Long: `Print the root of the last saved snapshot with its immediate children.
When no snapshot exists the filesystem root is listed live instead and
the output is marked "live": true.`,
		Args: cobra.NoArgs,
		RunE: runTree,
	}
}

func runTree(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	tree, err := a.scanner.GetCachedTree(cmd.Context())
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), tree)
}
