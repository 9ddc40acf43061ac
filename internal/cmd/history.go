package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/nuxview/internal/history"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent full scans",
		Long: `List recent full scans from the scan history database, newest first.

Examples:
  nuxview history
  nuxview history --limit 5
  nuxview history --json`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().IntP("limit", "n", history.DefaultLimit, "Number of scans to show")
	cmd.Flags().Bool("json", false, "Print scans as JSON")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("--limit must be > 0, got %d", limit)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.history.Recent(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to read scan history: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		if runs == nil {
			runs = []*history.ScanRun{}
		}
		return writeJSON(cmd.OutOrStdout(), runs)
	}
	printHistory(cmd.OutOrStdout(), runs)
	return nil
}

func printHistory(w io.Writer, runs []*history.ScanRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No scans recorded.")
		return
	}

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(w, "=== Recent scans (%d) ===\n", len(runs))
	for _, run := range runs {
		id := run.ID
		if len(id) > 8 {
			id = id[:8]
		}
		strategy := run.Strategy
		if strategy == "" {
			strategy = "-"
		}

		fmt.Fprintf(w, "\n  %s  ", run.RootPath)
		gray.Fprintf(w, "%s  %s\n", id, run.StartedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "    Strategy: %s, depth %d\n", strategy, run.MaxDepth)
		fmt.Fprintf(w, "    Directories: %d in %s\n", run.NodeCount, run.Duration().Round(time.Millisecond))
		fmt.Fprintf(w, "    Result: ")
		if run.Success {
			green.Fprintln(w, "ok")
		} else {
			red.Fprintf(w, "failed: %s\n", run.ErrorMessage)
		}
	}
}
