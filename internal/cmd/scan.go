package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/nuxview/internal/logger"
	"github.com/harrison/nuxview/internal/models"
	"github.com/harrison/nuxview/internal/scanner"
)

const (
	progressInterval = 200 * time.Millisecond
	progressBarWidth = 30
	// plainProgressStep is the percent step between progress lines when
	// stderr is not a terminal.
	plainProgressStep = 10
)

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Run a full scan and save the snapshot",
		Long: `Run a full scan of path (default "/") in the foreground.

The scan uses find(1) when it is available and the depth is greater than
one, and falls back to a parallel directory walk otherwise. Progress is
shown on stderr while the scan runs. Interrupting the scan cancels it;
a cancelled scan writes no snapshot.

Examples:
  nuxview scan /srv
  nuxview scan --depth 3 --exclude build --exclude src/vendor ~/code
  nuxview scan --no-bulk --json /etc > etc.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScan,
	}

	cmd.Flags().IntP("depth", "d", 0, "Maximum depth to scan (0 = use config)")
	cmd.Flags().StringSlice("exclude", nil, "Additional exclusion rule, a name or a path fragment (repeatable)")
	cmd.Flags().Bool("no-bulk", false, "Disable the find-based strategy")
	cmd.Flags().Bool("json", false, "Print the scanned tree as JSON instead of a summary")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	root := scanner.FilesystemRoot
	if len(args) == 1 {
		root = args[0]
	}

	depth, _ := cmd.Flags().GetInt("depth")
	if depth < 0 {
		return fmt.Errorf("--depth must be >= 0, got %d", depth)
	}
	var depthFlag *int
	if depth > 0 {
		depthFlag = &depth
	}
	var bulkFlag *bool
	if noBulk, _ := cmd.Flags().GetBool("no-bulk"); noBulk {
		disabled := false
		bulkFlag = &disabled
	}
	excludes, _ := cmd.Flags().GetStringSlice("exclude")
	cfg.MergeWithFlags(depthFlag, nil, nil, nil, bulkFlag, excludes)

	a, err := newApp(cmd, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started, err := a.scanner.StartFullScan(root, 0, nil)
	if err != nil {
		return err
	}

	status := watchScan(ctx, a.scanner, cmd.ErrOrStderr(), progressInterval)
	if status.LastError != nil {
		return fmt.Errorf("scan %s failed: %s", started.ScanID, status.Err())
	}

	snap, err := a.store.Load()
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), snap.Tree)
	}
	printScanSummary(cmd.OutOrStdout(), status, snap)
	return nil
}

// statusSource is the part of the scan service watched by the CLI.
type statusSource interface {
	GetScanStatus() models.ScanStatus
	Stop() bool
	Wait()
}

// watchScan reports progress on w until the running scan finishes and
// returns its final status. Cancelling ctx stops the scan; watchScan still
// waits for it to wind down.
func watchScan(ctx context.Context, svc statusSource, w io.Writer, interval time.Duration) models.ScanStatus {
	done := make(chan struct{})
	go func() {
		svc.Wait()
		close(done)
	}()

	terminal := logger.IsTerminal(w)
	bar := logger.NewProgressBar(progressBarWidth, terminal)
	bar.SetPrefix("Scanning ")
	lastStep := -1

	report := func(st models.ScanStatus) {
		if terminal {
			bar.Update(st.ScannedCount, st.TotalCount, st.ProgressPercent)
			fmt.Fprintf(w, "\r%s", bar.Render())
			return
		}
		if step := st.ProgressPercent / plainProgressStep; step > lastStep {
			lastStep = step
			fmt.Fprintf(w, "progress: %d%% (%d/%d)\n", st.ProgressPercent, st.ScannedCount, st.TotalCount)
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cancelled := ctx.Done()
	for {
		select {
		case <-done:
			st := svc.GetScanStatus()
			if st.LastError == nil {
				report(st)
			}
			if terminal {
				fmt.Fprintln(w)
			}
			return st
		case <-cancelled:
			cancelled = nil
			if svc.Stop() {
				fmt.Fprintln(w, "\nstopping scan...")
			}
		case <-ticker.C:
			report(svc.GetScanStatus())
		}
	}
}

func printScanSummary(w io.Writer, st models.ScanStatus, snap *models.Snapshot) {
	green := color.New(color.FgGreen, color.Bold)
	gray := color.New(color.FgHiBlack)

	var elapsed time.Duration
	if st.StartedAt != nil && st.FinishedAt != nil {
		elapsed = st.FinishedAt.Sub(*st.StartedAt)
	}

	green.Fprint(w, "Scan complete")
	fmt.Fprintf(w, ": %d directories under %s\n", snap.Tree.Count(), snap.RootPath)
	fmt.Fprintf(w, "  Strategy: %s\n", st.Strategy)
	fmt.Fprintf(w, "  Duration: %s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  Scan ID:  %s\n", st.ScanID)
	gray.Fprintf(w, "  Snapshot saved %s\n", snap.Timestamp)
}
