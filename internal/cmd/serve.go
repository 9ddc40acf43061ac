package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harrison/nuxview/internal/server"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan API over HTTP",
		Long: `Serve the scan API (and optionally a frontend bundle) over HTTP.

On SIGINT or SIGTERM the server stops accepting requests, cancels any
running full scan and waits for it to be recorded before exiting.

Examples:
  nuxview serve
  nuxview serve --listen 0.0.0.0:8000 --static ./frontend/dist`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("listen", "", "Listen address (default from config: 127.0.0.1:8000)")
	cmd.Flags().String("static", "", "Directory of static frontend files served at /")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	var listenFlag *string
	if cmd.Flags().Changed("listen") {
		v, _ := cmd.Flags().GetString("listen")
		listenFlag = &v
	}
	cfg.MergeWithFlags(nil, nil, nil, listenFlag, nil, nil)
	if cmd.Flags().Changed("static") {
		cfg.Server.StaticDir, _ = cmd.Flags().GetString("static")
	}

	a, err := newApp(cmd, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(a.scanner, a.history, a.log, cfg.Server.StaticDir)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Listen)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.LogInfo("shutting down")
	shutdownCtx := context.Background()
	if cfg.Server.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, cfg.Server.ShutdownTimeout)
		defer cancel()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.scanner.Wait()
	return <-errCh
}
