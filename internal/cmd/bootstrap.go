package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harrison/nuxview/internal/config"
	"github.com/harrison/nuxview/internal/history"
	"github.com/harrison/nuxview/internal/logger"
	"github.com/harrison/nuxview/internal/scanner"
	"github.com/harrison/nuxview/internal/snapshot"
	"github.com/harrison/nuxview/internal/traversal"
)

// app holds the components shared by the subcommands.
type app struct {
	cfg     *config.Config
	log     logger.Logger
	fileLog *logger.FileLogger
	history *history.Store
	store   *snapshot.FileStore
	scanner *scanner.Service
}

// loadConfig loads the config file and applies the root command's
// persistent flags. Subcommands merge their own flags before newApp
// validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	home, err := config.GetHome()
	if err != nil {
		return nil, err
	}

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.ConfigPath(home)
	}
	cfg, err := config.LoadConfig(home, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	var logLevel, logDir *string
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		logLevel = &v
	}
	if cmd.Flags().Changed("log-dir") {
		v, _ := cmd.Flags().GetString("log-dir")
		logDir = &v
	}
	cfg.MergeWithFlags(nil, logLevel, logDir, nil, nil, nil)
	return cfg, nil
}

// newApp validates cfg and wires loggers, stores and the scan service.
// Console logs go to the command's stderr so stdout stays parseable.
// fileLogging adds a run log under the configured log directory.
func newApp(cmd *cobra.Command, cfg *config.Config, fileLogging bool) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	console := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	loggers := []logger.Logger{console}

	var fileLog *logger.FileLogger
	if fileLogging {
		fl, err := logger.NewFileLogger(cfg.LogPath(), cfg.LogLevel)
		if err != nil {
			console.LogWarn(fmt.Sprintf("file logging disabled: %v", err))
		} else {
			fileLog = fl
			loggers = append(loggers, fl)
		}
	}
	log := logger.NewMultiLogger(loggers...)

	hist, err := history.NewStore(cfg.HistoryPath())
	if err != nil {
		if fileLog != nil {
			fileLog.Close()
		}
		return nil, fmt.Errorf("failed to open scan history: %w", err)
	}

	store := snapshot.NewFileStore(cfg.SnapshotPath())

	var bulk traversal.Traverser
	if cfg.Scan.BulkEnabled {
		bulk = traversal.NewBulk(cfg.Scan.FindPath, cfg.Scan.ProgressBatch, log)
	}

	svc := scanner.New(scanner.Options{
		DefaultMaxDepth: cfg.Scan.DefaultMaxDepth,
		Excludes:        cfg.Scan.Excludes,
		Bulk:            bulk,
		Walk:            traversal.NewWalker(cfg.Workers(), cfg.Scan.FanoutDepth, log),
		Store:           store,
		History:         hist,
		HistoryKeep:     cfg.Storage.HistoryKeep,
		Logger:          log,
	})

	return &app{
		cfg:     cfg,
		log:     log,
		fileLog: fileLog,
		history: hist,
		store:   store,
		scanner: svc,
	}, nil
}

// Close releases the history database and the run log.
func (a *app) Close() error {
	err := a.history.Close()
	if a.fileLog != nil {
		if cerr := a.fileLog.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
