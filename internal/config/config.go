// Package config loads nuxview settings from $NUXVIEW_HOME/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ScanConfig controls traversal.
type ScanConfig struct {
	// DefaultMaxDepth bounds full scans that do not request a depth
	DefaultMaxDepth int `yaml:"default_max_depth"`

	// Excludes are user rules merged with the built-in exclusion list
	Excludes []string `yaml:"excludes"`

	// WorkersPerCPU sizes the walk worker pool (NumCPU * WorkersPerCPU)
	WorkersPerCPU int `yaml:"workers_per_cpu"`

	// FanoutDepth is the number of top levels walked in parallel
	FanoutDepth int `yaml:"fanout_depth"`

	// BulkEnabled allows the find(1) based strategy for full scans
	BulkEnabled bool `yaml:"bulk_enabled"`

	// FindPath is the find binary name or path
	FindPath string `yaml:"find_path"`

	// ProgressBatch is the number of find output lines per status update
	ProgressBatch int `yaml:"progress_batch"`
}

// StorageConfig locates persisted state.
type StorageConfig struct {
	// DataDir holds the snapshot and history database; relative to home
	DataDir string `yaml:"data_dir"`

	SnapshotFile string `yaml:"snapshot_file"`
	HistoryDB    string `yaml:"history_db"`

	// HistoryKeep is the number of scans kept in history (0 = unlimited)
	HistoryKeep int `yaml:"history_keep"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Listen string `yaml:"listen"`

	// StaticDir optionally serves a frontend bundle at /
	StaticDir string `yaml:"static_dir"`

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Config represents nuxview configuration options
type Config struct {
	// Home is the resolved nuxview home directory; not read from YAML
	Home string `yaml:"-"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written; relative to home
	LogDir string `yaml:"log_dir"`

	Scan    ScanConfig    `yaml:"scan"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
}

// DefaultConfig returns the built-in settings rooted at home.
func DefaultConfig(home string) *Config {
	return &Config{
		Home:     home,
		LogLevel: "info",
		LogDir:   "logs",
		Scan: ScanConfig{
			DefaultMaxDepth: 50,
			WorkersPerCPU:   4,
			FanoutDepth:     2,
			BulkEnabled:     true,
			FindPath:        "find",
			ProgressBatch:   1000,
		},
		Storage: StorageConfig{
			DataDir:      "data",
			SnapshotFile: "linux_folder_tree.json",
			HistoryDB:    "history.db",
			HistoryKeep:  500,
		},
		Server: ServerConfig{
			Listen:          "127.0.0.1:8000",
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// LoadConfig loads configuration from path on top of DefaultConfig(home).
// A missing file yields the defaults; a malformed file is an error.
func LoadConfig(home, path string) (*Config, error) {
	cfg := DefaultConfig(home)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Keys absent from the file keep their default values.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.Home = home
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	return cfg, nil
}

// Load resolves the home directory and loads its config.yaml.
func Load() (*Config, error) {
	home, err := GetHome()
	if err != nil {
		return nil, err
	}
	return LoadConfig(home, ConfigPath(home))
}

// MergeWithFlags applies CLI overrides. Nil pointers leave the configured
// value alone; extra excludes are appended.
func (c *Config) MergeWithFlags(maxDepth *int, logLevel *string, logDir *string, listen *string, bulkEnabled *bool, excludes []string) {
	if maxDepth != nil {
		c.Scan.DefaultMaxDepth = *maxDepth
	}
	if logLevel != nil {
		c.LogLevel = strings.ToLower(strings.TrimSpace(*logLevel))
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if listen != nil {
		c.Server.Listen = *listen
	}
	if bulkEnabled != nil {
		c.Scan.BulkEnabled = *bulkEnabled
	}
	c.Scan.Excludes = append(c.Scan.Excludes, excludes...)
}

// Validate returns an error describing the first invalid value.
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}
	if c.Scan.DefaultMaxDepth <= 0 {
		return fmt.Errorf("scan.default_max_depth must be > 0, got %d", c.Scan.DefaultMaxDepth)
	}
	if c.Scan.WorkersPerCPU <= 0 {
		return fmt.Errorf("scan.workers_per_cpu must be > 0, got %d", c.Scan.WorkersPerCPU)
	}
	if c.Scan.FanoutDepth < 0 {
		return fmt.Errorf("scan.fanout_depth must be >= 0, got %d", c.Scan.FanoutDepth)
	}
	if c.Scan.ProgressBatch <= 0 {
		return fmt.Errorf("scan.progress_batch must be > 0, got %d", c.Scan.ProgressBatch)
	}
	if c.Scan.BulkEnabled && c.Scan.FindPath == "" {
		return fmt.Errorf("scan.find_path cannot be empty when bulk scanning is enabled")
	}
	if c.Storage.SnapshotFile == "" {
		return fmt.Errorf("storage.snapshot_file cannot be empty")
	}
	if c.Storage.HistoryDB == "" {
		return fmt.Errorf("storage.history_db cannot be empty")
	}
	if c.Storage.HistoryKeep < 0 {
		return fmt.Errorf("storage.history_keep must be >= 0, got %d", c.Storage.HistoryKeep)
	}
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen cannot be empty")
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must be >= 0, got %v", c.Server.ShutdownTimeout)
	}
	return nil
}

// Workers returns the walk worker pool size.
func (c *Config) Workers() int {
	return runtime.NumCPU() * c.Scan.WorkersPerCPU
}

// LogPath returns the absolute log directory.
func (c *Config) LogPath() string {
	return c.resolve(c.LogDir)
}

// DataPath returns the absolute data directory.
func (c *Config) DataPath() string {
	return c.resolve(c.Storage.DataDir)
}

// SnapshotPath returns the absolute snapshot file path.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataPath(), c.Storage.SnapshotFile)
}

// HistoryPath returns the absolute history database path.
func (c *Config) HistoryPath() string {
	if c.Storage.HistoryDB == ":memory:" {
		return c.Storage.HistoryDB
	}
	return filepath.Join(c.DataPath(), c.Storage.HistoryDB)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.Home == "" {
		return p
	}
	return filepath.Join(c.Home, p)
}
