package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) (string, string) {
	t.Helper()
	home := t.TempDir()
	path := ConfigPath(home)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return home, path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/home/u/.nuxview")

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 50, cfg.Scan.DefaultMaxDepth)
	assert.Equal(t, 4, cfg.Scan.WorkersPerCPU)
	assert.Equal(t, 2, cfg.Scan.FanoutDepth)
	assert.True(t, cfg.Scan.BulkEnabled)
	assert.Equal(t, "127.0.0.1:8000", cfg.Server.Listen)
	assert.Equal(t, "/home/u/.nuxview/data/linux_folder_tree.json", cfg.SnapshotPath())
	assert.Equal(t, "/home/u/.nuxview/data/history.db", cfg.HistoryPath())
	assert.Equal(t, "/home/u/.nuxview/logs", cfg.LogPath())
	assert.Equal(t, runtime.NumCPU()*4, cfg.Workers())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	home := t.TempDir()
	cfg, err := LoadConfig(home, ConfigPath(home))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(home), cfg)
}

func TestLoadConfig_PartialOverrides(t *testing.T) {
	home, path := writeConfig(t, `
log_level: DEBUG
scan:
  default_max_depth: 8
  excludes: [build, "srv/cache"]
  bulk_enabled: false
storage:
  data_dir: /var/lib/nuxview
server:
  listen: 0.0.0.0:9000
  shutdown_timeout: 30s
`)

	cfg, err := LoadConfig(home, path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.Scan.DefaultMaxDepth)
	assert.Equal(t, []string{"build", "srv/cache"}, cfg.Scan.Excludes)
	assert.False(t, cfg.Scan.BulkEnabled)
	assert.Equal(t, 4, cfg.Scan.WorkersPerCPU, "unset keys keep defaults")
	assert.Equal(t, "find", cfg.Scan.FindPath)
	assert.Equal(t, "/var/lib/nuxview/linux_folder_tree.json", cfg.SnapshotPath())
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Listen)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, home, cfg.Home)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Malformed(t *testing.T) {
	home, path := writeConfig(t, "scan: [not, a, map\n")
	_, err := LoadConfig(home, path)
	assert.Error(t, err)

	home, path = writeConfig(t, "scan:\n  default_max_depth: deep\n")
	_, err = LoadConfig(home, path)
	assert.Error(t, err)
}

func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	cfg.Scan.Excludes = []string{"a"}

	depth := 3
	level := " WARN"
	listen := ":1234"
	bulk := false
	cfg.MergeWithFlags(&depth, &level, nil, &listen, &bulk, []string{"b"})

	assert.Equal(t, 3, cfg.Scan.DefaultMaxDepth)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "logs", cfg.LogDir)
	assert.Equal(t, ":1234", cfg.Server.Listen)
	assert.False(t, cfg.Scan.BulkEnabled)
	assert.Equal(t, []string{"a", "b"}, cfg.Scan.Excludes)

	cfg.MergeWithFlags(nil, nil, nil, nil, nil, nil)
	assert.Equal(t, 3, cfg.Scan.DefaultMaxDepth)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }},
		{name: "zero depth", mutate: func(c *Config) { c.Scan.DefaultMaxDepth = 0 }},
		{name: "negative depth", mutate: func(c *Config) { c.Scan.DefaultMaxDepth = -1 }},
		{name: "no workers", mutate: func(c *Config) { c.Scan.WorkersPerCPU = 0 }},
		{name: "negative fanout", mutate: func(c *Config) { c.Scan.FanoutDepth = -1 }},
		{name: "zero batch", mutate: func(c *Config) { c.Scan.ProgressBatch = 0 }},
		{name: "bulk without find", mutate: func(c *Config) { c.Scan.FindPath = "" }},
		{name: "no snapshot file", mutate: func(c *Config) { c.Storage.SnapshotFile = "" }},
		{name: "no history db", mutate: func(c *Config) { c.Storage.HistoryDB = "" }},
		{name: "negative keep", mutate: func(c *Config) { c.Storage.HistoryKeep = -5 }},
		{name: "no listen", mutate: func(c *Config) { c.Server.Listen = "" }},
		{name: "negative shutdown", mutate: func(c *Config) { c.Server.ShutdownTimeout = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("/h")
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig("/h")
	cfg.Scan.BulkEnabled = false
	cfg.Scan.FindPath = ""
	assert.NoError(t, cfg.Validate(), "find_path only matters with bulk enabled")
}

func TestGetHome(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "custom", "home")
	t.Setenv(HomeEnv, dir)

	home, err := GetHome()
	require.NoError(t, err)
	assert.Equal(t, dir, home)
	info, err := os.Stat(home)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestGetHome_DefaultsUnderUserHome(t *testing.T) {
	userHome := t.TempDir()
	t.Setenv(HomeEnv, "")
	t.Setenv("HOME", userHome)

	home, err := GetHome()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(userHome, ".nuxview"), home)
}

func TestLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)
	require.NoError(t, os.WriteFile(ConfigPath(home), []byte("log_level: error\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, home, cfg.Home)
}
