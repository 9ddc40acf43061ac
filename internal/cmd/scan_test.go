package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/nuxview/internal/models"
	"github.com/harrison/nuxview/internal/scanner"
)

func TestScan_Summary(t *testing.T) {
	home := setupHome(t)
	root := makeDirs(t, "a/b", ".git/objects")

	stdout, stderr, err := execute(t, "scan", "--no-bulk", "--depth", "3", root)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Scan complete: 3 directories under "+root)
	assert.Contains(t, stdout, "Strategy: walk")
	assert.Contains(t, stderr, "progress: 100% (3/3)")

	assert.FileExists(t, filepath.Join(home, "data", "linux_folder_tree.json"))
	assert.FileExists(t, filepath.Join(home, "logs", "latest.log"))
}

func TestScan_JSON(t *testing.T) {
	setupHome(t)
	root := makeDirs(t, "a/b/c", "d", "node_modules/pkg", "skip/me")

	stdout, _, err := execute(t, "scan", "--no-bulk", "--json", "-d", "2", "--exclude", "skip", root)
	require.NoError(t, err)

	var tree models.Node
	require.NoError(t, json.Unmarshal([]byte(stdout), &tree))
	assert.Equal(t, root, tree.Path)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "a", tree.Children[0].Name)
	assert.Equal(t, "d", tree.Children[1].Name)

	b := tree.Children[0].Children[0]
	assert.Equal(t, "b", b.Name)
	assert.Nil(t, b.Children, "depth limit leaves b unexpanded")
	assert.True(t, b.HasChildren)
}

func TestScan_Bulk(t *testing.T) {
	if _, err := exec.LookPath("find"); err != nil {
		t.Skip("find not available")
	}
	setupHome(t)
	root := makeDirs(t, "x/y", "z")

	stdout, _, err := execute(t, "scan", "--depth", "4", root)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Scan complete: 4 directories")
	assert.Contains(t, stdout, "Strategy: bulk")
}

func TestScan_Errors(t *testing.T) {
	setupHome(t)
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	_, _, err := execute(t, "scan", filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, scanner.ErrPathNotFound)

	_, _, err = execute(t, "scan", file)
	assert.ErrorIs(t, err, scanner.ErrNotDirectory)

	_, _, err = execute(t, "scan", "--depth", "-1", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--depth must be >= 0")

	_, _, err = execute(t, "scan", "a", "b")
	assert.Error(t, err)
}

func TestTree_LiveThenCached(t *testing.T) {
	setupHome(t)
	root := makeDirs(t, "one/two")

	stdout, _, err := execute(t, "tree")
	require.NoError(t, err)
	var live scanner.CachedTree
	require.NoError(t, json.Unmarshal([]byte(stdout), &live))
	assert.True(t, live.Live)
	assert.Equal(t, scanner.FilesystemRoot, live.Path)

	_, _, err = execute(t, "scan", "--no-bulk", root)
	require.NoError(t, err)

	stdout, _, err = execute(t, "tree")
	require.NoError(t, err)
	var cached scanner.CachedTree
	require.NoError(t, json.Unmarshal([]byte(stdout), &cached))
	assert.False(t, cached.Live)
	assert.Equal(t, root, cached.Path)
	require.Len(t, cached.Root.Children, 1)
	assert.Nil(t, cached.Root.Children[0].Children, "only one level is served")
	assert.True(t, cached.Root.Children[0].HasChildren)
}

func TestExpand(t *testing.T) {
	setupHome(t)
	root := makeDirs(t, "a/b", "c", "vendor/x")

	stdout, _, err := execute(t, "expand", "--exclude", "vendor", root)
	require.NoError(t, err)

	var node models.Node
	require.NoError(t, json.Unmarshal([]byte(stdout), &node))
	require.Len(t, node.Children, 2)
	assert.Equal(t, "a", node.Children[0].Name)
	assert.True(t, node.Children[0].HasChildren)
	assert.Equal(t, "c", node.Children[1].Name)
	assert.False(t, node.Children[1].HasChildren)

	_, _, err = execute(t, "expand", filepath.Join(root, "nope"))
	assert.ErrorIs(t, err, scanner.ErrPathNotFound)

	_, _, err = execute(t, "expand")
	assert.Error(t, err)
}

// fakeScan is a statusSource whose scan ends when release is closed.
type fakeScan struct {
	mu      sync.Mutex
	status  models.ScanStatus
	release chan struct{}
	stopped bool
}

func (f *fakeScan) GetScanStatus() models.ScanStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeScan) Stop() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return false
	}
	f.stopped = true
	msg := scanner.ErrCancelled.Error()
	f.status.IsScanning = false
	f.status.LastError = &msg
	close(f.release)
	return true
}

func (f *fakeScan) Wait() { <-f.release }

func TestWatchScan_CancelStopsScan(t *testing.T) {
	f := &fakeScan{
		status:  models.ScanStatus{IsScanning: true, ProgressPercent: 12, ScannedCount: 12, TotalCount: 100},
		release: make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	st := watchScan(ctx, f, &out, time.Hour)

	assert.True(t, f.stopped)
	assert.Equal(t, "scan cancelled", st.Err())
	assert.Contains(t, out.String(), "stopping scan")
}

func TestWatchScan_PlainProgressOncePerStep(t *testing.T) {
	f := &fakeScan{
		status:  models.ScanStatus{ProgressPercent: 100, ScannedCount: 5, TotalCount: 5},
		release: make(chan struct{}),
	}
	close(f.release)

	var out bytes.Buffer
	st := watchScan(context.Background(), f, &out, time.Millisecond)

	assert.Nil(t, st.LastError)
	assert.Equal(t, 1, strings.Count(out.String(), "progress: 100% (5/5)"))
	assert.False(t, f.stopped)
}
