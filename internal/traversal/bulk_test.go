package traversal

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/nuxview/internal/exclude"
	"github.com/harrison/nuxview/internal/models"
)

func TestBuildFindArgs(t *testing.T) {
	rules := exclude.NewWithoutDefaults(".git", "var/lib/docker", "we[ir]d")

	args := BuildFindArgs("/data/root", 3, rules)

	assert.Equal(t, []string{
		"-H", "/data/root", "-maxdepth", "4", "-type", "d",
		"(", "!", "-path", "/data/root", "(",
		"-name", ".git", "-o", "-name", `we\[ir\]d`, "-o", "-path", "*/var/lib/docker",
		")", "-prune", "-o", "-print", ")",
	}, args)
}

func TestBuildFindArgs_NoRules(t *testing.T) {
	assert.Equal(t,
		[]string{"-H", "/r", "-maxdepth", "2", "-type", "d", "-print"},
		BuildFindArgs("/r", 1, nil))
	assert.Equal(t,
		[]string{"-H", "/r", "-type", "d", "-print"},
		BuildFindArgs("/r", 0, exclude.NewWithoutDefaults()))
}

type ceilingProgress struct {
	countingProgress
	ceilings []int
}

func (c *ceilingProgress) SetCeiling(p int) { c.ceilings = append(c.ceilings, p) }

func TestCollectPaths_BatchesProgress(t *testing.T) {
	var lines []string
	for i := 0; i < 7; i++ {
		lines = append(lines, "/r/d"+string(rune('a'+i)))
	}
	input := strings.Join(lines, "\n") + "\n\n"

	progress := &countingProgress{}
	paths, err := collectPaths(strings.NewReader(input), "/r", 0, 3, progress)
	require.NoError(t, err)

	assert.Equal(t, lines, paths)
	assert.Equal(t, 7, progress.scanned)
	// one batch of lookahead plus one per completed batch
	assert.Equal(t, 3+3+3, progress.discovered)
	assert.Less(t, progress.scanned, progress.discovered)
}

func TestCollectPaths_HintLinesNotCounted(t *testing.T) {
	input := "/r\n/r/a\n/r/a/b\n/r/a/b/c\n/r/d\n"

	progress := &countingProgress{}
	paths, err := collectPaths(strings.NewReader(input), "/r", 1, 10, progress)
	require.NoError(t, err)

	assert.Len(t, paths, 5)
	assert.Equal(t, 3, progress.scanned)
}

func TestFilterPaths(t *testing.T) {
	rules := exclude.New("skip")
	paths := []string{"/r", "/r/a", "/r/skip", "/r/.git", "/r/a/keep/"}

	got := filterPaths(paths, "/r", rules)
	assert.Equal(t, []string{"/r", "/r/a", "/r/a/keep"}, got)
}

func TestBulk_Unavailable(t *testing.T) {
	b := NewBulk("definitely-not-a-real-find-binary", 0, nil)
	assert.False(t, b.Available())

	_, err := b.Traverse(context.Background(), t.TempDir(), Options{MaxDepth: 2}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	var se *StrategyError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, models.StrategyBulk, se.Strategy)
}

func TestBulk_NoOutputIsAnError(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true(1) not available")
	}
	b := NewBulk("true", 0, nil)

	_, err := b.Traverse(context.Background(), t.TempDir(), Options{MaxDepth: 2}, nil)
	assert.ErrorIs(t, err, ErrNoDirectories)
}

func TestBulk_SubprocessFailureWithoutOutput(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false(1) not available")
	}
	b := NewBulk("false", 0, nil)

	_, err := b.Traverse(context.Background(), t.TempDir(), Options{MaxDepth: 2}, nil)
	require.Error(t, err)
	var exitErr *exec.ExitError
	assert.True(t, errors.As(err, &exitErr))
}

func TestBulk_CeilingAroundAssembly(t *testing.T) {
	if _, err := exec.LookPath("find"); err != nil {
		t.Skip("find not available")
	}
	root := makeTree(t, "a/b", "c")
	progress := &ceilingProgress{}

	tree, err := NewBulk("find", 1, nil).Traverse(context.Background(), root, Options{MaxDepth: 5}, progress)
	require.NoError(t, err)

	assert.Equal(t, 4, tree.Count())
	assert.Equal(t, []int{BulkEnumerationCeiling, 100}, progress.ceilings)
	assert.Equal(t, 4, progress.scanned)
}

func TestBulk_ScannedMatchesNodeCount(t *testing.T) {
	if _, err := exec.LookPath("find"); err != nil {
		t.Skip("find not available")
	}
	root := makeTree(t, "a/b/c", "d/e")
	progress := &countingProgress{}

	tree, err := NewBulk("find", 2, nil).Traverse(context.Background(), root, Options{MaxDepth: 1}, progress)
	require.NoError(t, err)

	assert.Equal(t, 3, tree.Count())
	assert.Equal(t, tree.Count(), progress.scanned)
}

// fakeFind writes an executable that prints the given paths below its
// root argument, complains on stderr and exits with status 1.
func fakeFind(t *testing.T, rel ...string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")
	sb.WriteString("echo \"$2\"\n")
	for _, r := range rel {
		sb.WriteString("echo \"$2/" + r + "\"\n")
	}
	sb.WriteString("echo \"find: '$2/locked': Permission denied\" >&2\n")
	sb.WriteString("exit 1\n")

	script := filepath.Join(t.TempDir(), "find")
	require.NoError(t, os.WriteFile(script, []byte(sb.String()), 0755))
	return script
}

func TestBulk_NonZeroExitWithOutputKeepsPartialTree(t *testing.T) {
	root := filepath.Join(t.TempDir(), "root")
	logger := &recordingLogger{}
	b := NewBulk(fakeFind(t, "a", "a/b", "c"), 0, logger)

	tree, err := b.Traverse(context.Background(), root, Options{MaxDepth: 3}, nil)
	require.NoError(t, err)
	require.NotNil(t, tree)

	got := describe(t, tree)
	assert.Equal(t, "a,c", got["."].Children)
	assert.Equal(t, "b", got["a"].Children)
	assert.Equal(t, 4, tree.Count())

	require.Len(t, logger.messages, 1)
	assert.Contains(t, logger.messages[0], "DEBUG find exited with exit status 1 after 4 entries under "+root)
	assert.Contains(t, logger.messages[0], "keeping partial result")
}

func TestSelect(t *testing.T) {
	walk := NewWalker(1, 0, nil)
	present := &Bulk{FindPath: "find", lookPath: func(string) (string, error) { return "/usr/bin/find", nil }}
	missing := &Bulk{FindPath: "find", lookPath: func(string) (string, error) { return "", exec.ErrNotFound }}

	got, degraded := Select(1, present, walk)
	assert.Equal(t, Traverser(walk), got)
	assert.False(t, degraded)

	got, degraded = Select(5, present, walk)
	assert.Equal(t, Traverser(present), got)
	assert.False(t, degraded)

	got, degraded = Select(5, missing, walk)
	assert.Equal(t, Traverser(walk), got)
	assert.True(t, degraded)

	got, degraded = Select(5, nil, walk)
	assert.Equal(t, Traverser(walk), got)
	assert.False(t, degraded)
}
