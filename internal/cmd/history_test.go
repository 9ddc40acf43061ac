package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/nuxview/internal/history"
)

func TestHistory_Empty(t *testing.T) {
	setupHome(t)

	stdout, _, err := execute(t, "history")
	require.NoError(t, err)
	assert.Equal(t, "No scans recorded.\n", stdout)

	stdout, _, err = execute(t, "history", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", stdout)
}

func TestHistory_AfterScans(t *testing.T) {
	setupHome(t)
	first := makeDirs(t, "a")
	second := makeDirs(t, "b/c")

	_, _, err := execute(t, "scan", "--no-bulk", first)
	require.NoError(t, err)
	_, _, err = execute(t, "scan", "--no-bulk", second)
	require.NoError(t, err)

	stdout, _, err := execute(t, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "=== Recent scans (2) ===")
	assert.Contains(t, stdout, first)
	assert.Contains(t, stdout, second)
	assert.Contains(t, stdout, "Result: ok")

	stdout, _, err = execute(t, "history", "--json", "--limit", "1")
	require.NoError(t, err)
	var runs []history.ScanRun
	require.NoError(t, json.Unmarshal([]byte(stdout), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, second, runs[0].RootPath)
	assert.True(t, runs[0].Success)
	assert.Equal(t, 3, runs[0].NodeCount)
	assert.Equal(t, "walk", runs[0].Strategy)
}

func TestHistory_BadLimit(t *testing.T) {
	setupHome(t)
	_, _, err := execute(t, "history", "--limit", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--limit must be > 0")
}
