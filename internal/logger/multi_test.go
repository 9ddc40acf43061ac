package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/nuxview/internal/models"
)

func TestMultiLogger_FansOut(t *testing.T) {
	quiet := &bytes.Buffer{}
	loud := &bytes.Buffer{}
	fl, err := NewFileLogger(t.TempDir(), "trace")
	require.NoError(t, err)
	defer fl.Close()

	m := NewMultiLogger(NewConsoleLogger(quiet, "warn"), nil, NewConsoleLogger(loud, "trace"), fl)

	m.LogTrace("t")
	m.LogDebug("d")
	m.LogInfo("i")
	m.LogWarn("w")
	m.LogError("e")
	m.LogScanStart("/", 2, "walk")
	m.LogDegraded("r")
	m.LogScanComplete(models.ScanSummary{ScanID: "s", RootPath: "/"})

	assert.Equal(t, 3, strings.Count(quiet.String(), "\n"), "warn, error and degraded")
	assert.Equal(t, 8, strings.Count(loud.String(), "\n"))
	assert.Contains(t, readLog(t, fl), "[TRACE] t")
}

func TestMultiLogger_Empty(t *testing.T) {
	m := NewMultiLogger()
	assert.NotPanics(t, func() { m.LogError("nothing listens") })
}
