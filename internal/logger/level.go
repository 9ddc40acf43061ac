// Package logger provides the leveled loggers used by nuxview.
//
// Every logger writes lines of the form "[HH:MM:SS] [LEVEL] message" and
// drops messages below its configured level. Implementations are safe for
// concurrent use, since scan workers log from many goroutines.
package logger

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrison/nuxview/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Logger is the full logging surface shared by the console, file and multi
// loggers.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)

	LogScanStart(rootPath string, maxDepth int, strategy string)
	LogScanComplete(summary models.ScanSummary)
	LogDegraded(reason string)
}

// ValidLevel reports whether level names a known log level.
func ValidLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "error":
		return true
	}
	return false
}

// normalizeLogLevel lowercases level and returns "info" for empty or
// unknown values.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if ValidLevel(normalized) {
		return normalized
	}
	return "info"
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// enabled reports whether a message at messageLevel passes configured.
func enabled(configured, messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(configured)
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration renders d the way scan summaries show it: milliseconds
// below one second, otherwise seconds with one decimal, minutes past 60s.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) - minutes*60
		return fmt.Sprintf("%dm%02ds", minutes, seconds)
	}
}

// summaryLine renders the one-line outcome of a full scan.
func summaryLine(s models.ScanSummary) string {
	if s.Err != nil {
		return fmt.Sprintf("Scan %s of %s failed after %s: %v", shortID(s.ScanID), s.RootPath, formatDuration(s.Duration), s.Err)
	}
	return fmt.Sprintf("Scan %s of %s complete: %d directories via %s in %s",
		shortID(s.ScanID), s.RootPath, s.NodeCount, s.Strategy, formatDuration(s.Duration))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
