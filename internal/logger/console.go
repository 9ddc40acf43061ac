package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/nuxview/internal/models"
)

// ConsoleLogger writes leveled, timestamped lines to a writer. Level tokens
// are colored only when the writer is a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to writer. A nil
// writer discards everything. Unknown levels default to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: IsTerminal(writer),
	}
}

// IsTerminal reports whether w is a terminal that should receive ANSI
// colors. NO_COLOR (via color.NoColor) turns colors off everywhere.
func IsTerminal(w io.Writer) bool {
	if w == nil || color.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// LogTrace logs a trace-level message.
func (cl *ConsoleLogger) LogTrace(message string) { cl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) { cl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) { cl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) { cl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) { cl.logWithLevel("ERROR", message) }

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !enabled(cl.logLevel, strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	token := level
	if cl.colorOutput {
		token = colorLevel(level)
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", timestamp(), token, message)
}

func colorLevel(level string) string {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// LogScanStart logs the start of a full scan at INFO level.
// Format: "[HH:MM:SS] Scanning <root> (depth <n>, <strategy>)"
func (cl *ConsoleLogger) LogScanStart(rootPath string, maxDepth int, strategy string) {
	if cl.writer == nil || !enabled(cl.logLevel, "info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	root := rootPath
	if cl.colorOutput {
		root = color.New(color.Bold).Sprint(rootPath)
	}
	fmt.Fprintf(cl.writer, "[%s] Scanning %s (depth %d, %s)\n", timestamp(), root, maxDepth, strategy)
}

// LogScanComplete logs the outcome of a full scan: INFO on success, ERROR on
// failure.
func (cl *ConsoleLogger) LogScanComplete(summary models.ScanSummary) {
	level := "info"
	if summary.Err != nil {
		level = "error"
	}
	if cl.writer == nil || !enabled(cl.logLevel, level) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	line := summaryLine(summary)
	if cl.colorOutput {
		if summary.Err != nil {
			line = color.New(color.FgRed).Sprint(line)
		} else {
			line = color.New(color.FgGreen).Sprint(line)
		}
	}
	fmt.Fprintf(cl.writer, "[%s] %s\n", timestamp(), line)
}

// LogDegraded logs a switch to the portable traversal at WARN level.
func (cl *ConsoleLogger) LogDegraded(reason string) {
	cl.logWithLevel("WARN", "degraded mode: "+reason)
}
