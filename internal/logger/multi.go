package logger

import "github.com/harrison/nuxview/internal/models"

// MultiLogger forwards every call to each of its loggers in order.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger combines loggers, skipping nil entries.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

func (m *MultiLogger) LogTrace(message string) {
	for _, l := range m.loggers {
		l.LogTrace(message)
	}
}

func (m *MultiLogger) LogDebug(message string) {
	for _, l := range m.loggers {
		l.LogDebug(message)
	}
}

func (m *MultiLogger) LogInfo(message string) {
	for _, l := range m.loggers {
		l.LogInfo(message)
	}
}

func (m *MultiLogger) LogWarn(message string) {
	for _, l := range m.loggers {
		l.LogWarn(message)
	}
}

func (m *MultiLogger) LogError(message string) {
	for _, l := range m.loggers {
		l.LogError(message)
	}
}

func (m *MultiLogger) LogScanStart(rootPath string, maxDepth int, strategy string) {
	for _, l := range m.loggers {
		l.LogScanStart(rootPath, maxDepth, strategy)
	}
}

func (m *MultiLogger) LogScanComplete(summary models.ScanSummary) {
	for _, l := range m.loggers {
		l.LogScanComplete(summary)
	}
}

func (m *MultiLogger) LogDegraded(reason string) {
	for _, l := range m.loggers {
		l.LogDegraded(reason)
	}
}
