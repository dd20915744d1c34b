// Package logging manages slog-based logging for the retime tool. Log
// records fan out to console and a per-session log file, with the
// session's identity injected into every record.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LogFilePath builds a log file path using OS-appropriate path separators.
func LogFilePath(logsDir, toolName string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", toolName, sessionStart.Format("20060102_150405")),
	)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Manager owns the configured slog logger for one tool process.
type Manager struct {
	logger *slog.Logger
}

// NewManager creates an unconfigured logging manager.
func NewManager() *Manager {
	return &Manager{}
}

// Setup initializes logging with console and optional file output. The
// session provider, if non-nil, contributes attributes (session id,
// scope) to every record.
func (m *Manager) Setup(file io.Writer, level string, session AttrProvider) {
	lvl := parseLevel(level)

	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler
	handlers = append(handlers, slog.NewTextHandler(os.Stdout, handlerOpts))
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, handlerOpts))
	}

	m.logger = slog.New(newSessionHandler(session, handlers...))
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured slog.Logger.
func (m *Manager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}
