package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// logFileName is the file created inside the log directory.
const logFileName = "dispatch.log"

// New creates a *slog.Logger at the given level. When dir is non-empty
// the logger writes to dir/dispatch.log through a size-rotating writer
// (creating the directory as needed); otherwise it writes to stderr.
// The returned close function flushes and closes the log file and is a
// no-op for stderr loggers.
func New(dir, level string) (*slog.Logger, func() error, error) {
	var writer io.Writer = os.Stderr
	closer := func() error { return nil }

	if dir != "" {
		rw, err := NewRotatingWriter(filepath.Join(dir, logFileName), DefaultRotationConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		writer = rw
		closer = rw.Close
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler), closer, nil
}

// ParseLevel converts a string log level to slog.Level. Unrecognized
// levels default to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Nop returns a logger that discards all output. Useful in tests.
func Nop() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
