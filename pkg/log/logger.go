// Package log wires the standard log/slog package to the pipeline. Errors
// built with pkg/errors carry cockroachdb stacktraces; the handler in this
// package surfaces them as a structured attribute instead of losing them in
// the message string.
package log

import (
	"fmt"
	"log/slog"
	"os"
)

// Setup installs a JSON slog handler at the given level as the process
// default logger.
func Setup(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
	}
	handler := slog.NewJSONHandler(os.Stderr, &ops)
	slog.SetDefault(slog.New(WrapByErrFmtHandler(handler)))
}

// ToLogLevel converts a level name to a slog.Level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
