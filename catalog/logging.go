package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Custom levels bracketing slog's own, matching the teacher's
// internal/logger/slog.go convention for levels slog doesn't natively have.
const (
	slogLevelVerbose = slog.LevelDebug - 4
	slogLevelFatal   = slog.LevelError + 4
)

// SlogLogger is the default Logger implementation, adapted from the
// teacher's internal/logger/slog.go: level-mapped TRACE/FATAL, optional
// source location, JSON or text output.
type SlogLogger struct {
	l *slog.Logger
}

// SlogLoggerOpts configures NewSlogLogger.
type SlogLoggerOpts struct {
	Level     string // verbose|log|info|warning|error
	Format    string // json|text
	AddSource bool
}

// NewSlogLogger builds a Logger backed by log/slog.
func NewSlogLogger(opts SlogLoggerOpts) *SlogLogger {
	levels := map[string]slog.Level{
		"verbose": slogLevelVerbose,
		"log":     slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	lvl := slog.LevelInfo
	if v, ok := levels[strings.ToLower(opts.Level)]; ok {
		lvl = v
	}

	replaceAttr := func(_ []string, attr slog.Attr) slog.Attr {
		if opts.AddSource && attr.Key == slog.SourceKey {
			if src, ok := attr.Value.Any().(*slog.Source); ok {
				src.File = filepath.Base(src.File)
				attr.Value = slog.AnyValue(src)
			}
		}
		if attr.Key == slog.LevelKey {
			if recLvl, ok := attr.Value.Any().(slog.Level); ok {
				switch recLvl {
				case slogLevelVerbose:
					return slog.String(slog.LevelKey, "VERBOSE")
				case slogLevelFatal:
					return slog.String(slog.LevelKey, "FATAL")
				}
			}
		}
		return attr
	}

	handlerOpts := &slog.HandlerOptions{
		AddSource:   opts.AddSource,
		Level:       lvl,
		ReplaceAttr: replaceAttr,
	}

	var h slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		h = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		h = slog.NewTextHandler(os.Stderr, handlerOpts)
	}

	return &SlogLogger{l: slog.New(h.WithAttrs([]slog.Attr{slog.Int("pid", os.Getpid())}))}
}

var _ Logger = (*SlogLogger)(nil)

func (s *SlogLogger) Verbose(msg string, args ...any) { s.l.Log(nil, slogLevelVerbose, msg, args...) }
func (s *SlogLogger) Log(msg string, args ...any)     { s.l.Debug(msg, args...) }
func (s *SlogLogger) Info(msg string, args ...any)    { s.l.Info(msg, args...) }
func (s *SlogLogger) Warning(msg string, args ...any) { s.l.Warn(msg, args...) }

// Error logs at FATAL and terminates the process, matching spec.md §7's
// "ERROR is fatal to the process" policy.
func (s *SlogLogger) Error(msg string, args ...any) {
	s.l.Log(nil, slogLevelFatal, msg, args...)
	os.Exit(1)
}

// noopLogger discards everything; used as the zero-value default so callers
// that don't supply a Logger don't nil-panic, and in tests.
type noopLogger struct{}

var _ Logger = noopLogger{}

func (noopLogger) Verbose(string, ...any) {}
func (noopLogger) Log(string, ...any)     {}
func (noopLogger) Info(string, ...any)    {}
func (noopLogger) Warning(string, ...any) {}
func (noopLogger) Error(msg string, args ...any) {
	panic(fmt.Sprintf("catalog: fatal: %s %v", msg, args))
}

// NopLogger returns a Logger that discards Verbose/Log/Info/Warning and
// panics on Error (since Error has nowhere to terminate to in a test).
func NopLogger() Logger { return noopLogger{} }
