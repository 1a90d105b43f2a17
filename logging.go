package particles

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger writes text records through slog. Info and debug go to out,
// warnings and errors to errOut.
type DefaultLogger struct {
	level *slog.LevelVar
	out   *slog.Logger
	err   *slog.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewLogger(os.Stdout, os.Stderr, prefix, debug)
}

func NewLogger(out, errOut io.Writer, prefix string, debug bool) *DefaultLogger {
	level := &slog.LevelVar{}
	if debug {
		level.Set(slog.LevelDebug)
	}
	opts := &slog.HandlerOptions{Level: level}

	outLogger := slog.New(slog.NewTextHandler(out, opts))
	errLogger := slog.New(slog.NewTextHandler(errOut, opts))
	if prefix != "" {
		outLogger = outLogger.With("component", prefix)
		errLogger = errLogger.With("component", prefix)
	}
	return &DefaultLogger{level: level, out: outLogger, err: errLogger}
}

func (l *DefaultLogger) DebugEnabled() bool {
	return l.level.Level() <= slog.LevelDebug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	if enabled {
		l.level.Set(slog.LevelDebug)
	} else {
		l.level.Set(slog.LevelInfo)
	}
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	l.logf(l.out, slog.LevelDebug, format, args...)
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.logf(l.out, slog.LevelInfo, format, args...)
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.logf(l.err, slog.LevelWarn, format, args...)
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.logf(l.err, slog.LevelError, format, args...)
}

func (l *DefaultLogger) logf(target *slog.Logger, level slog.Level, format string, args ...any) {
	ctx := context.Background()
	if !target.Enabled(ctx, level) {
		return
	}
	target.Log(ctx, level, fmt.Sprintf(format, args...))
}

type nopLogger struct{}

func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) DebugEnabled() bool                { return false }
func (nopLogger) SetDebug(enabled bool)             {}
func (nopLogger) Debugf(format string, args ...any) {}
func (nopLogger) Infof(format string, args ...any)  {}
func (nopLogger) Warnf(format string, args ...any)  {}
func (nopLogger) Errorf(format string, args ...any) {}
