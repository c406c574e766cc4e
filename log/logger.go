// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"math"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

const errorKey = "LOG_ERROR"

const (
	levelMaxVerbosity slog.Level = math.MinInt
	LevelTrace        slog.Level = -8
	LevelDebug                   = slog.LevelDebug
	LevelInfo                    = slog.LevelInfo
	LevelWarn                    = slog.LevelWarn
	LevelError                   = slog.LevelError
	LevelCrit         slog.Level = 12
)

// legacy 0-9 verbosity values accepted by the --verbosity flag
const (
	LegacyLevelCrit = iota
	LegacyLevelError
	LegacyLevelWarn
	LegacyLevelInfo
	LegacyLevelDebug
	LegacyLevelTrace
)

// FromLegacyLevel converts from old verbosity values (0-9) to slog levels.
func FromLegacyLevel(lvl int) slog.Level {
	switch lvl {
	case LegacyLevelCrit:
		return LevelCrit
	case LegacyLevelError:
		return slog.LevelError
	case LegacyLevelWarn:
		return slog.LevelWarn
	case LegacyLevelInfo:
		return slog.LevelInfo
	case LegacyLevelDebug:
		return slog.LevelDebug
	case LegacyLevelTrace:
		return LevelTrace
	}
	if lvl > LegacyLevelTrace {
		return LevelTrace
	}
	return LevelCrit
}

// LevelAlignedString returns a 5-character string containing the name of a level.
func LevelAlignedString(l slog.Level) string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO "
	case slog.LevelWarn:
		return "WARN "
	case slog.LevelError:
		return "ERROR"
	case LevelCrit:
		return "CRIT "
	default:
		return "unknown level"
	}
}

// LevelString returns a string containing the name of a level.
func LevelString(l slog.Level) string {
	return strings.TrimSpace(LevelAlignedString(l))
}

// ParseLevel parses a level name as accepted by the admin endpoint.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "crit":
		return LevelCrit, nil
	}
	return 0, errors.Errorf("unknown level %q", s)
}

// A Logger writes key/value pairs to a Handler
type Logger interface {
	// With returns a new Logger that has this logger's attributes plus the given attributes
	With(ctx ...any) Logger

	// Log logs a message at the specified level with context key/value pairs
	Log(level slog.Level, msg string, ctx ...any)

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)

	// Enabled reports whether l emits log records at the given context and level.
	Enabled(ctx context.Context, level slog.Level) bool
}

type logger struct {
	inner *slog.Logger
}

// NewLogger returns a logger with the specified handler set
func NewLogger(h slog.Handler) Logger {
	return &logger{slog.New(h)}
}

func (l *logger) Write(level slog.Level, msg string, attrs ...any) {
	if !l.inner.Enabled(context.Background(), level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	if len(attrs)%2 != 0 {
		attrs = append(attrs, nil, errorKey, "Normalized odd number of arguments by adding nil")
	}
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(attrs...)
	l.inner.Handler().Handle(context.Background(), r)
}

func (l *logger) Log(level slog.Level, msg string, attrs ...any) {
	l.Write(level, msg, attrs...)
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{l.inner.With(ctx...)}
}

func (l *logger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.inner.Enabled(ctx, level)
}

func (l *logger) Trace(msg string, ctx ...any) { l.Write(LevelTrace, msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...any) { l.Write(slog.LevelDebug, msg, ctx...) }
func (l *logger) Info(msg string, ctx ...any)  { l.Write(slog.LevelInfo, msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...any)  { l.Write(slog.LevelWarn, msg, ctx...) }
func (l *logger) Error(msg string, ctx ...any) { l.Write(slog.LevelError, msg, ctx...) }

func (l *logger) Crit(msg string, ctx ...any) {
	l.Write(LevelCrit, msg, ctx...)
	os.Exit(1)
}

var root atomic.Value

func init() {
	root.Store(&rootHolder{NewLogger(DiscardHandler())})
}

type rootHolder struct{ l Logger }

// SetDefault sets the default global logger
func SetDefault(l Logger) {
	root.Store(&rootHolder{l})
	if lg, ok := l.(*logger); ok {
		slog.SetDefault(lg.inner)
	}
}

// Root returns the root logger
func Root() Logger {
	return root.Load().(*rootHolder).l
}

// contextLogger resolves the root logger lazily, so package level loggers created
// before SetDefault still write to the configured handler.
type contextLogger struct {
	ctx []any
}

// WithContext returns a logger carrying the given key/value pairs on top of the root logger.
func WithContext(ctx ...any) Logger {
	return &contextLogger{ctx: ctx}
}

func (c *contextLogger) resolve() Logger { return Root().With(c.ctx...) }

func (c *contextLogger) With(ctx ...any) Logger {
	return &contextLogger{ctx: append(append([]any{}, c.ctx...), ctx...)}
}

func (c *contextLogger) Log(level slog.Level, msg string, ctx ...any) {
	c.resolve().Log(level, msg, ctx...)
}

func (c *contextLogger) Trace(msg string, ctx ...any) { c.resolve().Trace(msg, ctx...) }
func (c *contextLogger) Debug(msg string, ctx ...any) { c.resolve().Debug(msg, ctx...) }
func (c *contextLogger) Info(msg string, ctx ...any)  { c.resolve().Info(msg, ctx...) }
func (c *contextLogger) Warn(msg string, ctx ...any)  { c.resolve().Warn(msg, ctx...) }
func (c *contextLogger) Error(msg string, ctx ...any) { c.resolve().Error(msg, ctx...) }
func (c *contextLogger) Crit(msg string, ctx ...any)  { c.resolve().Crit(msg, ctx...) }

func (c *contextLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return c.resolve().Enabled(ctx, level)
}

func Trace(msg string, ctx ...any) { Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { Root().Error(msg, ctx...) }
func Crit(msg string, ctx ...any)  { Root().Crit(msg, ctx...) }
