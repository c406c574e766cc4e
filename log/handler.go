// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/holiman/uint256"
)

const (
	timeFormat     = "2006-01-02T15:04:05-0700"
	termTimeFormat = "01-02|15:04:05.000"
	termMsgJust    = 40
)

type discardHandler struct{}

// DiscardHandler returns a no-op handler
func DiscardHandler() slog.Handler {
	return &discardHandler{}
}

func (h *discardHandler) Handle(_ context.Context, _ slog.Record) error { return nil }

func (h *discardHandler) Enabled(_ context.Context, _ slog.Level) bool { return false }

func (h *discardHandler) WithGroup(_ string) slog.Handler {
	panic("not implemented")
}

func (h *discardHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return &discardHandler{}
}

// TerminalHandler formats records for humans:
//
//	LEVEL [TIME] MESSAGE key=value key=value ...
type TerminalHandler struct {
	mu       sync.Mutex
	wr       io.Writer
	lvl      *slog.LevelVar
	useColor bool
	attrs    []slog.Attr

	buf []byte
}

// NewTerminalHandler returns a terminal handler that outputs every level.
func NewTerminalHandler(wr io.Writer, useColor bool) *TerminalHandler {
	var level slog.LevelVar
	level.Set(levelMaxVerbosity)
	return NewTerminalHandlerWithLevel(wr, &level, useColor)
}

// NewTerminalHandlerWithLevel returns the same handler as NewTerminalHandler but only outputs
// records which are at or above the specified level.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl *slog.LevelVar, useColor bool) *TerminalHandler {
	return &TerminalHandler{
		wr:       wr,
		lvl:      lvl,
		useColor: useColor,
	}
}

func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	buf := h.format(h.buf, r)
	h.wr.Write(buf)
	h.buf = buf[:0]
	return nil
}

func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl.Level()
}

func (h *TerminalHandler) WithGroup(_ string) slog.Handler {
	panic("not implemented")
}

func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TerminalHandler{
		wr:       h.wr,
		lvl:      h.lvl,
		useColor: h.useColor,
		attrs:    append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *TerminalHandler) format(buf []byte, r slog.Record) []byte {
	lvl := LevelAlignedString(r.Level)
	if h.useColor {
		color := 0
		switch {
		case r.Level >= LevelCrit:
			color = 35
		case r.Level >= slog.LevelError:
			color = 31
		case r.Level >= slog.LevelWarn:
			color = 33
		case r.Level >= slog.LevelInfo:
			color = 32
		case r.Level >= slog.LevelDebug:
			color = 36
		default:
			color = 34
		}
		lvl = fmt.Sprintf("\x1b[%dm%s\x1b[0m", color, lvl)
	}
	buf = append(buf, lvl...)
	buf = append(buf, " ["...)
	buf = r.Time.AppendFormat(buf, termTimeFormat)
	buf = append(buf, "] "...)
	buf = append(buf, r.Message...)
	if pad := termMsgJust - len(r.Message); pad > 0 && (len(h.attrs) > 0 || r.NumAttrs() > 0) {
		buf = append(buf, strings.Repeat(" ", pad)...)
	}

	writeAttr := func(attr slog.Attr) {
		attr = builtinReplace(nil, attr, true)
		buf = append(buf, ' ')
		buf = append(buf, attr.Key...)
		buf = append(buf, '=')
		buf = appendEscaped(buf, attr.Value.String())
	}
	for _, attr := range h.attrs {
		writeAttr(attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		writeAttr(attr)
		return true
	})
	return append(buf, '\n')
}

func appendEscaped(buf []byte, s string) []byte {
	if s == "" || strings.ContainsAny(s, " =\"\t\n") {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

type leveler struct{ minLevel *slog.LevelVar }

func (l *leveler) Level() slog.Level {
	return l.minLevel.Level()
}

// JSONHandler returns a handler which prints records in JSON format.
func JSONHandler(wr io.Writer) slog.Handler {
	var level slog.LevelVar
	level.Set(levelMaxVerbosity)
	return JSONHandlerWithLevel(wr, &level)
}

// JSONHandlerWithLevel returns a handler which prints records in JSON format that are at or
// above the specified level.
func JSONHandlerWithLevel(wr io.Writer, level *slog.LevelVar) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{
		ReplaceAttr: builtinReplaceJSON,
		Level:       &leveler{level},
	})
}

// LogfmtHandlerWithLevel returns a logfmt handler which outputs records at or above the level.
func LogfmtHandlerWithLevel(wr io.Writer, level *slog.LevelVar) slog.Handler {
	return slog.NewTextHandler(wr, &slog.HandlerOptions{
		ReplaceAttr: builtinReplaceLogfmt,
		Level:       &leveler{level},
	})
}

func builtinReplaceLogfmt(_ []string, attr slog.Attr) slog.Attr {
	return builtinReplace(nil, attr, true)
}

func builtinReplaceJSON(_ []string, attr slog.Attr) slog.Attr {
	return builtinReplace(nil, attr, false)
}

func builtinReplace(_ []string, attr slog.Attr, logfmt bool) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		if attr.Value.Kind() == slog.KindTime {
			if logfmt {
				return slog.String("t", attr.Value.Time().Format(timeFormat))
			}
			return slog.Attr{Key: "t", Value: attr.Value}
		}
	case slog.LevelKey:
		if l, ok := attr.Value.Any().(slog.Level); ok {
			return slog.Any("lvl", LevelString(l))
		}
	}

	switch v := attr.Value.Any().(type) {
	case time.Time:
		if logfmt {
			attr = slog.String(attr.Key, v.Format(timeFormat))
		}
	case *big.Int:
		if v == nil {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.String())
		}
	case *uint256.Int:
		if v == nil {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.Dec())
		}
	case fmt.Stringer:
		if v == nil || (reflect.ValueOf(v).Kind() == reflect.Pointer && reflect.ValueOf(v).IsNil()) {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.String())
		}
	}
	return attr
}
