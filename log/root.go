// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// current holds the handler every root derived logger forwards to.
var current atomic.Pointer[slog.Handler]

var root Logger

func init() {
	h := DiscardHandler()
	current.Store(&h)
	root = NewLogger(&forwardHandler{})
}

// SetDefault replaces the handler of the root logger. Loggers created by WithContext
// before the call, e.g. package level ones, follow the new handler.
func SetDefault(h slog.Handler) {
	current.Store(&h)
}

// Root returns the root logger.
func Root() Logger {
	return root
}

// WithContext returns a root derived logger carrying the given key/value pairs.
func WithContext(ctx ...any) Logger {
	return root.With(ctx...)
}

func Trace(msg string, ctx ...any) { root.Write(LevelTrace, msg, ctx...) }
func Debug(msg string, ctx ...any) { root.Write(slog.LevelDebug, msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Write(slog.LevelInfo, msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Write(slog.LevelWarn, msg, ctx...) }
func Error(msg string, ctx ...any) { root.Write(slog.LevelError, msg, ctx...) }

// forwardHandler resolves the current root handler on every record.
type forwardHandler struct {
	attrs []slog.Attr
}

func (h *forwardHandler) target() slog.Handler {
	t := *current.Load()
	if len(h.attrs) > 0 {
		t = t.WithAttrs(h.attrs)
	}
	return t
}

func (h *forwardHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return (*current.Load()).Enabled(ctx, level)
}

func (h *forwardHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.target().Handle(ctx, r)
}

func (h *forwardHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	return &forwardHandler{attrs: append(merged, attrs...)}
}

func (h *forwardHandler) WithGroup(_ string) slog.Handler {
	panic("not implemented")
}
