package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// SimGroup is the group every record's simulation attributes are nested under.
const SimGroup = "sim"

// ContextSource describes the simulation state at the time of a record.
// The coordinator implements it with LogContext.
type ContextSource interface {
	LogContext() []slog.Attr
}

// ContextFunc adapts a function to ContextSource.
type ContextFunc func() []slog.Attr

// LogContext implements ContextSource.
func (f ContextFunc) LogContext() []slog.Attr {
	if f == nil {
		return nil
	}
	return f()
}

// LateSource is a ContextSource bound after the logger is built. Records
// logged before Bind carry no sim group.
type LateSource struct {
	src atomic.Pointer[ContextSource]
}

// Bind sets the source records read from. Passing nil unbinds it.
func (l *LateSource) Bind(src ContextSource) {
	if src == nil {
		l.src.Store(nil)
		return
	}
	l.src.Store(&src)
}

// LogContext implements ContextSource.
func (l *LateSource) LogContext() []slog.Attr {
	if p := l.src.Load(); p != nil {
		return (*p).LogContext()
	}
	return nil
}

// ContextHandler nests the source's attributes under SimGroup on every
// record it passes to inner.
type ContextHandler struct {
	inner  slog.Handler
	source ContextSource
}

// NewContextHandler wraps inner.
func NewContextHandler(inner slog.Handler, source ContextSource) *ContextHandler {
	return &ContextHandler{inner: inner, source: source}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.source != nil {
		if attrs := h.source.LogContext(); len(attrs) > 0 {
			r = r.Clone()
			r.AddAttrs(slog.Attr{Key: SimGroup, Value: slog.GroupValue(attrs...)})
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), source: h.source}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name), source: h.source}
}
