package logger

import (
	"context"
	"log/slog"
)

// ContextHandler adds request_id, task_id and agent_id attributes taken from
// the record's context before passing it on.
type ContextHandler struct {
	inner slog.Handler
}

// NewContextHandler wraps inner.
func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{inner: inner}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	for _, kv := range [...]struct {
		key string
		val string
	}{
		{"request_id", RequestID(ctx)},
		{"task_id", TaskID(ctx)},
		{"agent_id", AgentID(ctx)},
	} {
		if kv.val != "" && !hasAttr(rec, kv.key) {
			rec.AddAttrs(slog.String(kv.key, kv.val))
		}
	}
	return h.inner.Handle(ctx, rec)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}

// hasAttr reports whether the call site already logged key explicitly.
func hasAttr(rec slog.Record, key string) bool { //nolint:gocritic // slog.Record is passed by value throughout slog
	found := false
	rec.Attrs(func(a slog.Attr) bool {
		found = a.Key == key
		return !found
	})
	return found
}
