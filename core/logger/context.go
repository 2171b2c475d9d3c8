package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

type loggerKey struct{}

// meta is the request metadata attached to every record logged with ctx.
type meta struct {
	rid      string
	updateID int
	userID   int64
	chatID   int64
	handler  string
	traceID  string
	spanID   string
}

func metaFrom(ctx context.Context) meta {
	if ctx == nil {
		return meta{}
	}
	m, _ := ctx.Value(ctxKey{}).(meta)
	return m
}

func withMeta(ctx context.Context, update func(*meta)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	m := metaFrom(ctx)
	update(&m)
	return context.WithValue(ctx, ctxKey{}, m)
}

// WithLogger stores log in ctx; FromContext returns it.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, log)
}

// FromContext returns the logger stored in ctx or the global one.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// WithRID sets the request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return withMeta(ctx, func(m *meta) { m.rid = rid })
}

func RIDFrom(ctx context.Context) string { return metaFrom(ctx).rid }

// WithUpdateMeta records the Telegram update, user and chat ids.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return withMeta(ctx, func(m *meta) {
		m.updateID = updateID
		m.userID = userID
		m.chatID = chatID
	})
}

func UpdateIDFrom(ctx context.Context) int   { return metaFrom(ctx).updateID }
func UserIDFrom(ctx context.Context) int64   { return metaFrom(ctx).userID }
func ChatIDFrom(ctx context.Context) int64   { return metaFrom(ctx).chatID }
func HandlerFrom(ctx context.Context) string { return metaFrom(ctx).handler }

// WithHandler names the handler serving the update. Empty names are ignored.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return withMeta(ctx, func(m *meta) { m.handler = handler })
}

// WithTrace tags a long running operation, e.g. a broadcast, so its
// records can be grepped together.
func WithTrace(ctx context.Context, traceID, spanID string) context.Context {
	return withMeta(ctx, func(m *meta) {
		if traceID != "" {
			m.traceID = traceID
		}
		if spanID != "" {
			m.spanID = spanID
		}
	})
}

// attrs returns the metadata as log fields, skipping zero values.
func (m meta) attrs() []slog.Attr {
	out := make([]slog.Attr, 0, 7)
	add := func(key, val string) {
		if val != "" {
			out = append(out, slog.String(key, val))
		}
	}
	add("rid", m.rid)
	add("trace_id", m.traceID)
	add("span_id", m.spanID)
	if m.updateID != 0 {
		out = append(out, slog.Int("update_id", m.updateID))
	}
	if m.userID != 0 {
		out = append(out, slog.Int64("user_id", m.userID))
	}
	if m.chatID != 0 {
		out = append(out, slog.Int64("chat_id", m.chatID))
	}
	add("handler", m.handler)
	return out
}
