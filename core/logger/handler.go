package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const tsLayout = "2006-01-02T15:04:05.000Z07:00"

type lineWriter interface {
	Write(p []byte) error
}

// handler renders records as single JSON or key=value lines.
type handler struct {
	level  slog.Leveler
	out    lineWriter
	format logFormat
	order  []string

	attrs  []slog.Attr
	prefix string
}

var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

func newHandler(out lineWriter, level slog.Leveler, format logFormat, order []string) *handler {
	if level == nil {
		level = slog.LevelInfo
	}
	if order == nil {
		order = keyOrder
	}
	return &handler{level: level, out: out, format: format, order: order}
}

func (h *handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	ts = ts.UTC()

	rec := newRecord()
	rec.set("ts", ts.Truncate(time.Millisecond).Format(tsLayout))
	rec.set("level", r.Level.String())
	if h.format == formatJSON {
		rec.set("ts_unix_nano", ts.UnixNano())
	}
	for _, a := range h.attrs {
		rec.add("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.add(h.prefix, a)
		return true
	})
	for _, a := range metaFrom(ctx).attrs() {
		rec.setDefault(a.Key, a.Value.Any())
	}
	rec.finish(r.Message, h.format == formatJSON)

	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	var err error
	if h.format == formatJSON {
		err = encodeJSON(buf, rec, h.order)
	} else {
		err = encodeKV(buf, rec, h.order)
	}
	if err != nil {
		return err
	}
	return h.out.Write(buf.Bytes())
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + "." + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *handler) WithGroup(name string) slog.Handler {
	name = strings.TrimSpace(name)
	if name == "" {
		return h
	}
	clone := *h
	if clone.prefix == "" {
		clone.prefix = name
	} else {
		clone.prefix += "." + name
	}
	return &clone
}
