package logger

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"
)

// record collects the fields of one log line. Later writes of a key win,
// context metadata only fills keys that are still missing.
type record struct {
	keys   []string
	values map[string]any
}

func newRecord() *record {
	return &record{values: make(map[string]any, 16)}
}

func (r *record) set(key string, v any) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

func (r *record) setDefault(key string, v any) {
	if _, ok := r.values[key]; !ok {
		r.set(key, v)
	}
}

func (r *record) str(key string) string {
	switch v := r.values[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (r *record) del(key string) {
	delete(r.values, key)
}

// add flattens groups into dotted keys and converts the value to a plain
// Go type suitable for both encoders.
func (r *record) add(prefix string, a slog.Attr) {
	key := a.Key
	if prefix != "" {
		if key == "" {
			key = prefix
		} else {
			key = prefix + "." + key
		}
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			r.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	key, val, ok := plainValue(key, v)
	if ok {
		r.set(key, val)
	}
}

func plainValue(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return durationKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return key, nil, false
	case error:
		return key, x.Error(), true
	case time.Duration:
		return durationKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	case string:
		return key, strings.TrimSpace(x), true
	default:
		return key, fmt.Sprint(x), true
	}
}

// ordered returns the keys that carry a value: first those named in
// order, then the rest sorted.
func (r *record) ordered(order []string) []string {
	out := make([]string, 0, len(r.values))
	seen := make(map[string]bool, len(r.values))
	for _, k := range order {
		if _, ok := r.values[k]; ok && !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	var rest []string
	for _, k := range r.keys {
		if _, ok := r.values[k]; ok && !seen[k] {
			rest = append(rest, k)
			seen[k] = true
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

// finish applies the defaults every line carries and drops empty values.
func (r *record) finish(msg string, withFullRID bool) {
	if rid := r.str("rid"); rid != "" {
		if compact := CompactRID(rid); compact != rid {
			if withFullRID {
				r.setDefault("rid_full", rid)
			}
			r.set("rid", compact)
		}
	}
	if r.str("event") == "" {
		if msg == "" {
			msg = "unknown"
		}
		r.set("event", msg)
	}
	if r.str("component") == "" {
		r.set("component", "app")
	}
	r.set("level", levelName(r.str("level")))
	for key := range enumFields {
		if _, ok := r.values[key]; !ok {
			continue
		}
		if v, keep := normalizeEnum(key, r.str(key)); keep {
			r.set(key, v)
		} else {
			r.del(key)
		}
	}
	for k, v := range r.values {
		if v == nil || v == "" {
			r.del(k)
		}
	}
}
