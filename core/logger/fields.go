package logger

import "strings"

// keyOrder is the default column order of a log line. Keys not listed
// follow in lexical order.
var keyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "trace_id", "span_id", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "chat_type", "handler",
	"op", "cb_key", "outcome", "duration_ms",
	"provider", "query", "film", "source", "genre", "results", "count",
	"broadcast_id", "total", "sent", "failed", "blocked", "done",
	"job", "spec", "next_run",
	"mode", "username", "http_code", "db", "host", "port",
	"err", "err_code", "retryable", "attempts", "backoff_ms", "retry_after_ms",
}

// enumFields restricts some keys to a known vocabulary. Unknown values
// are kept for "status" and dropped for the rest.
var enumFields = map[string]struct {
	values    []string
	keepOther bool
}{
	"status":  {values: []string{"ok", "fail", "skip", "retry", "rate_limited", "cancelled"}, keepOther: true},
	"outcome": {values: []string{"ok", "fail", "cancelled", "rate_limited"}},
	"cache":   {values: []string{"hit", "miss", "refresh"}},
}

func normalizeEnum(key, value string) (string, bool) {
	spec, ok := enumFields[key]
	if !ok {
		return value, true
	}
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return "", false
	}
	for _, allowed := range spec.values {
		if v == allowed {
			return v, true
		}
	}
	return v, spec.keepOther
}

func levelName(s string) string {
	switch strings.ToLower(s) {
	case "", "info":
		return "INFO"
	case "warning":
		return "WARN"
	}
	return strings.ToUpper(s)
}

// durationKey renames duration fields so the unit is part of the key.
func durationKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}

func parseKeyOrder(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return keyOrder
	}
	var out []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		return keyOrder
	}
	return out
}
