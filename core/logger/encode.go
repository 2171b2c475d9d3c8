package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type logFormat int

const (
	formatJSON logFormat = iota
	formatKV
)

func parseFormat(raw, profile string) logFormat {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	switch strings.ToLower(strings.TrimSpace(profile)) {
	case "debug", "dev":
		return formatKV
	}
	return formatJSON
}

func encodeJSON(buf *bytes.Buffer, r *record, order []string) error {
	buf.WriteByte('{')
	for i, k := range r.ordered(order) {
		data, err := json.Marshal(r.values[k])
		if err != nil {
			return fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(k))
		buf.WriteByte(':')
		buf.Write(data)
	}
	buf.WriteString("}\n")
	return nil
}

func encodeKV(buf *bytes.Buffer, r *record, order []string) error {
	for i, k := range r.ordered(order) {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(kvValue(r.values[k]))
	}
	buf.WriteByte('\n')
	return nil
}

func kvValue(v any) string {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		s = fmt.Sprint(x)
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
