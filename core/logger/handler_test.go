package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriter struct{ bytes.Buffer }

func (m *memWriter) Write(p []byte) error {
	_, err := m.Buffer.Write(p)
	return err
}

func newTestLogger(format logFormat) (*slog.Logger, *memWriter) {
	out := &memWriter{}
	return slog.New(newHandler(out, slog.LevelDebug, format, nil)), out
}

func TestKVLineStartsWithFixedKeys(t *testing.T) {
	log, out := newTestLogger(formatKV)
	ctx := WithRID(context.Background(), BuildRID(10, 20, 30))

	log.With("component", "service.movies").LogAttrs(ctx, slog.LevelInfo, "",
		slog.String("event", "search"),
		slog.String("query", "matrix"),
		slog.Int("results", 3),
		slog.Duration("duration", 1500*time.Microsecond),
	)

	line := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(line, "ts="), line)
	assert.Contains(t, line, " level=INFO component=service.movies event=search rid=a.k.u ")
	assert.Contains(t, line, "duration_ms=2")
	assert.Less(t, strings.Index(line, "query="), strings.Index(line, "results="))
	assert.NotContains(t, line, "rid_full")
}

func TestJSONLineCarriesContextMetadata(t *testing.T) {
	log, out := newTestLogger(formatJSON)
	ctx := WithUpdateMeta(context.Background(), 7, 42, 99)
	ctx = WithHandler(ctx, "cmd.search")
	ctx = WithRID(ctx, "7:99:42")

	log.LogAttrs(ctx, slog.LevelWarn, "send.retry", slog.String("status", "RETRY"), slog.String("outcome", "bogus"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "WARN", got["level"])
	assert.Equal(t, "app", got["component"])
	assert.Equal(t, "send.retry", got["event"])
	assert.Equal(t, "retry", got["status"])
	assert.NotContains(t, got, "outcome")
	assert.Equal(t, "7:99:42", got["rid_full"])
	assert.Equal(t, "7.2r.16", got["rid"])
	assert.EqualValues(t, 42, got["user_id"])
	assert.EqualValues(t, 99, got["chat_id"])
	assert.Equal(t, "cmd.search", got["handler"])

	keys := jsonKeys(t, out.Bytes())
	require.GreaterOrEqual(t, len(keys), 4)
	assert.Equal(t, []string{"ts", "level", "component", "event"}, keys[:4])
}

func TestExplicitAttrsWinOverContext(t *testing.T) {
	log, out := newTestLogger(formatJSON)
	ctx := WithUpdateMeta(context.Background(), 1, 2, 3)

	log.LogAttrs(ctx, slog.LevelInfo, "x", slog.Int64("user_id", 500), slog.String("empty", " "))

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.EqualValues(t, 500, got["user_id"])
	assert.NotContains(t, got, "empty")
}

func TestGroupsFlattenToDottedKeys(t *testing.T) {
	log, out := newTestLogger(formatKV)
	log.WithGroup("http").Info("req", "code", 200, slog.Group("retry", "after", time.Second))

	line := out.String()
	assert.Contains(t, line, "http.code=200")
	assert.Contains(t, line, "http.retry.after_ms=1000")
}

func TestDebugFilteredByLevel(t *testing.T) {
	out := &memWriter{}
	log := slog.New(newHandler(out, slog.LevelInfo, formatKV, nil))
	log.Debug("hidden")
	assert.Zero(t, out.Len())
}

func TestCompactRID(t *testing.T) {
	assert.Equal(t, "a.k.u", CompactRID("10:20:30"))
	assert.Equal(t, "abc", CompactRID("abc"))
	assert.Equal(t, "1:x:3", CompactRID("1:x:3"))
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "ab\ncd", Sanitize("a\x00b\ncd\u200b"))
	assert.Equal(t, "при", SanitizeLimit("привет", 3))
	assert.Empty(t, SanitizeLimit("x", 0))
}

func TestSampler(t *testing.T) {
	var s sampler
	s.set(1, 3)
	var passed int
	for range 9 {
		if s.allow() {
			passed++
		}
	}
	assert.Equal(t, 3, passed)

	s.set(0, 0)
	assert.True(t, s.allow())

	num, den := parseRatio("2/10")
	assert.Equal(t, []int{2, 10}, []int{num, den})
	num, den = parseRatio("25")
	assert.Equal(t, []int{1, 25}, []int{num, den})
	num, den = parseRatio("nope")
	assert.Equal(t, []int{0, 0}, []int{num, den})
}

func TestSinkFlushAndClose(t *testing.T) {
	var buf bytes.Buffer
	s := newSink(&buf)
	require.NoError(t, s.Write([]byte("one\n")))
	require.NoError(t, s.Flush())
	assert.Equal(t, "one\n", buf.String())
	require.NoError(t, s.Write([]byte("two\n")))
	require.NoError(t, s.Close())
	assert.Equal(t, "one\ntwo\n", buf.String())
	assert.Error(t, s.Write([]byte("three\n")))
}

func TestSummarizeStrings(t *testing.T) {
	s, cut := SummarizeStrings([]string{"a", "b", "c"}, 2)
	assert.Equal(t, "a, b", s)
	assert.True(t, cut)
	s, cut = SummarizeStrings([]string{"a"}, 5)
	assert.Equal(t, "a", s)
	assert.False(t, cut)
}

func jsonKeys(t *testing.T, data []byte) []string {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(data))
	_, err := dec.Token()
	require.NoError(t, err)
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		require.NoError(t, err)
		keys = append(keys, tok.(string))
		var skip json.RawMessage
		require.NoError(t, dec.Decode(&skip))
	}
	return keys
}
