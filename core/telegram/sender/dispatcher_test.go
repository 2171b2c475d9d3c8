package sender

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not finish")
	}
}

func TestDispatcherRetriesFloodThenSucceeds(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	done := make(chan struct{})

	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		if calls.Add(1) == 1 {
			return tele.FloodError{RetryAfter: 0}
		}
		close(done)
		return nil
	})
	require.NoError(t, err)
	waitClosed(t, done)
	d.Close()

	assert.Equal(t, int32(2), calls.Load())
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherRetriesServerErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.photo", "sendPhoto", func() error {
		calls.Add(1)
		return &tele.Error{Code: 502, Description: "Bad Gateway"}
	}))
	d.Close()

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestDispatcherDoesNotRetryPermanentErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32

	require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		calls.Add(1)
		return &tele.Error{Code: 400, Description: "Bad Request: message is too long"}
	}))
	d.Close()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	block := func() error { close(started); <-release; return nil }

	require.NoError(t, d.Enqueue(context.Background(), "a", "", block))
	<-started
	require.NoError(t, d.Enqueue(context.Background(), "b", "", func() error { return nil }))
	assert.ErrorIs(t, d.Enqueue(context.Background(), "c", "", func() error { return nil }), ErrQueueFull)

	close(release)
	d.Close()
}

func TestDispatcherClosed(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	d.Close()

	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.Error(t, d.Enqueue(context.Background(), "send.text", "", nil))
}

func TestHTTPStatusAndRetryAfter(t *testing.T) {
	assert.Equal(t, 403, HTTPStatus(&tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"}))
	assert.Equal(t, 429, HTTPStatus(tele.FloodError{RetryAfter: 7}))
	assert.Equal(t, 404, HTTPStatus(errors.New("telegram: Not Found (404)")))
	assert.Equal(t, 0, HTTPStatus(nil))

	wait, ok := RetryAfter(tele.FloodError{RetryAfter: 7})
	assert.True(t, ok)
	assert.Equal(t, 7*time.Second, wait)

	_, ok = RetryAfter(errors.New("boom"))
	assert.False(t, ok)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "flood", errorKind(tele.FloodError{RetryAfter: 1}))
	assert.Equal(t, "http_4xx", errorKind(&tele.Error{Code: 403}))
	assert.Equal(t, "http_5xx", errorKind(&tele.Error{Code: 500}))
	assert.Equal(t, "timeout", errorKind(context.DeadlineExceeded))
}

func TestRedact(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AAbb-cc_DD/sendMessage": timeout`)
	assert.Equal(t, `Post "https://api.telegram.org/bot<redacted>/sendMessage": timeout`, redact(err))
}
