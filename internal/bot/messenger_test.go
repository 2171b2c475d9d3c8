package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/kinobot/internal/service"

	tele "gopkg.in/telebot.v4"
)

type fakeMessenger struct {
	sent  []string
	to    []string
	opts  []interface{}
	edits int
	err   error
}

func (f *fakeMessenger) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.to = append(f.to, to.Recipient())
	f.sent = append(f.sent, what.(string))
	f.opts = append(f.opts, opts...)
	return &tele.Message{}, nil
}

func (f *fakeMessenger) Edit(_ tele.Editable, _ interface{}, _ ...interface{}) (*tele.Message, error) {
	f.edits++
	return &tele.Message{}, f.err
}

func TestTranslateSendError(t *testing.T) {
	assert.NoError(t, translateSendError(nil))

	var ra *service.RetryAfterError
	require.ErrorAs(t, translateSendError(tele.FloodError{RetryAfter: 2}), &ra)
	assert.Equal(t, 2*time.Second, ra.After)

	assert.ErrorIs(t, translateSendError(tele.ErrBlockedByUser), service.ErrRecipientBlocked)
	assert.ErrorIs(t, translateSendError(&tele.Error{Code: 403, Description: "Forbidden: user is deactivated"}), service.ErrRecipientBlocked)

	other := errors.New("connection reset")
	assert.Equal(t, other, translateSendError(other))
}

func TestTeleSenderRequiresAttach(t *testing.T) {
	s := &TeleSender{}
	assert.ErrorIs(t, s.Send(context.Background(), 1, "hi"), errNotAttached)

	m := &fakeMessenger{}
	s.Attach(m)
	require.NoError(t, s.Notify(context.Background(), 42, "<b>hi</b>"))
	assert.Equal(t, []string{"42"}, m.to)
	assert.Equal(t, []string{"<b>hi</b>"}, m.sent)
	require.Len(t, m.opts, 1)
	assert.Equal(t, tele.ModeHTML, m.opts[0].(*tele.SendOptions).ParseMode)

	s.Attach(nil)
	assert.ErrorIs(t, s.Send(context.Background(), 1, "hi"), errNotAttached)
}

func TestTeleSenderTranslatesErrors(t *testing.T) {
	s := &TeleSender{}
	s.Attach(&fakeMessenger{err: tele.ErrChatNotFound})
	assert.ErrorIs(t, s.Send(context.Background(), 7, "x"), service.ErrRecipientBlocked)
}

func TestTeleSenderCanceledContext(t *testing.T) {
	s := &TeleSender{}
	m := &fakeMessenger{}
	s.Attach(m)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, 7, "x"), context.Canceled)
	assert.Empty(t, m.sent)
}

func TestTeleSenderEditIgnoresUnchanged(t *testing.T) {
	s := &TeleSender{}
	m := &fakeMessenger{err: tele.ErrSameMessageContent}
	s.Attach(m)
	assert.NoError(t, s.Edit(&tele.Message{}, "same", nil))
	assert.Equal(t, 1, m.edits)
}
