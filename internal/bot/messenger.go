package bot

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/m3rciful/kinobot/core/telegram/sender"
	"github.com/m3rciful/kinobot/internal/service"

	tele "gopkg.in/telebot.v4"
)

var errNotAttached = errors.New("bot: messenger is not attached")

// Messenger is the part of *tele.Bot used for outbound delivery.
type Messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// TeleSender delivers broadcast and scheduler messages through the bot API
// and translates telebot errors into service errors.
type TeleSender struct {
	m atomic.Pointer[messengerBox]
}

type messengerBox struct{ m Messenger }

// Attach binds the sender to a running bot.
func (s *TeleSender) Attach(m Messenger) {
	if m == nil {
		s.m.Store(nil)
		return
	}
	s.m.Store(&messengerBox{m: m})
}

func (s *TeleSender) messenger() (Messenger, error) {
	box := s.m.Load()
	if box == nil {
		return nil, errNotAttached
	}
	return box.m, nil
}

// Send delivers an HTML message to chatID.
func (s *TeleSender) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := s.messenger()
	if err != nil {
		return err
	}
	_, err = m.Send(tele.ChatID(chatID), text, &tele.SendOptions{ParseMode: tele.ModeHTML})
	return translateSendError(err)
}

// Notify implements the scheduler notifier.
func (s *TeleSender) Notify(ctx context.Context, chatID int64, text string) error {
	return s.Send(ctx, chatID, text)
}

// Edit replaces the text of a message sent earlier.
func (s *TeleSender) Edit(msg tele.Editable, text string, markup *tele.ReplyMarkup) error {
	m, err := s.messenger()
	if err != nil {
		return err
	}
	_, err = m.Edit(msg, text, &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: markup})
	if errors.Is(err, tele.ErrSameMessageContent) {
		return nil
	}
	return err
}

// translateSendError maps Telegram failures to the errors the broadcast
// loop reacts to.
func translateSendError(err error) error {
	if err == nil {
		return nil
	}
	if d, ok := sender.RetryAfter(err); ok {
		return &service.RetryAfterError{After: d}
	}
	switch {
	case errors.Is(err, tele.ErrBlockedByUser),
		errors.Is(err, tele.ErrUserIsDeactivated),
		errors.Is(err, tele.ErrChatNotFound),
		errors.Is(err, tele.ErrKickedFromGroup),
		sender.HTTPStatus(err) == http.StatusForbidden:
		return service.ErrRecipientBlocked
	}
	return err
}
