package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes helper sends through d. nil makes them synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// enqueue runs send on the dispatcher, or inline when there is none or
// its queue cannot take more work.
func enqueue(c tele.Context, op, endpoint string, send func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return send()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, op, endpoint, send)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sender.ErrQueueFull), errors.Is(err, sender.ErrQueueClosed):
		logger.Warn(ctx, "tg.sender", "queue.fallback", slog.String("op", op), slog.String("err", err.Error()))
		return send()
	}
	return err
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	return enqueue(c, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// SendHTML sends a message with HTML parse mode and optional reply markup.
func SendHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML, DisableWebPagePreview: true, ReplyMarkup: firstMarkup(markup)}
	return SendText(c, text, opts)
}

// SendPhotoHTML sends a photo with an HTML caption. When the photo cannot be
// delivered (dead URL, unsupported format) the caption is sent as text.
func SendPhotoHTML(c tele.Context, photoURL, caption string, markup ...*tele.ReplyMarkup) error {
	if photoURL == "" {
		return SendHTML(c, caption, markup...)
	}
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: firstMarkup(markup)}
	photo := &tele.Photo{File: tele.FromURL(photoURL), Caption: caption}
	return enqueue(c, "send.photo", "sendPhoto", func() error {
		if err := c.Send(photo, opts); err != nil {
			logger.Warn(BuildContext(c), "tg.sender", "photo.fallback", slog.String("err", err.Error()))
			return c.Send(caption, opts)
		}
		return nil
	})
}

// EditHTML edits the current message with HTML parse mode.
func EditHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.Edit(text, &tele.SendOptions{ParseMode: tele.ModeHTML, DisableWebPagePreview: true, ReplyMarkup: firstMarkup(markup)})
}

// EditOrSendHTML edits the callback message or sends a new one when there is
// nothing to edit.
func EditOrSendHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.EditOrSend(text, &tele.SendOptions{ParseMode: tele.ModeHTML, DisableWebPagePreview: true, ReplyMarkup: firstMarkup(markup)})
}

const answeredKey = "cb_answered"

// Answer replies to the current callback query with a toast (or an alert).
// Callback routers skip their default empty answer once this was called.
func Answer(c tele.Context, text string, alert bool) error {
	c.Set(answeredKey, true)
	return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: alert})
}

// Answered reports whether Answer was called for the current update.
func Answered(c tele.Context) bool {
	v, _ := c.Get(answeredKey).(bool)
	return v
}

func firstMarkup(markup []*tele.ReplyMarkup) *tele.ReplyMarkup {
	if len(markup) > 0 {
		return markup[0]
	}
	return nil
}
