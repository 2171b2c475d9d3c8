package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// seenUpdates suppresses a second receipt line when the middleware runs on
// more than one branch for the same update.
var seenUpdates = struct {
	sync.Mutex
	at map[int]time.Time
}{at: make(map[int]time.Time)}

const seenTTL = 10 * time.Second

func firstSeen(updateID int, now time.Time) bool {
	seenUpdates.Lock()
	defer seenUpdates.Unlock()
	for id, at := range seenUpdates.at {
		if now.Sub(at) > seenTTL {
			delete(seenUpdates.at, id)
		}
	}
	if _, ok := seenUpdates.at[updateID]; ok {
		return false
	}
	seenUpdates.at[updateID] = now
	return true
}

// LoggerMiddleware creates the update's logging context and, subject to
// debug sampling, logs one update.received line.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		var userID, chatID int64
		if u := c.Sender(); u != nil {
			userID = u.ID
		}
		if ch := c.Chat(); ch != nil {
			chatID = ch.ID
		}
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)

		ctx := logger.WithUpdateMeta(logger.WithRID(logger.Background(), rid), upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.Component("tg"))
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() && firstSeen(upd.ID, time.Now()) {
			logger.Debug(ctx, "tg", "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if ch := c.Chat(); ch != nil {
		attrs = append(attrs, slog.String("chat_type", string(ch.Type)))
	}
	if u := c.Sender(); u != nil {
		if u.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
		}
		if u.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", u.LanguageCode))
		}
	}
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		attrs = append(attrs,
			slog.String("cb_key", logger.SanitizeLimit(key, 128)),
			slog.String("payload", logger.SanitizeLimit(payload, 256)),
		)
	case upd.Query != nil:
		attrs = append(attrs, slog.String("query", logger.SanitizeLimit(upd.Query.Text, 256)))
	case upd.Message != nil:
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
	}
	return attrs
}
