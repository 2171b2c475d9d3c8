package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/kinobot/core/logger"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures RateLimitMiddleware.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude lists update kinds that bypass the limit: "message",
	// "callback" or "inline_query".
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// updateKind names the update the way rate_limit.exclude_updates does.
func updateKind(u tele.Update) string {
	switch {
	case u.Callback != nil:
		return "callback"
	case u.Query != nil:
		return "inline_query"
	case u.Message != nil:
		return "message"
	}
	return "other"
}

// throttle remembers when each user was last let through.
type throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[int64]time.Time
	swept    time.Time
}

func (t *throttle) allow(userID int64, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Sub(t.swept) > time.Minute {
		for id, at := range t.last {
			if now.Sub(at) >= t.interval {
				delete(t.last, id)
			}
		}
		t.swept = now
	}
	if at, ok := t.last[userID]; ok && now.Sub(at) < t.interval {
		return false
	}
	t.last[userID] = now
	return true
}

// RateLimitMiddleware drops updates from a user that arrive less than
// Interval after the previous accepted one.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	t := &throttle{interval: opts.Interval, last: make(map[int64]time.Time)}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := updateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if t.allow(user.ID, time.Now()) {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
				slog.String("status", "rate_limited"),
				slog.String("kind", kind),
			)
			if opts.OnLimited != nil {
				return opts.OnLimited(c)
			}
			return nil
		}
	}
}
