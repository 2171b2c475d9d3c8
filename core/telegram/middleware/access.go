package middleware

import (
	"github.com/m3rciful/kinobot/core/logger"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminIDs []int64
	OnReject tele.HandlerFunc
}

// Allowed reports whether userID is one of the configured admins.
// With no admins configured nobody is allowed.
func (o AdminOptions) Allowed(userID int64) bool {
	for _, id := range o.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AdminOnlyMiddleware ensures that only admin users can invoke downstream handlers.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil || !opts.Allowed(sender.ID) {
				var userID int64
				if sender != nil {
					userID = sender.ID
				}
				logger.Warn(tghelpers.BuildContext(c), "tg", "admin.reject",
					slog.String("status", "skip"),
					slog.Int64("user_id", userID),
				)
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
