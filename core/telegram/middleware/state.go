package middleware

import (
	"context"

	"github.com/m3rciful/kinobot/core/logger"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"
	"github.com/m3rciful/kinobot/core/telegram/state"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// StateGetter is the minimal interface required from an FSM manager.
type StateGetter interface {
	State(ctx context.Context, userID int64) state.State
}

// State returns a middleware that passes the update on only when the user is
// in the expected FSM state. Used for callbacks that are valid in a single
// conversation step (e.g. confirming a mailing).
//
// Mismatched updates go to onSkip. Without one, a callback still gets an
// empty answer so the client stops its progress indicator.
func State(mgr StateGetter, expected state.State, onSkip tele.HandlerFunc) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}
			ctx := tghelpers.BuildContext(c)
			current := mgr.State(ctx, sender.ID)
			if current == expected {
				logger.Debug(ctx, "tg", "fsm.match",
					slog.Int64("user_id", sender.ID),
					slog.String("state", string(current)),
				)
				return next(c)
			}
			logger.Debug(ctx, "tg", "fsm.skip",
				slog.Int64("user_id", sender.ID),
				slog.String("state", string(current)),
				slog.String("expected", string(expected)),
			)
			if onSkip != nil {
				return onSkip(c)
			}
			if c.Callback() != nil {
				return tghelpers.Answer(c, "", false)
			}
			return nil
		}
	}
}
