package router

import (
	"log/slog"

	tg "github.com/m3rciful/kinobot/core/telegram"
	"github.com/m3rciful/kinobot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions configures CallbackRoute.
type CallbackOptions struct {
	// NotFound is used when the registry has no not-found handler.
	NotFound tele.HandlerFunc
}

// CallbackRoute dispatches inline button presses by their unique key.
// Unless the handler answered with a toast, the query is answered empty so
// the client stops its spinner.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	onCallback := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		defer func() {
			if !tghelpers.Answered(c) {
				_ = c.Respond()
			}
		}()

		key := callbacks.CallbackKey(c)
		name := "callback." + handlerName(key)
		if h, ok := reg.GetCallback(key); ok && h != nil {
			return dispatch(c, name, h, slog.String("cb_key", key))
		}
		fallback := reg.CallbackNotFound()
		if fallback == nil {
			fallback = opts.NotFound
		}
		return dispatch(c, name, fallback, slog.String("cb_key", key), slog.String("reason", "not_found"))
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: entry(onCallback)}
}
