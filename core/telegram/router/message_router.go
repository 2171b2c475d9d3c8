package router

import (
	tg "github.com/m3rciful/kinobot/core/telegram"
	"github.com/m3rciful/kinobot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM is the part of the state machine the text router needs.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions configures TextRoutes.
type TextOptions struct {
	// UnknownText runs when the registry has no text fallback.
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
	// Admin guards admin-only commands reached through aliases.
	Admin middleware.AdminOptions
}

// TextRoutes routes plain text and documents. A user in the middle of a
// conversation goes to the FSM first; otherwise text is matched against
// command aliases and finally the fallbacks.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	inConversation := func(c tele.Context) bool {
		return fsm != nil && c.Sender() != nil && fsm.InProgress(c.Sender().ID)
	}

	onText := func(c tele.Context) error {
		if inConversation(c) {
			return dispatch(c, "fsm", fsm.ManagerHandler)
		}
		if reg == nil {
			return dispatch(c, "unknown_text", opts.UnknownText)
		}
		if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
			h := cmd.Handler
			if cmd.AdminOnly {
				h = middleware.AdminOnlyMiddleware(opts.Admin)(h)
			}
			return dispatch(c, handlerName(key), h)
		}
		if fb := reg.TextFallback(); fb != nil {
			return dispatch(c, "fallback", fb)
		}
		return dispatch(c, "unknown_text", opts.UnknownText)
	}

	onDocument := func(c tele.Context) error {
		if inConversation(c) {
			return dispatch(c, "fsm_document", fsm.ManagerHandler)
		}
		return dispatch(c, "unexpected_document", opts.UnknownDocument)
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: entry(onText)},
		{Endpoint: tele.OnDocument, Handler: entry(onDocument)},
	}
}
