package bot

import (
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"
	"github.com/m3rciful/kinobot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

var _ ui.Fallbacks = (*App)(nil)

// UnknownText answers text that matched no command, alias or state.
func (a *App) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendHTML(c, msgUnknownText, mainMenu())
	}
}

func (a *App) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendHTML(c, msgUnknownDocument)
	}
}

// UnknownCallback answers stale or foreign buttons.
func (a *App) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.Answer(c, msgUnknownCallback, false)
	}
}
