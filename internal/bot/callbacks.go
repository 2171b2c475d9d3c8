package bot

import (
	"fmt"

	tg "github.com/m3rciful/kinobot/core/telegram"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"
	"github.com/m3rciful/kinobot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

func (a *App) registerCallbacks(reg *tg.Registry) error {
	adminOnly := middleware.AdminOnlyMiddleware(a.admin)
	confirming := middleware.State(a.fsm, StateMailingConfirm, func(c tele.Context) error {
		return tghelpers.Answer(c, msgUnknownCallback, false)
	})

	handlers := map[string]tele.HandlerFunc{
		cbSearchTitle: a.cbSearchTitle,
		cbRandomMovie: a.cbRandomMovie,
		cbRandomGenre: a.cbRandomGenre,
		cbGenre:       a.cbGenre,
		cbFilm:        a.cbFilm,
		cbFavAdd:      a.cbFavAdd,
		cbFavDel:      a.cbFavDel,
		cbProfileEdit: a.cbProfileEdit,

		cbAdminStats:     adminOnly(a.cbAdminStats),
		cbAdminMailing:   adminOnly(a.cbAdminMailing),
		cbAdminBack:      adminOnly(a.cbAdminBack),
		cbMailingConfirm: adminOnly(confirming(a.cbMailingConfirm)),
		cbMailingCancel:  adminOnly(a.cbMailingCancel),
	}
	for key, h := range handlers {
		if err := reg.RegisterCallback(key, h); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	return nil
}
