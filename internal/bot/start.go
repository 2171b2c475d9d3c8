package bot

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/m3rciful/kinobot/core/logger"
	tg "github.com/m3rciful/kinobot/core/telegram"
	"github.com/m3rciful/kinobot/core/telegram/commands"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"
	"github.com/m3rciful/kinobot/core/telegram/keyboard"
	"github.com/m3rciful/kinobot/core/telegram/state"
	"github.com/m3rciful/kinobot/internal/models"
	"github.com/m3rciful/kinobot/internal/service"

	tele "gopkg.in/telebot.v4"
)

func (a *App) registerCommands(reg *tg.Registry) {
	a.reg = reg
	reg.RegisterCommand("/start", commands.Command{Handler: a.handleStart, Description: "Регистрация и главное меню"})
	reg.RegisterCommand("/profile", commands.Command{Handler: a.handleProfile, Description: "Мой профиль", Aliases: []string{btnProfile}})
	reg.RegisterCommand("/update_profile", commands.Command{Handler: a.handleUpdateProfile, Description: "Изменить профиль", Aliases: []string{btnUpdateProfile}})
	reg.RegisterCommand("/search", commands.Command{Handler: a.handleSearch, Description: "Поиск фильмов", Aliases: []string{btnSearch}})
	reg.RegisterCommand("/favorites", commands.Command{Handler: a.handleFavorites, Description: "Избранное", Aliases: []string{btnFavorites}})
	reg.RegisterCommand("/history", commands.Command{Handler: a.handleHistory, Description: "История поиска", Aliases: []string{btnHistory}})
	reg.RegisterCommand("/recommend", commands.Command{Handler: a.handleRecommend, Description: "Рекомендация", Aliases: []string{btnRecommend}})
	reg.RegisterCommand("/help", commands.Command{Handler: a.handleHelp, Description: "Помощь", Aliases: []string{btnHelp}})
	reg.RegisterCommand("/cancel", commands.Command{Handler: a.handleCancel, Description: "Отменить действие", Aliases: []string{btnCancel}})
	reg.RegisterCommand("/admin", commands.Command{Handler: a.handleAdmin, Description: "Админ-панель", AdminOnly: true, Hidden: true})
}

func (a *App) registerStates() {
	a.fsm.Handle(StateRegName, a.guard(a.regName))
	a.fsm.Handle(StateRegAge, a.guard(a.regAge))
	a.fsm.Handle(StateRegSex, a.guard(a.regSex))

	a.fsm.Handle(StateProfileName, a.guard(a.profileInput(service.FieldName)))
	a.fsm.Handle(StateProfileAge, a.guard(a.profileInput(service.FieldAge)))
	a.fsm.Handle(StateProfileSex, a.guard(a.profileInput(service.FieldSex)))

	a.fsm.Handle(StateSearchTitle, a.guard(a.searchTitle))

	a.fsm.Handle(StateMailingText, a.guard(a.mailingText))
	a.fsm.Handle(StateMailingConfirm, a.guard(a.mailingPending))
}

// guard lets "Отмена" and main menu buttons interrupt a conversation step.
func (a *App) guard(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		text := strings.TrimSpace(c.Text())
		if strings.EqualFold(text, btnCancel) {
			return a.handleCancel(c)
		}
		if a.reg != nil && text != "" && !strings.HasPrefix(text, "/") {
			if _, cmd, ok := a.reg.LookupCommand(text); ok && !cmd.AdminOnly {
				if err := a.fsm.Clear(tghelpers.BuildContext(c), c.Sender().ID); err != nil {
					return err
				}
				return cmd.Handler(c)
			}
		}
		return next(c)
	}
}

func (a *App) handleStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	id := c.Sender().ID

	registered, err := a.users.IsRegistered(ctx, id)
	if err != nil {
		return a.fail(c, "start", err)
	}
	if err := a.fsm.Clear(ctx, id); err != nil {
		return err
	}
	if registered {
		return tghelpers.SendHTML(c, msgAlreadyRegistered, mainMenu())
	}
	if err := a.fsm.SetState(ctx, id, StateRegName); err != nil {
		return err
	}
	return tghelpers.SendHTML(c, msgAskName, keyboard.Remove())
}

func (a *App) regName(c tele.Context) error {
	name, err := service.ValidateName(c.Text())
	if err != nil {
		return tghelpers.SendHTML(c, msgBadName)
	}
	err = a.fsm.Transition(tghelpers.BuildContext(c), c.Sender().ID, StateRegAge, map[string]string{keyName: name})
	if err != nil {
		return err
	}
	return tghelpers.SendHTML(c, msgAskAge)
}

func (a *App) regAge(c tele.Context) error {
	age := strings.TrimSpace(c.Text())
	if _, err := service.ValidateAge(age); err != nil {
		return a.reject(c, err)
	}
	err := a.fsm.Transition(tghelpers.BuildContext(c), c.Sender().ID, StateRegSex, map[string]string{keyAge: age})
	if err != nil {
		return err
	}
	return tghelpers.SendHTML(c, msgAskSex, sexKeyboard())
}

func (a *App) regSex(c tele.Context) error {
	if _, err := service.ValidateSex(c.Text()); err != nil {
		return a.reject(c, err)
	}
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	sess, err := a.fsm.Session(ctx, sender.ID)
	if err != nil {
		return err
	}

	u, err := a.users.Register(ctx, service.Registration{
		TelegramID: sender.ID,
		Username:   sender.Username,
		LastName:   sender.LastName,
		Name:       sess.Data[keyName],
		Age:        sess.Data[keyAge],
		Sex:        c.Text(),
	})
	switch {
	case errors.Is(err, service.ErrAlreadyExists):
		_ = a.fsm.Clear(ctx, sender.ID)
		return tghelpers.SendHTML(c, msgAlreadyRegistered, mainMenu())
	case errors.Is(err, service.ErrInvalidName), errors.Is(err, service.ErrInvalidAge), errors.Is(err, service.ErrAgeNotNumber):
		// session data got lost (e.g. the Redis TTL expired); start over
		if err := a.fsm.Transition(ctx, sender.ID, StateRegName, nil); err != nil {
			return err
		}
		return tghelpers.SendHTML(c, msgAskName, keyboard.Remove())
	case err != nil:
		return a.fail(c, "register", err)
	}

	if err := a.fsm.Clear(ctx, sender.ID); err != nil {
		return err
	}
	return tghelpers.SendHTML(c, welcomeText(u.FirstName), mainMenu())
}

func (a *App) handleCancel(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	id := c.Sender().ID
	if a.fsm.State(ctx, id) == state.StateIdle {
		return tghelpers.SendHTML(c, msgNothingToCancel, mainMenu())
	}
	if err := a.fsm.Clear(ctx, id); err != nil {
		return err
	}
	return tghelpers.SendHTML(c, msgCanceled, mainMenu())
}

func (a *App) handleHelp(c tele.Context) error {
	text := helpText
	if a.cfg.Telegram.IsAdmin(c.Sender().ID) {
		text += "\n\n/admin — админ-панель"
	}
	return tghelpers.SendHTML(c, text, mainMenu())
}

// currentUser loads the sender's profile; ok is false when the user was
// told to register or an error reply was sent.
func (a *App) currentUser(c tele.Context) (*models.User, bool, error) {
	ctx := tghelpers.BuildContext(c)
	u, err := tghelpers.CurrentUser[*models.User](ctx, a.users, c.Sender().ID)
	if errors.Is(err, service.ErrNotRegistered) {
		return nil, false, a.notRegistered(c)
	}
	if err != nil {
		return nil, false, a.fail(c, "user", err)
	}
	return u, true, nil
}

func (a *App) notRegistered(c tele.Context) error {
	if c.Callback() != nil {
		return tghelpers.Answer(c, msgNotRegistered, true)
	}
	return tghelpers.SendHTML(c, msgNotRegistered, keyboard.Remove())
}

// reject answers invalid user input; the conversation state is kept.
func (a *App) reject(c tele.Context, err error) error {
	return tghelpers.SendHTML(c, validationMessage(err))
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidName):
		return msgBadName
	case errors.Is(err, service.ErrAgeNotNumber):
		return msgAgeNotNumber
	case errors.Is(err, service.ErrInvalidAge):
		return msgBadAge
	case errors.Is(err, service.ErrInvalidSex):
		return msgBadSex
	}
	return msgInternalError
}

// fail logs err and tells the user something went wrong.
func (a *App) fail(c tele.Context, op string, err error) error {
	logger.Error(tghelpers.BuildContext(c), "app", op+".fail", slog.String("err", err.Error()))
	if c.Callback() != nil {
		return tghelpers.Answer(c, msgInternalError, true)
	}
	return tghelpers.SendHTML(c, msgInternalError)
}

func (a *App) onRateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return tghelpers.Answer(c, msgRateLimited, false)
	}
	return nil
}

func (a *App) onAdminReject(c tele.Context) error {
	if c.Callback() != nil {
		return tghelpers.Answer(c, "Недостаточно прав", true)
	}
	return nil
}
