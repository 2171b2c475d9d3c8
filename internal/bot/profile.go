package bot

import (
	"errors"

	"github.com/m3rciful/kinobot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"
	"github.com/m3rciful/kinobot/core/telegram/state"
	"github.com/m3rciful/kinobot/internal/service"

	tele "gopkg.in/telebot.v4"
)

var profileStates = map[service.ProfileField]state.State{
	service.FieldName: StateProfileName,
	service.FieldAge:  StateProfileAge,
	service.FieldSex:  StateProfileSex,
}

func (a *App) handleProfile(c tele.Context) error {
	u, ok, err := a.currentUser(c)
	if !ok {
		return err
	}
	return tghelpers.SendHTML(c, profileText(u), mainMenu())
}

func (a *App) handleUpdateProfile(c tele.Context) error {
	if _, ok, err := a.currentUser(c); !ok {
		return err
	}
	return tghelpers.SendHTML(c, msgProfileChoose, profileEditKeyboard())
}

func (a *App) cbProfileEdit(c tele.Context) error {
	field, ok := service.ParseProfileField(callbacks.CallbackPayload(c))
	if !ok {
		return tghelpers.Answer(c, msgUnknownCallback, false)
	}
	if _, ok, err := a.currentUser(c); !ok {
		return err
	}
	if err := a.fsm.SetState(tghelpers.BuildContext(c), c.Sender().ID, profileStates[field]); err != nil {
		return err
	}
	switch field {
	case service.FieldName:
		return tghelpers.SendHTML(c, msgAskNewName, cancelKeyboard())
	case service.FieldAge:
		return tghelpers.SendHTML(c, msgAskNewAge, cancelKeyboard())
	default:
		return tghelpers.SendHTML(c, msgAskNewSex, sexKeyboard())
	}
}

// profileInput handles the new value of a single profile field.
func (a *App) profileInput(field service.ProfileField) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		id := c.Sender().ID
		u, err := a.users.UpdateField(ctx, id, field, c.Text())
		switch {
		case errors.Is(err, service.ErrNotRegistered):
			_ = a.fsm.Clear(ctx, id)
			return a.notRegistered(c)
		case errors.Is(err, service.ErrInvalidName), errors.Is(err, service.ErrInvalidAge),
			errors.Is(err, service.ErrAgeNotNumber), errors.Is(err, service.ErrInvalidSex):
			return a.reject(c, err)
		case err != nil:
			_ = a.fsm.Clear(ctx, id)
			return a.fail(c, "profile.update", err)
		}
		if err := a.fsm.Clear(ctx, id); err != nil {
			return err
		}
		return tghelpers.SendHTML(c, msgProfileUpdated+"\n\n"+profileText(u), mainMenu())
	}
}
