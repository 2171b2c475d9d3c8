package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/telegram/format"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"
	"github.com/m3rciful/kinobot/internal/service"

	tele "gopkg.in/telebot.v4"
)

func (a *App) handleAdmin(c tele.Context) error {
	if err := a.fsm.Clear(tghelpers.BuildContext(c), c.Sender().ID); err != nil {
		return err
	}
	return tghelpers.SendHTML(c, msgAdminPanel, adminPanel())
}

func (a *App) cbAdminBack(c tele.Context) error {
	if err := a.fsm.Clear(tghelpers.BuildContext(c), c.Sender().ID); err != nil {
		return err
	}
	return tghelpers.EditOrSendHTML(c, msgAdminPanel, adminPanel())
}

func (a *App) cbAdminStats(c tele.Context) error {
	st, err := a.stats.Collect(tghelpers.BuildContext(c))
	if err != nil {
		return a.fail(c, "admin.stats", err)
	}
	return tghelpers.EditOrSendHTML(c, StatsText(st), adminBackKeyboard())
}

func (a *App) cbAdminMailing(c tele.Context) error {
	if a.broadcast.Running() {
		return tghelpers.Answer(c, msgMailingRunning, true)
	}
	if err := a.fsm.SetState(tghelpers.BuildContext(c), c.Sender().ID, StateMailingText); err != nil {
		return err
	}
	return tghelpers.EditOrSendHTML(c, msgAskMailingText, mailingCancelKeyboard())
}

// mailingText receives the message to broadcast and shows a preview. The
// preview is sent synchronously so broken markup is reported right away.
func (a *App) mailingText(c tele.Context) error {
	text := mailingHTML(c.Message())
	if text == "" {
		return tghelpers.SendHTML(c, msgMailingEmpty)
	}
	ctx := tghelpers.BuildContext(c)
	err := c.Send(mailingPreview(text), &tele.SendOptions{
		ParseMode:   tele.ModeHTML,
		ReplyMarkup: mailingConfirmKeyboard(),
	})
	if err != nil {
		logger.Warn(ctx, "app", "mailing.preview", slog.String("err", err.Error()))
		return tghelpers.SendText(c, msgMailingBadHTML)
	}
	return a.fsm.Transition(ctx, c.Sender().ID, StateMailingConfirm, map[string]string{keyMailingText: text})
}

// mailingHTML keeps the formatting the admin applied in the client.
func mailingHTML(msg *tele.Message) string {
	if msg == nil {
		return ""
	}
	return strings.TrimSpace(format.EntitiesHTML(msg.Text, msg.Entities))
}

func (a *App) mailingPending(c tele.Context) error {
	return tghelpers.SendHTML(c, msgMailingUseKeys)
}

func (a *App) cbMailingCancel(c tele.Context) error {
	if err := a.fsm.Clear(tghelpers.BuildContext(c), c.Sender().ID); err != nil {
		return err
	}
	return tghelpers.EditOrSendHTML(c, msgMailingCanceled, adminBackKeyboard())
}

func (a *App) cbMailingConfirm(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	adminID := c.Sender().ID
	text, _ := a.fsm.Value(ctx, adminID, keyMailingText)
	if err := a.fsm.Clear(ctx, adminID); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return tghelpers.Answer(c, msgMailingEmpty, true)
	}
	if a.broadcast.Running() {
		return tghelpers.Answer(c, msgMailingRunning, true)
	}

	var status tele.Editable
	if msg := c.Message(); msg != nil {
		status = msg
	}
	if err := tghelpers.EditHTML(c, msgMailingPrepare); err != nil {
		logger.Warn(ctx, "app", "mailing.prepare", slog.String("err", err.Error()))
	}

	a.goBackground(func(runCtx context.Context) {
		a.runBroadcast(runCtx, ctx, adminID, text, status)
	})
	return nil
}

// runBroadcast delivers text and keeps the status message up to date.
// logCtx carries the request metadata of the confirming update.
func (a *App) runBroadcast(ctx, logCtx context.Context, adminID int64, text string, status tele.Editable) {
	edit := func(body string, markup *tele.ReplyMarkup) {
		if status == nil {
			return
		}
		if err := a.sender.Edit(status, body, markup); err != nil {
			logger.Warn(logCtx, "app", "mailing.status", slog.String("err", err.Error()))
		}
	}

	report, err := a.broadcast.Run(ctx, adminID, text, func(p service.Progress) {
		edit(progressText(p), nil)
	})
	switch {
	case errors.Is(err, service.ErrBroadcastRunning):
		edit(msgMailingRunning, adminBackKeyboard())
		return
	case err != nil:
		logger.Error(logCtx, "app", "mailing.fail", slog.String("err", err.Error()))
		edit(msgInternalError, adminBackKeyboard())
		return
	}

	edit(reportText(report), adminBackKeyboard())
	if status == nil {
		if err := a.sender.Send(context.WithoutCancel(ctx), adminID, reportText(report)); err != nil {
			logger.Warn(logCtx, "app", "mailing.report", slog.String("err", err.Error()))
		}
	}
}
