package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/kinobot/core/config"
	"github.com/m3rciful/kinobot/core/httpclient"
	"github.com/m3rciful/kinobot/core/logger"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"
	tgsender "github.com/m3rciful/kinobot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Middleware is a named global middleware applied with bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route binds a handler to any endpoint accepted by tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions configures RunTelegram. Config is required.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// Dispatcher is created from DispatcherOptions when nil.
	DispatcherOptions tgsender.Options
	Dispatcher        *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route

	// KeepWebhook leaves an existing webhook in place in longpoll mode.
	KeepWebhook bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is what lifecycle hooks get to work with.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram builds the bot, serves updates until ctx is done and then
// runs OnStop. Cancellation of ctx is a clean shutdown and returns nil.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}

	rt, err := newRuntime(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		rt.Dispatcher.Close()
		tghelpers.SetDispatcher(nil)
	}()

	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			rt.Bot.Use(mw.Use)
		}
	}
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			rt.Bot.Handle(r.Endpoint, r.Handler)
		}
	}
	publishCommands(rt.Bot, rt.Registry)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		rt.Bot.Start()
	}()
	select {
	case <-ctx.Done():
		rt.Bot.Stop()
		<-stopped
	case <-stopped:
	}
	logger.Info(ctx, "tg", "bot.stop")

	if opts.OnStop != nil {
		return opts.OnStop(ctx, rt)
	}
	return nil
}

func newRuntime(ctx context.Context, opts RunOptions) (Runtime, error) {
	cfg := opts.Config
	poller, pollAttrs := newPoller(cfg)

	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Poller:  poller,
		Client:  httpclient.New(httpclient.Options{}),
		OnError: onBotError,
	})
	if err != nil {
		return Runtime{}, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logger.Info(ctx, "tg", "bot.ready", append(pollAttrs,
		slog.String("username", bot.Me.Username),
		slog.Duration("duration", time.Since(start)),
	)...)

	if cfg.Telegram.RunMode == coreconfig.RunModeLongpoll && !opts.KeepWebhook {
		// A stale webhook makes getUpdates fail with 409.
		if err := bot.RemoveWebhook(cfg.Telegram.DropPendingUpdates); err != nil {
			logger.Warn(ctx, "tg", "webhook.delete", slog.String("status", "fail"), slog.String("err", err.Error()))
		} else {
			logger.Debug(ctx, "tg", "webhook.delete", slog.String("status", "ok"),
				slog.Bool("drop_pending", cfg.Telegram.DropPendingUpdates))
		}
	}

	disp := opts.Dispatcher
	if disp == nil {
		disp = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	tghelpers.SetDispatcher(disp)
	return Runtime{Bot: bot, Dispatcher: disp, Registry: opts.Registry}, nil
}

func onBotError(err error, c tele.Context) {
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.Error(ctx, "tg", "bot.error", slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
}
