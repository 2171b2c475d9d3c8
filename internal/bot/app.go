// Package bot binds the kinobot services to Telegram: commands, callbacks,
// conversation states, keyboards and the runtime lifecycle.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/kinobot/core/logger"
	tg "github.com/m3rciful/kinobot/core/telegram"
	"github.com/m3rciful/kinobot/core/telegram/middleware"
	"github.com/m3rciful/kinobot/core/telegram/router"
	"github.com/m3rciful/kinobot/core/telegram/state"
	"github.com/m3rciful/kinobot/internal/config"
	"github.com/m3rciful/kinobot/internal/scheduler"
	"github.com/m3rciful/kinobot/internal/service"

	tele "gopkg.in/telebot.v4"
)

const stopTimeout = 10 * time.Second

// Deps are the services the bot needs.
type Deps struct {
	Config     *config.Config
	Users      *service.UserService
	Movies     *service.MovieService
	Stats      *service.StatsService
	Recipients service.RecipientStore
	// Sessions stores FSM sessions; nil keeps them in memory.
	Sessions state.Store
}

// App is the Telegram application.
type App struct {
	cfg       *config.Config
	users     *service.UserService
	movies    *service.MovieService
	stats     *service.StatsService
	broadcast *service.BroadcastService

	reg      *tg.Registry
	sender   *TeleSender
	sessions state.Store
	fsm      *state.Machine
	admin    middleware.AdminOptions
	sched    *scheduler.Scheduler

	mu     sync.Mutex
	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds the application from its dependencies.
func New(d Deps) (*App, error) {
	if d.Config == nil || d.Users == nil || d.Movies == nil || d.Stats == nil || d.Recipients == nil {
		return nil, fmt.Errorf("bot: incomplete dependencies")
	}
	sessions := d.Sessions
	if sessions == nil {
		sessions = state.NewMemoryStore()
	}
	a := &App{
		cfg:      d.Config,
		users:    d.Users,
		movies:   d.Movies,
		stats:    d.Stats,
		sender:   &TeleSender{},
		sessions: sessions,
		fsm:      state.NewMachine(sessions),
		sched:    scheduler.New(d.Config.Reports.Location()),
		runCtx:   context.Background(),
	}
	a.admin = middleware.AdminOptions{
		AdminIDs: d.Config.Telegram.AdminIDs,
		OnReject: a.onAdminReject,
	}
	a.broadcast = service.NewBroadcastService(d.Recipients, a.sender, service.BroadcastOptions{
		Delay:         d.Config.Broadcast.Delay(),
		ProgressEvery: d.Config.Broadcast.ProgressEvery,
		MaxRetries:    d.Config.Broadcast.MaxRetries,
	})
	a.registerStates()
	return a, nil
}

// Registry builds the command and callback registry.
func (a *App) Registry() (*tg.Registry, error) {
	reg := tg.NewRegistry()
	a.registerCommands(reg)
	if err := a.registerCallbacks(reg); err != nil {
		return nil, err
	}
	reg.SetCallbackNotFound(a.UnknownCallback())
	reg.SetTextFallback(a.UnknownText())
	return reg, nil
}

// TelegramRunOptions implements the runner's TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg, err := a.Registry()
	if err != nil {
		return tg.RunOptions{}, err
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminIDs:      a.cfg.Telegram.AdminIDs,
		OnAdminReject: a.onAdminReject,
	})
	routes = append(routes, router.TextRoutes(a.fsm, reg, router.TextOptions{
		UnknownDocument: a.UnknownDocument(),
		Admin:           a.admin,
	})...)
	routes = append(routes,
		router.CallbackRoute(reg, router.CallbackOptions{NotFound: a.UnknownCallback()}),
		tg.Route{Endpoint: tele.OnQuery, Handler: middleware.RecoverMiddleware(a.onInlineQuery)},
	)

	return tg.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(a.cfg.CoreConfig(), a.onRateLimited),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	a.sender.Attach(rt.Bot)

	a.mu.Lock()
	a.runCtx, a.cancel = context.WithCancel(ctx)
	a.mu.Unlock()

	if err := a.scheduleJobs(); err != nil {
		return err
	}
	a.sched.Start()
	return nil
}

func (a *App) scheduleJobs() error {
	rep := a.cfg.Reports
	if !config.IsDisabled(rep.DailyStatsCron) && len(a.cfg.Telegram.AdminIDs) > 0 {
		err := a.sched.AddDailyStats(scheduler.DailyStats{
			Spec:   rep.DailyStatsCron,
			Admins: a.cfg.Telegram.AdminIDs,
			Stats:  a.stats,
			Notify: a.sender,
			Format: StatsText,
		})
		if err != nil {
			return fmt.Errorf("bot: schedule daily stats: %w", err)
		}
	}
	if mem, ok := a.sessions.(*state.MemoryStore); ok && !config.IsDisabled(rep.SessionSweep) {
		if err := a.sched.AddSessionSweep(rep.SessionSweep, mem, rep.MaxIdle()); err != nil {
			return fmt.Errorf("bot: schedule session sweep: %w", err)
		}
	}
	return nil
}

func (a *App) onStop(ctx context.Context, rt tg.Runtime) error {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.mu.Unlock()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()
	a.sched.Stop(stopCtx)
	a.wg.Wait()
	a.sender.Attach(nil)
	attrs := []slog.Attr{slog.Bool("broadcast_running", a.broadcast.Running())}
	if rt.Dispatcher != nil {
		attrs = append(attrs, slog.Uint64("send_errors", rt.Dispatcher.ErrorCount()))
	}
	logger.Info(ctx, "app", "bot.stopped", attrs...)
	return nil
}

// background returns the context long-running work started by handlers
// should use; it is canceled on shutdown.
func (a *App) background() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runCtx
}

// goBackground runs fn on its own goroutine tracked until shutdown.
func (a *App) goBackground(fn func(ctx context.Context)) {
	ctx := a.background()
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn(ctx)
	}()
}
