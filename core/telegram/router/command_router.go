package router

import (
	"context"
	"log/slog"

	"github.com/m3rciful/kinobot/core/logger"
	tg "github.com/m3rciful/kinobot/core/telegram"
	"github.com/m3rciful/kinobot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures CommandRoutes.
type CommandRouteOptions struct {
	AdminIDs      []int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per registered /command. Admin-only
// commands are guarded by the admin middleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	guard := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminIDs: opts.AdminIDs,
		OnReject: opts.OnAdminReject,
	})

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for name, cmd := range reg.Commands() {
		h := cmd.Handler
		if cmd.AdminOnly {
			h = guard(h)
		}
		label := handlerName(name)
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  entry(func(c tele.Context) error { return dispatch(c, label, h) }),
		})
	}

	logger.LogEvent(context.Background(), logger.TWire, slog.LevelInfo, "routes.commands",
		slog.Int("count", len(routes)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
