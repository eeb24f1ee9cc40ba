package router

import (
	"log/slog"

	"github.com/m3rciful/offerbot/core/logger"
	tg "github.com/m3rciful/offerbot/core/telegram"
	"github.com/m3rciful/offerbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures CommandRoutes.
type CommandRouteOptions struct {
	// AdminID may run AdminOnly commands; 0 rejects everyone.
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per registered command. Each handler is
// summarized, logged and recovered; AdminOnly commands are gated first.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	gate := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	adminOnly := 0
	for key, def := range cmds {
		h := summarized(handlerName(key), def.Handler)
		h = middleware.LoggerMiddleware(middleware.RecoverMiddleware(h))
		if def.AdminOnly {
			adminOnly++
			h = gate(h)
		}
		routes = append(routes, tg.Route{Endpoint: key, Handler: h})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(cmds)),
		slog.Int("admin_only", adminOnly),
	)
	return routes
}
