package router

import (
	"strings"

	tg "github.com/m3rciful/offerbot/core/telegram"
	"github.com/m3rciful/offerbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM defines the minimal interface for a conversation driver.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// mediaEndpoints receive the unsupported media reply.
var mediaEndpoints = []string{tele.OnPhoto, tele.OnDocument, tele.OnSticker, tele.OnVideo, tele.OnVoice, tele.OnContact, tele.OnLocation}

// TextOptions controls fallback behaviour for text and non-text updates.
type TextOptions struct {
	UnknownText      tele.HandlerFunc
	UnsupportedMedia tele.HandlerFunc
}

// TextRoutes builds handlers for free text. Users inside a conversation are
// routed to the FSM; slash-prefixed aliases are resolved against the
// registry; everything else falls back.
func TextRoutes(fsmMgr FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		if reg != nil && strings.HasPrefix(c.Text(), "/") {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return summarized(handlerName(key), cmd.Handler)(c)
			}
		}
		if fsmMgr != nil && c.Sender() != nil && fsmMgr.InProgress(c.Sender().ID) {
			return summarized("fsm", fsmMgr.ManagerHandler)(c)
		}
		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return summarized("fallback", fb)(c)
			}
		}
		if opts.UnknownText != nil {
			return summarized("unknown_text", opts.UnknownText)(c)
		}
		return skipped(c, "unknown_text")
	}

	media := func(c tele.Context) error {
		if opts.UnsupportedMedia != nil {
			return summarized("unsupported_media", opts.UnsupportedMedia)(c)
		}
		return skipped(c, "unsupported_media")
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}
	routes := []tg.Route{{Endpoint: tele.OnText, Handler: wrap(text)}}
	for _, ep := range mediaEndpoints {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: wrap(media)})
	}
	return routes
}
