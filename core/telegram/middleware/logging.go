package middleware

import (
	"log/slog"
	"strings"

	"github.com/m3rciful/offerbot/core/logger"
	tghelpers "github.com/m3rciful/offerbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware attaches update metadata to the context and logs one
// receipt line per update. Nested applications find the stored context and
// pass through, so the line is written once.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if _, ok := tghelpers.ContextFrom(c); ok {
			return next(c)
		}
		ctx := tghelpers.BuildContext(c)

		attrs := []slog.Attr{slog.String("status", "ok")}
		if chat := c.Chat(); chat != nil {
			attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
		}
		if u := c.Sender(); u != nil {
			if u.Username != "" {
				attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
			}
			if u.LanguageCode != "" {
				attrs = append(attrs, slog.String("lang", u.LanguageCode))
			}
		}
		// Message text carries phone numbers and codes; log its shape only.
		if c.Update().Message != nil {
			t := c.Text()
			kind := "text"
			switch {
			case strings.HasPrefix(t, "/"):
				kind = "command"
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(commandName(t), 64)))
			case t == "":
				kind = "media"
			}
			attrs = append(attrs,
				slog.String("msg_kind", kind),
				slog.Int("text_len", len(t)),
			)
		}
		logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", attrs...)

		return next(c)
	}
}

func commandName(text string) string {
	if i := strings.IndexAny(text, " \n\t"); i >= 0 {
		return text[:i]
	}
	return text
}
