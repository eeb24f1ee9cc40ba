package telegram

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/m3rciful/offerbot/core/logger"
	"github.com/m3rciful/offerbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry holds bot commands and the text fallback. It is filled during
// wiring and read-only once the bot starts.
type Registry struct {
	commands     map[string]commands.Command
	textFallback tele.HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]commands.Command)}
}

// RegisterCommand adds cmd under name, which must start with "/". Invalid
// and duplicate registrations are logged and ignored.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	reason := ""
	switch {
	case r == nil || cmd.Handler == nil || cmd.Description == "":
		reason = "invalid"
	case !strings.HasPrefix(name, "/"):
		reason = "no_slash_prefix"
	default:
		if _, dup := r.commands[name]; dup {
			reason = "duplicate"
		}
	}
	if reason != "" {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", reason),
		)
		return
	}
	r.commands[name] = cmd
}

// ListCommands returns the command menu sorted by name. Hidden commands are
// never listed; publicOnly also drops admin-only ones.
func (r *Registry) ListCommands(publicOnly bool) []tele.Command {
	var list []tele.Command
	for _, name := range r.sortedNames() {
		meta := r.commands[name]
		if meta.Hidden || (publicOnly && meta.AdminOnly) {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: meta.Description})
	}
	return list
}

// AdminHelp lists admin-only commands as "<usage> - <description>" lines.
func (r *Registry) AdminHelp() []string {
	var lines []string
	for _, name := range r.sortedNames() {
		meta := r.commands[name]
		if meta.AdminOnly && !meta.Hidden {
			lines = append(lines, meta.Label(name)+" - "+meta.Description)
		}
	}
	return lines
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LookupCommand resolves the first word of text to a canonical command key,
// matching names and aliases. Arguments and an @botname suffix are ignored.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	name, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	name, _, _ = strings.Cut(name, "\n")
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i]
	}
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for _, key := range r.sortedNames() {
		cmd := r.commands[key]
		if slices.ContainsFunc(cmd.Aliases, func(a string) bool { return a == name || "/"+a == name }) {
			return key, cmd, true
		}
	}
	return "", commands.Command{}, false
}

// Commands exposes the registered commands keyed by name.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// SetTextFallback sets the handler for text no command or flow claims.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// SetupCommands publishes the command menu. The admin chat additionally
// sees admin-only commands when adminID is set.
func SetupCommands(bot *tele.Bot, reg *Registry, adminID int64) {
	if bot == nil || reg == nil {
		return
	}
	ctx := context.Background()
	public := reg.ListCommands(true)
	if err := bot.SetCommands(public); err != nil {
		logger.TWire.LogAttrs(ctx, slog.LevelError, "register.commands.set_failed",
			slog.String("scope", "default"),
			slog.String("err", err.Error()),
		)
		return
	}
	attrs := []slog.Attr{slog.Int("public", len(public))}

	if all := reg.ListCommands(false); adminID != 0 && len(all) > len(public) {
		scope := tele.CommandScope{Type: tele.CommandScopeChat, ChatID: adminID}
		if err := bot.SetCommands(all, scope); err != nil {
			logger.TWire.LogAttrs(ctx, slog.LevelWarn, "register.commands.set_failed",
				slog.String("scope", "admin"),
				slog.String("err", err.Error()),
			)
		} else {
			attrs = append(attrs, slog.Int("admin", len(all)))
		}
	}
	logger.TWire.LogAttrs(ctx, slog.LevelInfo, "register.commands.set", attrs...)
}
