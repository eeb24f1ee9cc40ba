package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/offerbot/core/logger"
	"github.com/m3rciful/offerbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/offerbot/core/telegram/helpers"
	"github.com/m3rciful/offerbot/core/telegram/keyboard"
	"github.com/m3rciful/offerbot/internal/conversation"
	"github.com/m3rciful/offerbot/internal/entitlement"

	tele "gopkg.in/telebot.v4"
)

const lookupUsage = "/lookup <user_id>"

func (a *App) registerCommands() {
	a.registry.RegisterCommand("/start", commands.Command{
		Handler:     a.handle(conversation.EventStart),
		Description: "Activate free internet",
	})
	a.registry.RegisterCommand("/status", commands.Command{
		Handler:     a.handle(conversation.EventStatus),
		Description: "Check your internet status",
	})
	a.registry.RegisterCommand("/help", commands.Command{
		Handler:     a.handle(conversation.EventHelp),
		Description: "Show available commands",
	})
	a.registry.RegisterCommand("/cancel", commands.Command{
		Handler:     a.handle(conversation.EventCancel),
		Description: "Cancel the current operation",
		Aliases:     []string{"/stop"},
	})
	a.registry.RegisterCommand("/lookup", commands.Command{
		Handler:     a.onLookup,
		Description: "Inspect a user's entitlement",
		Usage:       lookupUsage,
		AdminOnly:   true,
	})
	a.registry.SetTextFallback(a.handle(conversation.EventText))
}

// flow routes free text of users inside the offer flow to the machine.
type flow struct {
	app *App
}

func (f flow) InProgress(userID int64) bool {
	return f.app.machine.InProgress(userID)
}

func (f flow) ManagerHandler(c tele.Context) error {
	return f.app.handle(conversation.EventText)(c)
}

func (a *App) catalog(c tele.Context) *Catalog {
	if u := c.Sender(); u != nil {
		return a.catalogs.For(u.LanguageCode)
	}
	return a.catalogs.For("")
}

// handle feeds one update into the machine and renders the reply.
// Machine errors get a generic failure reply and are returned so the
// runtime logs them.
func (a *App) handle(kind conversation.EventKind) tele.HandlerFunc {
	return func(c tele.Context) error {
		u := c.Sender()
		if u == nil {
			return nil
		}
		ctx := tghelpers.BuildContext(c)
		cat := a.catalog(c)

		ev := conversation.Event{
			Kind:      kind,
			Text:      c.Text(),
			FirstName: u.FirstName,
			Username:  u.Username,
		}
		reply, err := a.machine.Handle(ctx, u.ID, ev)
		if err != nil {
			if sendErr := tghelpers.SendText(c, cat.Failure); sendErr != nil {
				logger.Warn(ctx, "tg", "failure_reply.fail", slog.String("err", sendErr.Error()))
			}
			return fmt.Errorf("handle %s: %w", kind, err)
		}
		text := cat.Render(reply, a.cfg.Offer.BalanceLabel)
		if reply.Kind == conversation.ReplyHelp && a.isAdmin(u.ID) {
			if lines := a.registry.AdminHelp(); len(lines) > 0 {
				text += "\n\n" + strings.Join(lines, "\n")
			}
		}
		return tghelpers.SendWithMarkup(c, text, a.markup(u.ID))
	}
}

func (a *App) isAdmin(userID int64) bool {
	return a.cfg.Telegram.AdminID != 0 && userID == a.cfg.Telegram.AdminID
}

// markup hides the menu while a phone number or code is expected.
func (a *App) markup(userID int64) *tele.ReplyMarkup {
	if a.machine.InProgress(userID) {
		return keyboard.RemoveKeyboard()
	}
	return mainMenu()
}

func mainMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{"/start", "/status"},
		[]string{"/help"},
	)
}

func (a *App) onMedia(c tele.Context) error {
	return tghelpers.SendText(c, a.catalog(c).Unsupported)
}

func (a *App) onLimited(c tele.Context) error {
	return tghelpers.SendText(c, a.catalog(c).RateLimited)
}

func (a *App) onAdminReject(c tele.Context) error {
	return tghelpers.SendWithMarkup(c, a.catalog(c).Hint, mainMenu())
}

func (a *App) onLookup(c tele.Context) error {
	userID, err := strconv.ParseInt(strings.TrimSpace(c.Data()), 10, 64)
	if err != nil || userID <= 0 {
		return tghelpers.SendText(c, "Usage: "+lookupUsage)
	}
	ctx := tghelpers.BuildContext(c)
	text, err := a.lookup(ctx, userID)
	if err != nil {
		if sendErr := tghelpers.SendText(c, english.Failure); sendErr != nil {
			logger.Warn(ctx, "tg", "failure_reply.fail", slog.String("err", sendErr.Error()))
		}
		return fmt.Errorf("lookup %d: %w", userID, err)
	}
	return tghelpers.SendText(c, text)
}

// lookup renders an operator summary of userID's entitlement and flow state.
func (a *App) lookup(ctx context.Context, userID int64) (string, error) {
	now := a.now()
	st, err := a.engine.EvaluateStatus(ctx, userID, now)
	if err != nil {
		return "", err
	}
	cd, err := a.engine.EvaluateCooldown(ctx, userID, now)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "User %d\n", userID)
	fmt.Fprintf(&b, "State: %s\n", a.machine.State(userID))
	fmt.Fprintf(&b, "Entitlement: %s\n", st.Kind)
	if st.Kind != entitlement.StatusNone {
		fmt.Fprintf(&b, "Phone: %s\n", st.Phone)
		fmt.Fprintf(&b, "Expires: %s", st.Expiry)
		if st.Kind == entitlement.StatusActive {
			fmt.Fprintf(&b, " (%s left)", shortRemaining(st.Remaining))
		}
		b.WriteString("\n")
	}
	if cd.Active {
		fmt.Fprintf(&b, "Cooldown: %s left", shortRemaining(cd.Remaining))
	} else {
		b.WriteString("Cooldown: none")
	}
	return b.String(), nil
}

func shortRemaining(r entitlement.Remaining) string {
	return fmt.Sprintf("%dd %dh %dm", r.Days, r.Hours, r.Minutes)
}
