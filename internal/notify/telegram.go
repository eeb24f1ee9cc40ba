package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/offerbot/core/logger"
	"github.com/m3rciful/offerbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Sender is the part of *tele.Bot used to reach the operator chat.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Telegram forwards events to the admin chat. The bot is bound after it is
// built by the runtime; until then Notify fails with ErrDelivery.
type Telegram struct {
	adminID    int64
	dispatcher atomic.Pointer[sender.Dispatcher]
	bot        atomic.Pointer[senderBox]
}

type senderBox struct{ s Sender }

// NewTelegram builds a notifier for adminID. A nil dispatcher sends inline.
func NewTelegram(adminID int64, dispatcher *sender.Dispatcher) *Telegram {
	t := &Telegram{adminID: adminID}
	t.dispatcher.Store(dispatcher)
	return t
}

// Bind sets the bot used for delivery. Passing nil unbinds it.
func (t *Telegram) Bind(s Sender) {
	if s == nil {
		t.bot.Store(nil)
		return
	}
	t.bot.Store(&senderBox{s: s})
}

// SetDispatcher swaps the async dispatcher, typically for the runtime one.
// It is safe to call while Notify runs on other goroutines.
func (t *Telegram) SetDispatcher(d *sender.Dispatcher) {
	t.dispatcher.Store(d)
}

// Notify queues the message for the admin chat. Errors after the job is
// accepted are logged by the dispatcher and never reach the caller.
func (t *Telegram) Notify(ctx context.Context, ev Event) error {
	if t.adminID == 0 {
		return fmt.Errorf("%w: admin chat not configured", ErrDelivery)
	}
	box := t.bot.Load()
	if box == nil {
		return fmt.Errorf("%w: bot not bound", ErrDelivery)
	}

	text := Format(ev)
	to := tele.ChatID(t.adminID)
	run := func() error {
		_, err := box.s.Send(to, text)
		return err
	}

	d := t.dispatcher.Load()
	if d == nil {
		if err := run(); err != nil {
			return fmt.Errorf("%w: %v", ErrDelivery, err)
		}
		return nil
	}
	if err := d.Enqueue(ctx, "notify.admin", "sendMessage", run); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	logger.LogEvent(ctx, logger.Notify, slog.LevelDebug, "notify.queued",
		slog.String("kind", string(ev.Kind)),
		slog.Int64("user_id", ev.UserID),
	)
	return nil
}
