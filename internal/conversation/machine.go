package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/offerbot/core/logger"
	"github.com/m3rciful/offerbot/core/telegram/state"
	"github.com/m3rciful/offerbot/internal/entitlement"
	"github.com/m3rciful/offerbot/internal/metrics"
	"github.com/m3rciful/offerbot/internal/notify"
)

const (
	component = "service.conversation"
	phoneKey  = "phone"
)

// transition decides the reply and next state for one event.
// Returning an error aborts the event and leaves the session untouched.
type transition func(m *Machine, ctx context.Context, c *Context, ev Event, now time.Time) (Reply, State, error)

type key struct {
	state State
	event EventKind
}

// table is the canonical transition table. Status, help and cancel are
// accepted in every state; start restarts the flow from any state.
var table = func() map[key]transition {
	t := map[key]transition{
		{StateAwaitingPhone, EventText}: (*Machine).capturePhone,
		{StateAwaitingCode, EventText}:  (*Machine).submitCode,
		{StateIdle, EventText}:          (*Machine).hint,
	}
	for _, s := range []State{StateIdle, StateAwaitingPhone, StateAwaitingCode} {
		t[key{s, EventStart}] = (*Machine).start
		t[key{s, EventStatus}] = (*Machine).status
		t[key{s, EventHelp}] = (*Machine).help
		t[key{s, EventCancel}] = (*Machine).cancel
	}
	return t
}()

// Option customises a Machine.
type Option func(*Machine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithDiscloseCode echoes issued codes back in ReplyCodeSent.
func WithDiscloseCode(disclose bool) Option {
	return func(m *Machine) { m.disclose = disclose }
}

// Machine drives conversations for all users.
type Machine struct {
	engine   *entitlement.Engine
	sessions state.Manager
	notifier notify.Notifier
	now      func() time.Time
	disclose bool
}

// New builds a Machine. A nil notifier disables operator notifications.
func New(engine *entitlement.Engine, sessions state.Manager, notifier notify.Notifier, opts ...Option) (*Machine, error) {
	if engine == nil {
		return nil, errors.New("conversation: nil engine")
	}
	if sessions == nil {
		sessions = state.NewMemoryManager()
	}
	m := &Machine{
		engine:   engine,
		sessions: sessions,
		notifier: notifier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// State returns the user's current conversation state.
func (m *Machine) State(userID int64) State {
	return fromSession(m.sessions.GetState(userID))
}

// InProgress reports whether the user is inside the offer flow.
func (m *Machine) InProgress(userID int64) bool {
	return m.State(userID) != StateIdle
}

func (m *Machine) load(userID int64) Context {
	s := m.sessions.Get(userID)
	phone, _ := s.Temp(phoneKey)
	return Context{UserID: userID, State: fromSession(s.State), Phone: phone}
}

func (m *Machine) save(c Context) {
	if c.State == StateIdle {
		m.sessions.Clear(c.UserID)
		return
	}
	data := map[string]string{}
	if c.Phone != "" {
		data[phoneKey] = c.Phone
	}
	m.sessions.Put(c.UserID, state.Session{State: c.State.session(), TempData: data})
}

// Handle applies ev to the user's conversation and returns the reply to send.
// On error no state change is persisted.
func (m *Machine) Handle(ctx context.Context, userID int64, ev Event) (Reply, error) {
	c := m.load(userID)
	from := c.State

	tr, ok := table[key{c.State, ev.Kind}]
	if !ok {
		return Reply{}, fmt.Errorf("conversation: no transition for %s in %s", ev.Kind, c.State)
	}

	reply, next, err := tr(m, ctx, &c, ev, m.now())
	if err != nil {
		logger.LogEvent(ctx, logger.SVCConversation, slog.LevelError, "transition.fail",
			slog.Int64("user_id", userID),
			slog.String("state", from.String()),
			slog.String("trigger", ev.Kind.String()),
			slog.String("err", err.Error()),
		)
		return Reply{}, err
	}

	c.State = next
	if next == StateIdle {
		c.Phone = ""
	}
	m.save(c)

	logger.LogEvent(ctx, logger.SVCConversation, slog.LevelInfo, "transition",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("state", from.String()),
		slog.String("next_state", next.String()),
		slog.String("trigger", ev.Kind.String()),
		slog.String("reply", reply.Kind.String()),
	)
	return reply, nil
}

func (m *Machine) start(ctx context.Context, c *Context, _ Event, now time.Time) (Reply, State, error) {
	c.Phone = ""

	cd, err := m.engine.EvaluateCooldown(ctx, c.UserID, now)
	if err != nil {
		return Reply{}, c.State, err
	}
	if cd.Active {
		metrics.ObserveStart("cooldown")
		return Reply{Kind: ReplyCooldown, Cooldown: cd}, StateIdle, nil
	}

	st, err := m.engine.EvaluateStatus(ctx, c.UserID, now)
	if err != nil {
		return Reply{}, c.State, err
	}
	if st.Kind == entitlement.StatusActive {
		metrics.ObserveStart("active")
		return Reply{Kind: ReplyStatusActive, Status: st}, StateIdle, nil
	}

	metrics.ObserveStart("welcome")
	return Reply{Kind: ReplyWelcome}, StateAwaitingPhone, nil
}

func (m *Machine) capturePhone(ctx context.Context, c *Context, ev Event, now time.Time) (Reply, State, error) {
	phone, err := m.engine.ValidatePhone(ev.Text)
	if errors.Is(err, entitlement.ErrValidation) {
		return Reply{Kind: ReplyInvalidPhone}, StateAwaitingPhone, nil
	}
	if err != nil {
		return Reply{}, c.State, err
	}

	code, err := m.engine.IssueCode(ctx, c.UserID, now)
	if err != nil {
		return Reply{}, c.State, err
	}
	c.Phone = phone

	m.notify(ctx, notify.Event{
		Kind:      notify.KindPhoneCaptured,
		UserID:    c.UserID,
		FirstName: ev.FirstName,
		Username:  ev.Username,
		Phone:     phone,
	})

	reply := Reply{Kind: ReplyCodeSent}
	if m.disclose {
		reply.Code = code
	}
	return reply, StateAwaitingCode, nil
}

func (m *Machine) submitCode(ctx context.Context, c *Context, ev Event, now time.Time) (Reply, State, error) {
	verdict, err := m.engine.VerifyCode(ctx, c.UserID, ev.Text, now)
	if errors.Is(err, entitlement.ErrValidation) {
		metrics.ObserveVerification("malformed")
		return Reply{Kind: ReplyInvalidCode}, StateAwaitingCode, nil
	}
	if err != nil {
		return Reply{}, c.State, err
	}
	metrics.ObserveVerification(verdict.String())

	// VerifyCode accepted the format, so the trimmed text is the code itself.
	m.notify(ctx, notify.Event{
		Kind:      notify.KindCodeSubmitted,
		UserID:    c.UserID,
		FirstName: ev.FirstName,
		Username:  ev.Username,
		Phone:     c.Phone,
		Code:      strings.TrimSpace(ev.Text),
	})

	switch verdict {
	case entitlement.VerdictAccepted:
	case entitlement.VerdictExpired:
		return Reply{Kind: ReplyCodeExpired}, StateAwaitingCode, nil
	case entitlement.VerdictNoPending:
		return Reply{Kind: ReplyNoPendingCode}, StateIdle, nil
	default:
		return Reply{Kind: ReplyWrongCode}, StateAwaitingCode, nil
	}

	st, err := m.engine.Grant(ctx, c.UserID, c.Phone, now)
	if err != nil {
		return Reply{}, c.State, err
	}
	metrics.ObserveGrant()
	return Reply{Kind: ReplyGranted, Status: st}, StateIdle, nil
}

func (m *Machine) status(ctx context.Context, c *Context, _ Event, now time.Time) (Reply, State, error) {
	st, err := m.engine.EvaluateStatus(ctx, c.UserID, now)
	if err != nil {
		return Reply{}, c.State, err
	}
	switch st.Kind {
	case entitlement.StatusActive:
		return Reply{Kind: ReplyStatusActive, Status: st}, c.State, nil
	case entitlement.StatusExpired:
		return Reply{Kind: ReplyStatusExpired, Status: st}, c.State, nil
	default:
		return Reply{Kind: ReplyNoEntitlement}, c.State, nil
	}
}

func (m *Machine) help(_ context.Context, c *Context, _ Event, _ time.Time) (Reply, State, error) {
	return Reply{Kind: ReplyHelp}, c.State, nil
}

func (m *Machine) cancel(_ context.Context, c *Context, _ Event, _ time.Time) (Reply, State, error) {
	return Reply{Kind: ReplyCancelled}, StateIdle, nil
}

func (m *Machine) hint(_ context.Context, c *Context, _ Event, _ time.Time) (Reply, State, error) {
	return Reply{Kind: ReplyHint}, StateIdle, nil
}

// notify forwards ev to the operator. Failures are logged and dropped.
func (m *Machine) notify(ctx context.Context, ev notify.Event) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, ev); err != nil {
		metrics.ObserveNotifyFailure()
		logger.Warn(ctx, component, "notify.fail",
			slog.String("kind", string(ev.Kind)),
			slog.Int64("user_id", ev.UserID),
			slog.String("err", err.Error()),
		)
	}
}
