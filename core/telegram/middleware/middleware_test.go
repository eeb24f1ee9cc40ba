package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m3rciful/offerbot/core/logger"
	tghelpers "github.com/m3rciful/offerbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// fakeContext implements the handful of tele.Context methods the middleware uses.
type fakeContext struct {
	tele.Context
	store   map[string]interface{}
	sender  *tele.User
	update  tele.Update
	sent    int
	sendErr error
}

func newFakeContext(userID int64) *fakeContext {
	return &fakeContext{
		store:  map[string]interface{}{},
		sender: &tele.User{ID: userID},
		update: tele.Update{ID: 1, Message: &tele.Message{Text: "hello"}},
	}
}

func (f *fakeContext) Get(key string) interface{}      { return f.store[key] }
func (f *fakeContext) Set(key string, val interface{}) { f.store[key] = val }
func (f *fakeContext) Sender() *tele.User              { return f.sender }
func (f *fakeContext) Chat() *tele.Chat                { return nil }
func (f *fakeContext) Update() tele.Update             { return f.update }
func (f *fakeContext) Text() string                    { return "hello" }
func (f *fakeContext) Send(interface{}, ...interface{}) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent++
	return nil
}

func TestMessageMetricsCountsAndObserves(t *testing.T) {
	var observed []bool
	h := MessageMetrics(func(kb bool) { observed = append(observed, kb) })(func(c tele.Context) error {
		if err := c.Send("plain"); err != nil {
			return err
		}
		return c.Send("with kb", &tele.ReplyMarkup{RemoveKeyboard: true})
	})

	fc := newFakeContext(7)
	if err := h(fc); err != nil {
		t.Fatalf("handler: %v", err)
	}
	msgs, kb := GetCounters(fc)
	if msgs != 2 || !kb {
		t.Fatalf("counters = %d, %v", msgs, kb)
	}
	if len(observed) != 2 || observed[0] || !observed[1] {
		t.Fatalf("observed = %v", observed)
	}
}

func TestMessageMetricsSkipsFailedSends(t *testing.T) {
	calls := 0
	h := MessageMetrics(func(bool) { calls++ })(func(c tele.Context) error {
		return c.Send("x")
	})
	fc := newFakeContext(7)
	fc.sendErr = errors.New("blocked")
	if err := h(fc); err == nil {
		t.Fatalf("expected send error")
	}
	if msgs, _ := GetCounters(fc); msgs != 0 || calls != 0 {
		t.Fatalf("failed send counted: msgs=%d calls=%d", msgs, calls)
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	rejected := 0
	reached := 0
	mw := AdminOnlyMiddleware(AdminOptions{
		AdminID:  42,
		OnReject: func(tele.Context) error { rejected++; return nil },
	})
	h := mw(func(tele.Context) error { reached++; return nil })

	_ = h(newFakeContext(42))
	_ = h(newFakeContext(7))
	if reached != 1 || rejected != 1 {
		t.Fatalf("reached=%d rejected=%d", reached, rejected)
	}

	open := AdminOnlyMiddleware(AdminOptions{})(func(tele.Context) error { reached++; return nil })
	_ = open(newFakeContext(42))
	if reached != 1 {
		t.Fatalf("admin-only handler ran without a configured admin")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limited := 0
	passed := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	h := mw(func(tele.Context) error { passed++; return nil })

	_ = h(newFakeContext(1))
	_ = h(newFakeContext(1))
	_ = h(newFakeContext(2))
	if passed != 2 || limited != 1 {
		t.Fatalf("passed=%d limited=%d", passed, limited)
	}

	excluded := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"message": {}},
	})(func(tele.Context) error { passed++; return nil })
	_ = excluded(newFakeContext(3))
	_ = excluded(newFakeContext(3))
	if passed != 4 {
		t.Fatalf("excluded updates were limited: passed=%d", passed)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	if err := h(newFakeContext(1)); err != nil {
		t.Fatalf("recovered handler returned %v", err)
	}
}

func TestRateLimitMiddlewareReleasesAfterInterval(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	passed := 0
	h := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Second,
		Now:      func() time.Time { return now },
	})(func(tele.Context) error { passed++; return nil })

	_ = h(newFakeContext(1))
	now = now.Add(500 * time.Millisecond)
	_ = h(newFakeContext(1))
	now = now.Add(600 * time.Millisecond)
	_ = h(newFakeContext(1))
	if passed != 2 {
		t.Fatalf("passed = %d, want 2", passed)
	}
}

func TestLoggerMiddlewareStoresContextOnce(t *testing.T) {
	fc := newFakeContext(5)
	var inner, outer context.Context
	h := LoggerMiddleware(func(c tele.Context) error {
		outer, _ = tghelpers.ContextFrom(c)
		return LoggerMiddleware(func(c tele.Context) error {
			inner, _ = tghelpers.ContextFrom(c)
			return nil
		})(c)
	})
	if err := h(fc); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if outer == nil || inner != outer {
		t.Fatalf("nested middleware replaced the stored context")
	}
	if m := logger.MetaFrom(outer); m.UserID != 5 || m.UpdateID != 1 {
		t.Fatalf("meta = %+v", m)
	}
}
