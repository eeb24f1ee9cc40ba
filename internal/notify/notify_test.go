package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/offerbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	to   []string
	err  error
	done chan struct{}
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done != nil {
		defer close(f.done)
	}
	if f.err != nil {
		return nil, f.err
	}
	f.to = append(f.to, to.Recipient())
	f.sent = append(f.sent, what.(string))
	return &tele.Message{}, nil
}

func TestFormat(t *testing.T) {
	phone := Format(Event{Kind: KindPhoneCaptured, UserID: 5, FirstName: "Amel", Phone: "0551234567"})
	if !strings.Contains(phone, "0551234567") || !strings.Contains(phone, "no username") {
		t.Fatalf("unexpected phone message %q", phone)
	}
	code := Format(Event{Kind: KindCodeSubmitted, UserID: 5, Username: "@amel", Code: "4821", Phone: "0551234567"})
	if !strings.Contains(code, "4821") || !strings.Contains(code, "@amel") || strings.Contains(code, "@@") {
		t.Fatalf("unexpected code message %q", code)
	}
}

func TestTelegramUnboundFails(t *testing.T) {
	n := NewTelegram(100, nil)
	if err := n.Notify(context.Background(), Event{}); !errors.Is(err, ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
	if err := NewTelegram(0, nil).Notify(context.Background(), Event{}); !errors.Is(err, ErrDelivery) {
		t.Fatalf("expected ErrDelivery without admin, got %v", err)
	}
}

func TestTelegramInlineDelivery(t *testing.T) {
	fs := &fakeSender{}
	n := NewTelegram(100, nil)
	n.Bind(fs)
	if err := n.Notify(context.Background(), Event{Kind: KindPhoneCaptured, Phone: "551234567"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(fs.sent) != 1 || fs.to[0] != "100" {
		t.Fatalf("unexpected deliveries %v to %v", fs.sent, fs.to)
	}

	fs.err = errors.New("forbidden (403)")
	if err := n.Notify(context.Background(), Event{}); !errors.Is(err, ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
}

func TestTelegramQueuedDelivery(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 1, QueueSize: 4})
	defer d.Close()

	fs := &fakeSender{done: make(chan struct{})}
	n := NewTelegram(100, d)
	n.Bind(fs)
	if err := n.Notify(context.Background(), Event{Kind: KindCodeSubmitted, Code: "1234"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	select {
	case <-fs.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("queued notification was not delivered")
	}
}

func TestTelegramDispatcherSwapDuringNotify(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 2, QueueSize: 64})
	defer d.Close()

	fs := &fakeSender{}
	n := NewTelegram(100, nil)
	n.Bind(fs)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				// Queue-full errors are acceptable here; only the swap is under test.
				_ = n.Notify(context.Background(), Event{Kind: KindPhoneCaptured, Phone: "551234567"})
			}
		}()
	}
	for j := 0; j < 50; j++ {
		n.SetDispatcher(d)
		n.SetDispatcher(nil)
	}
	wg.Wait()
	d.Close()

	n.SetDispatcher(nil)
	fs.mu.Lock()
	before := len(fs.sent)
	fs.mu.Unlock()
	if err := n.Notify(context.Background(), Event{Kind: KindPhoneCaptured}); err != nil {
		t.Fatalf("inline notify after unset: %v", err)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.sent) != before+1 {
		t.Fatalf("expected inline delivery once dispatcher is cleared, got %d sends after %d", len(fs.sent), before)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	var calls int
	ok := Func(func(context.Context, Event) error { calls++; return nil })
	bad := Func(func(context.Context, Event) error { calls++; return ErrDelivery })
	err := Multi{bad, nil, ok, Log{}}.Notify(context.Background(), Event{})
	if !errors.Is(err, ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected both notifiers called, got %d", calls)
	}
}
