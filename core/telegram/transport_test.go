package telegram

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/offerbot/core/config"

	tele "gopkg.in/telebot.v4"
)

type scriptedTripper struct {
	errs   []error
	calls  int
	bodies []string
}

func (s *scriptedTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	s.calls++
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		s.bodies = append(s.bodies, string(b))
	}
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}"))}, nil
}

func dialErr() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
}

func TestRetryTransportReplaysBody(t *testing.T) {
	base := &scriptedTripper{errs: []error{dialErr(), dialErr()}}
	rt := &retryTransport{base: base, retries: 3, backoff: time.Millisecond}

	req, _ := http.NewRequest(http.MethodPost, "https://example.invalid/x", strings.NewReader("payload"))
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	resp.Body.Close()
	if base.calls != 3 {
		t.Fatalf("calls = %d, want 3", base.calls)
	}
	for i, b := range base.bodies {
		if b != "payload" {
			t.Fatalf("attempt %d body = %q", i, b)
		}
	}
}

func TestRetryTransportGivesUp(t *testing.T) {
	base := &scriptedTripper{errs: []error{dialErr(), dialErr(), dialErr()}}
	rt := &retryTransport{base: base, retries: 1, backoff: time.Millisecond}

	req, _ := http.NewRequest(http.MethodGet, "https://example.invalid/x", nil)
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatalf("expected error after retries")
	}
	if base.calls != 2 {
		t.Fatalf("calls = %d, want 2", base.calls)
	}
}

func TestRetryTransportSkipsPermanentErrors(t *testing.T) {
	base := &scriptedTripper{errs: []error{errors.New("malformed")}}
	rt := &retryTransport{base: base, retries: 3, backoff: time.Millisecond}

	req, _ := http.NewRequest(http.MethodGet, "https://example.invalid/x", nil)
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatalf("expected error")
	}
	if base.calls != 1 {
		t.Fatalf("calls = %d, want 1", base.calls)
	}
}

func TestBuildPoller(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Telegram.RunMode = coreconfig.RunModeLongpoll
	lp, ok := BuildPoller(cfg).(*tele.LongPoller)
	if !ok {
		t.Fatalf("longpoll mode built %T", BuildPoller(cfg))
	}
	if lp.Timeout != defaultLongPollTimeout || len(lp.AllowedUpdates) != 1 {
		t.Fatalf("poller = %+v", lp)
	}

	cfg.Telegram.LongPollTimeoutSeconds = 25
	if lp := BuildPoller(cfg).(*tele.LongPoller); lp.Timeout != 25*time.Second {
		t.Fatalf("timeout = %v", lp.Timeout)
	}

	cfg.Telegram.RunMode = coreconfig.RunModeWebhook
	cfg.Webhook.Listen = "0.0.0.0"
	cfg.Webhook.Port = 8443
	cfg.Webhook.URL = "https://bot.example.com/hook"
	wh, ok := BuildPoller(cfg).(*tele.Webhook)
	if !ok {
		t.Fatalf("webhook mode built %T", BuildPoller(cfg))
	}
	if wh.Listen != "0.0.0.0:8443" || wh.Endpoint.PublicURL != cfg.Webhook.URL {
		t.Fatalf("webhook = %+v", wh)
	}
}
