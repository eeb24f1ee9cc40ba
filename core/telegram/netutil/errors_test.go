package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"deadline", fmt.Errorf("send: %w", context.DeadlineExceeded), KindTimeout},
		{"flood", tele.FloodError{RetryAfter: 3}, KindFlood},
		{"server", &tele.Error{Code: 502, Description: "Bad Gateway"}, KindServer},
		{"client", &tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"}, KindClient},
		{"parsed", errors.New("telegram: chat not found (400)"), KindClient},
		{"dns", &net.DNSError{Err: "no such host", Name: "api.telegram.org"}, KindDNS},
		{"dial", &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}, KindDial},
		{"url timeout", &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: timeoutErr{}}, KindTimeout},
		{"other", errors.New("boom"), KindUnknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("%s: Classify = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestShouldRetry(t *testing.T) {
	if !ShouldRetry(&tele.Error{Code: 500}) || !ShouldRetry(tele.FloodError{RetryAfter: 1}) {
		t.Fatalf("transient errors must retry")
	}
	if ShouldRetry(&tele.Error{Code: 400}) || ShouldRetry(errors.New("boom")) || ShouldRetry(nil) {
		t.Fatalf("permanent errors must not retry")
	}
}

func TestBackoffHonoursFloodWait(t *testing.T) {
	if got := Backoff(time.Second, 2, errors.New("x")); got != 2*time.Second {
		t.Fatalf("linear backoff = %s", got)
	}
	if got := Backoff(time.Second, 1, tele.FloodError{RetryAfter: 7}); got != 7*time.Second {
		t.Fatalf("flood backoff = %s", got)
	}
}

func TestRedactToken(t *testing.T) {
	in := `Post "https://api.telegram.org/bot123456:AA-bb_CC/sendMessage": EOF`
	if got := RedactToken(in); got != `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF` {
		t.Fatalf("RedactToken = %q", got)
	}
}
