package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/offerbot/internal/conversation"
	"github.com/m3rciful/offerbot/internal/entitlement"
)

func TestCatalogsAutoMatchesLanguageCode(t *testing.T) {
	cs := NewCatalogs("auto")
	cases := map[string]*Catalog{
		"":      &arabic,
		"ar":    &arabic,
		"ar-DZ": &arabic,
		"en":    &english,
		"en-US": &english,
		"ja":    &arabic,
	}
	for code, want := range cases {
		if got := cs.For(code); got != want {
			t.Fatalf("For(%q) = %s, want %s", code, got.Tag, want.Tag)
		}
	}
}

func TestCatalogsFixedLanguageIgnoresSender(t *testing.T) {
	if got := NewCatalogs("en").For("ar"); got != &english {
		t.Fatalf("fixed en returned %s", got.Tag)
	}
	if got := NewCatalogs("ar").For("en-GB"); got != &arabic {
		t.Fatalf("fixed ar returned %s", got.Tag)
	}
}

func TestRenderCooldownArabic(t *testing.T) {
	r := conversation.Reply{
		Kind:     conversation.ReplyCooldown,
		Cooldown: entitlement.Cooldown{Active: true, Remaining: entitlement.SplitRemaining(3*time.Hour + 25*time.Minute)},
	}
	got := arabic.Render(r, "2.0GB")
	if !strings.Contains(got, "يجب الانتظار 0 يوم و 3 ساعة و 25 دقيقة") {
		t.Fatalf("cooldown text = %q", got)
	}
}

func TestRenderStatusAndGrant(t *testing.T) {
	st := entitlement.Status{
		Kind:      entitlement.StatusActive,
		Expiry:    "2025/07/01",
		Remaining: entitlement.Remaining{Days: 29, Hours: 23, Minutes: 59},
	}
	got := english.Render(conversation.Reply{Kind: conversation.ReplyStatusActive, Status: st}, "2.0GB")
	for _, want := range []string{"2.0GB", "2025/07/01", "29 days, 23 hours and 59 minutes"} {
		if !strings.Contains(got, want) {
			t.Fatalf("status text %q missing %q", got, want)
		}
	}

	got = arabic.Render(conversation.Reply{Kind: conversation.ReplyGranted, Status: st}, "2.0GB")
	if !strings.Contains(got, "(2.0GB)") || !strings.Contains(got, "صالح إلى غاية: 2025/07/01") {
		t.Fatalf("grant text = %q", got)
	}

	got = arabic.Render(conversation.Reply{Kind: conversation.ReplyStatusExpired, Status: entitlement.Status{Kind: entitlement.StatusExpired, Expiry: "2025/01/01"}}, "2.0GB")
	if !strings.Contains(got, "منتهي الصلاحية") || !strings.Contains(got, "2025/01/01") {
		t.Fatalf("expired text = %q", got)
	}
}

func TestRenderCodeSentDisclosure(t *testing.T) {
	plain := english.Render(conversation.Reply{Kind: conversation.ReplyCodeSent}, "")
	if strings.Contains(plain, "4821") {
		t.Fatalf("code leaked: %q", plain)
	}
	shown := english.Render(conversation.Reply{Kind: conversation.ReplyCodeSent, Code: "4821"}, "")
	if !strings.Contains(shown, "4821") {
		t.Fatalf("disclosed text = %q", shown)
	}
}

func TestEveryReplyKindHasText(t *testing.T) {
	for _, cat := range catalogs {
		seen := map[string]conversation.ReplyKind{}
		for k := conversation.ReplyHint; k <= conversation.ReplyHelp; k++ {
			got := cat.Render(conversation.Reply{Kind: k}, "2.0GB")
			if strings.TrimSpace(got) == "" {
				t.Fatalf("%s: empty text for %s", cat.Tag, k)
			}
			if prev, dup := seen[got]; dup {
				t.Fatalf("%s: %s and %s render the same text", cat.Tag, prev, k)
			}
			seen[got] = k
		}
	}
}
