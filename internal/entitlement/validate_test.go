package entitlement

import (
	"errors"
	"testing"
	"time"
)

func TestValidatePhone(t *testing.T) {
	accepted := map[string]string{
		"0551234567":     "0551234567",
		"551234567":      "551234567",
		"  0551234567 ":  "0551234567",
	}
	for in, want := range accepted {
		got, err := ValidatePhone(in)
		if err != nil {
			t.Fatalf("ValidatePhone(%q): unexpected error %v", in, err)
		}
		if got != want {
			t.Fatalf("ValidatePhone(%q) = %q, want %q", in, got, want)
		}
	}

	for _, in := range []string{"12345", "055123456a", "", "055123456", "0551234567 8", "5512345678", "٠٥٥١٢٣٤٥٦٧"} {
		_, err := ValidatePhone(in)
		if !errors.Is(err, ErrInvalidPhone) {
			t.Fatalf("ValidatePhone(%q): expected ErrInvalidPhone, got %v", in, err)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("ValidatePhone(%q): expected ErrValidation, got %v", in, err)
		}
	}
}

func TestValidateCode(t *testing.T) {
	if got, err := ValidateCode(" 1234 "); err != nil || got != "1234" {
		t.Fatalf("ValidateCode(1234) = %q, %v", got, err)
	}
	for _, in := range []string{"12a4", "123", "12345", "", "-123"} {
		if _, err := ValidateCode(in); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("ValidateCode(%q): expected ErrInvalidCode, got %v", in, err)
		}
	}
}

func TestValidationErrorCode(t *testing.T) {
	var verr *ValidationError
	if !errors.As(ErrInvalidPhone, &verr) {
		t.Fatalf("ErrInvalidPhone is not a ValidationError")
	}
	if verr.Code() != "invalid_phone_number" {
		t.Fatalf("unexpected code %q", verr.Code())
	}
}

func TestSplitRemaining(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want Remaining
	}{
		{3*time.Hour + 25*time.Minute, Remaining{Days: 0, Hours: 3, Minutes: 25}},
		{24 * time.Hour, Remaining{Days: 1}},
		{30*24*time.Hour + 59*time.Second, Remaining{Days: 30}},
		{2*24*time.Hour + 23*time.Hour + 59*time.Minute, Remaining{Days: 2, Hours: 23, Minutes: 59}},
		{0, Remaining{}},
		{-time.Hour, Remaining{}},
	}
	for _, tc := range cases {
		if got := SplitRemaining(tc.in); got != tc.want {
			t.Fatalf("SplitRemaining(%s) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestPolicyValidate(t *testing.T) {
	p := Policy{GrantDuration: time.Hour, Mode: " BYPASS "}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if p.Mode != VerifyBypass || p.Location != time.UTC {
		t.Fatalf("unexpected normalized policy %+v", p)
	}

	bad := []Policy{
		{},
		{GrantDuration: time.Hour, Cooldown: -time.Second},
		{GrantDuration: time.Hour, CodeTTL: -time.Second},
		{GrantDuration: time.Hour, Mode: "lenient"},
	}
	for i, p := range bad {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}
