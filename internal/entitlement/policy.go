package entitlement

import (
	"fmt"
	"strings"
	"time"
)

// VerificationMode selects how submitted codes are checked.
type VerificationMode string

const (
	// VerifyStrict compares the submitted code with the pending one.
	VerifyStrict VerificationMode = "strict"
	// VerifyBypass accepts any well-formed code. Demo behaviour only.
	VerifyBypass VerificationMode = "bypass"
)

// Policy carries the offer timing and verification rules.
type Policy struct {
	GrantDuration time.Duration
	Cooldown      time.Duration
	// CodeTTL bounds the age of a pending code; zero disables the check.
	CodeTTL  time.Duration
	Mode     VerificationMode
	Location *time.Location
}

// DefaultPolicy grants 30 days with a one day cooldown and strict verification.
func DefaultPolicy() Policy {
	return Policy{
		GrantDuration: 30 * 24 * time.Hour,
		Cooldown:      24 * time.Hour,
		Mode:          VerifyStrict,
		Location:      time.UTC,
	}
}

// Validate checks the policy and fills the zero-value location.
func (p *Policy) Validate() error {
	if p.GrantDuration <= 0 {
		return fmt.Errorf("grant duration must be > 0")
	}
	if p.Cooldown < 0 {
		return fmt.Errorf("cooldown must be >= 0")
	}
	if p.CodeTTL < 0 {
		return fmt.Errorf("code ttl must be >= 0")
	}
	p.Mode = VerificationMode(strings.ToLower(strings.TrimSpace(string(p.Mode))))
	switch p.Mode {
	case "":
		p.Mode = VerifyStrict
	case VerifyStrict, VerifyBypass:
	default:
		return fmt.Errorf("invalid verification mode %q; allowed: strict, bypass", p.Mode)
	}
	if p.Location == nil {
		p.Location = time.UTC
	}
	return nil
}
