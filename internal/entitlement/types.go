// Package entitlement holds the offer grant rules: cooldown and expiry
// accounting, phone and code validation, and one-time code issuance.
// Both stores are owned by the Engine; callers never touch them directly.
package entitlement

import (
	"context"
	"time"
)

// DateLayout is the calendar format used for every expiry date shown to users.
const DateLayout = "2006/01/02"

// Record is the single entitlement kept per user. A new grant replaces it.
type Record struct {
	UserID      int64
	Phone       string
	ActivatedAt time.Time
	ExpiresAt   time.Time
	LastGrantAt time.Time
}

// Pending is the one-time code issued during phone capture.
type Pending struct {
	UserID   int64
	Code     string
	IssuedAt time.Time
}

// EntitlementStore persists one Record per user with upsert semantics.
// Get returns ErrNotFound for unknown users.
type EntitlementStore interface {
	Upsert(ctx context.Context, rec Record) error
	Get(ctx context.Context, userID int64) (Record, error)
}

// PendingStore persists at most one Pending per user; Upsert overwrites.
// Get returns ErrNotFound for unknown users.
type PendingStore interface {
	Upsert(ctx context.Context, p Pending) error
	Get(ctx context.Context, userID int64) (Pending, error)
}

// Remaining is a duration broken into whole days, hours and minutes.
type Remaining struct {
	Days    int
	Hours   int
	Minutes int
}

// Cooldown reports whether a user must wait before requesting a new offer.
type Cooldown struct {
	Active    bool
	Ends      time.Time
	Remaining Remaining
}

// StatusKind classifies a user's entitlement at a point in time.
type StatusKind int

const (
	// StatusNone means no entitlement was ever granted.
	StatusNone StatusKind = iota
	// StatusActive means the entitlement has not expired yet.
	StatusActive
	// StatusExpired means the expiry time has passed.
	StatusExpired
)

func (k StatusKind) String() string {
	switch k {
	case StatusActive:
		return "active"
	case StatusExpired:
		return "expired"
	default:
		return "none"
	}
}

// Status is the evaluated entitlement state. Expiry is ExpiresAt rendered with DateLayout.
// Remaining is only set for active entitlements.
type Status struct {
	Kind      StatusKind
	Phone     string
	ExpiresAt time.Time
	Expiry    string
	Remaining Remaining
}

// Verdict is the outcome of a code verification attempt.
type Verdict int

const (
	// VerdictRejected means the code did not match the pending one.
	VerdictRejected Verdict = iota
	// VerdictAccepted means the code matched (or verification is bypassed).
	VerdictAccepted
	// VerdictExpired means the pending code is older than the freshness window.
	VerdictExpired
	// VerdictNoPending means no code was ever issued for the user.
	VerdictNoPending
)

func (v Verdict) String() string {
	switch v {
	case VerdictAccepted:
		return "accepted"
	case VerdictExpired:
		return "expired"
	case VerdictNoPending:
		return "no_pending"
	default:
		return "rejected"
	}
}
