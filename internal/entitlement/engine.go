package entitlement

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/m3rciful/offerbot/core/logger"
)

const component = "service.entitlements"

// CodeSource produces one-time codes.
type CodeSource func() (string, error)

// RandomCode returns a uniformly random code in [1000, 9999].
func RandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}

// Option customises an Engine.
type Option func(*Engine)

// WithCodeSource replaces the random code generator.
func WithCodeSource(src CodeSource) Option {
	return func(e *Engine) {
		if src != nil {
			e.codes = src
		}
	}
}

// Engine evaluates offer rules on top of the entitlement and pending-code stores.
type Engine struct {
	records EntitlementStore
	pending PendingStore
	policy  Policy
	codes   CodeSource
}

// NewEngine validates the policy and builds an Engine.
func NewEngine(records EntitlementStore, pending PendingStore, policy Policy, opts ...Option) (*Engine, error) {
	if records == nil || pending == nil {
		return nil, errors.New("entitlement: nil store")
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("entitlement: %w", err)
	}
	e := &Engine{
		records: records,
		pending: pending,
		policy:  policy,
		codes:   RandomCode,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Policy returns the active policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// FormatDate renders t as YYYY/MM/DD in the policy location.
func (e *Engine) FormatDate(t time.Time) string {
	return t.In(e.policy.Location).Format(DateLayout)
}

func (e *Engine) lookup(ctx context.Context, userID int64) (Record, bool, error) {
	rec, err := e.records.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("load entitlement: %w", err)
	}
	return rec, true, nil
}

// EvaluateCooldown reports whether now falls before last grant + cooldown.
// The boundary is exclusive: at exactly the end the cooldown no longer applies.
func (e *Engine) EvaluateCooldown(ctx context.Context, userID int64, now time.Time) (Cooldown, error) {
	rec, ok, err := e.lookup(ctx, userID)
	if err != nil || !ok {
		return Cooldown{}, err
	}
	end := rec.LastGrantAt.Add(e.policy.Cooldown)
	if e.policy.Cooldown <= 0 || !now.Before(end) {
		return Cooldown{Ends: end}, nil
	}
	cd := Cooldown{
		Active:    true,
		Ends:      end,
		Remaining: SplitRemaining(end.Sub(now)),
	}
	logger.Debug(ctx, component, "cooldown.active",
		slog.Int64("user_id", userID),
		slog.Duration("remaining", end.Sub(now)),
	)
	return cd, nil
}

// EvaluateStatus classifies the user's entitlement at now.
func (e *Engine) EvaluateStatus(ctx context.Context, userID int64, now time.Time) (Status, error) {
	rec, ok, err := e.lookup(ctx, userID)
	if err != nil || !ok {
		return Status{Kind: StatusNone}, err
	}
	st := Status{
		Phone:     rec.Phone,
		ExpiresAt: rec.ExpiresAt,
		Expiry:    e.FormatDate(rec.ExpiresAt),
	}
	if now.After(rec.ExpiresAt) {
		st.Kind = StatusExpired
		return st, nil
	}
	st.Kind = StatusActive
	st.Remaining = SplitRemaining(rec.ExpiresAt.Sub(now))
	return st, nil
}

// ValidatePhone is the engine-bound form of the package level ValidatePhone.
func (e *Engine) ValidatePhone(raw string) (string, error) {
	return ValidatePhone(raw)
}

// IssueCode generates a fresh code and stores it as the user's pending code,
// replacing any earlier one. The code is returned so the caller can decide
// whether to disclose it.
func (e *Engine) IssueCode(ctx context.Context, userID int64, now time.Time) (string, error) {
	code, err := e.codes()
	if err != nil {
		return "", err
	}
	if err := e.pending.Upsert(ctx, Pending{UserID: userID, Code: code, IssuedAt: now}); err != nil {
		return "", fmt.Errorf("store pending code: %w", err)
	}
	logger.Info(ctx, component, "code.issued",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
	)
	return code, nil
}

// VerifyCode checks submitted against the pending code. Malformed input
// returns ErrInvalidCode regardless of the stored value.
func (e *Engine) VerifyCode(ctx context.Context, userID int64, submitted string, now time.Time) (Verdict, error) {
	code, err := ValidateCode(submitted)
	if err != nil {
		return VerdictRejected, err
	}

	verdict, err := e.verify(ctx, userID, code, now)
	if err != nil {
		return VerdictRejected, err
	}
	logger.Info(ctx, component, "code.verified",
		slog.Int64("user_id", userID),
		slog.String("verdict", verdict.String()),
		slog.String("mode", string(e.policy.Mode)),
	)
	return verdict, nil
}

func (e *Engine) verify(ctx context.Context, userID int64, code string, now time.Time) (Verdict, error) {
	if e.policy.Mode == VerifyBypass {
		return VerdictAccepted, nil
	}
	p, err := e.pending.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return VerdictNoPending, nil
	}
	if err != nil {
		return VerdictRejected, fmt.Errorf("load pending code: %w", err)
	}
	if e.policy.CodeTTL > 0 && now.Sub(p.IssuedAt) > e.policy.CodeTTL {
		return VerdictExpired, nil
	}
	if subtle.ConstantTimeCompare([]byte(p.Code), []byte(code)) != 1 {
		return VerdictRejected, nil
	}
	return VerdictAccepted, nil
}

// Grant replaces the user's entitlement with one activated at now and
// returns the resulting active status.
func (e *Engine) Grant(ctx context.Context, userID int64, phone string, now time.Time) (Status, error) {
	rec := Record{
		UserID:      userID,
		Phone:       phone,
		ActivatedAt: now,
		ExpiresAt:   now.Add(e.policy.GrantDuration),
		LastGrantAt: now,
	}
	if err := e.records.Upsert(ctx, rec); err != nil {
		return Status{}, fmt.Errorf("store entitlement: %w", err)
	}
	st := Status{
		Kind:      StatusActive,
		Phone:     phone,
		ExpiresAt: rec.ExpiresAt,
		Expiry:    e.FormatDate(rec.ExpiresAt),
		Remaining: SplitRemaining(e.policy.GrantDuration),
	}
	logger.Info(ctx, component, "grant.stored",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("expiry", st.Expiry),
	)
	return st, nil
}
