// Package sqlstore persists entitlements and pending codes through sqlx.
// Queries are written with '?' placeholders and rebound per driver, so the
// same code serves postgres and sqlite. Timestamps are stored as unix
// nanoseconds so expiry and cooldown boundaries survive a round trip exactly.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/offerbot/internal/entitlement"
)

// DBTX is the subset of sqlx used by the stores; *sqlx.DB and *sqlx.Tx satisfy it.
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type entitlementRow struct {
	UserID      int64  `db:"user_id"`
	Phone       string `db:"phone_number"`
	ActivatedAt int64  `db:"activated_at"`
	ExpiresAt   int64  `db:"expires_at"`
	LastGrantAt int64  `db:"last_grant_at"`
}

type pendingRow struct {
	UserID   int64  `db:"user_id"`
	Code     string `db:"code"`
	IssuedAt int64  `db:"issued_at"`
}

func fromUnixNano(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

// Entitlements implements entitlement.EntitlementStore.
type Entitlements struct {
	db DBTX
}

// NewEntitlements binds the store to db.
func NewEntitlements(db DBTX) *Entitlements {
	return &Entitlements{db: db}
}

// Upsert inserts or fully replaces the user's record.
func (s *Entitlements) Upsert(ctx context.Context, rec entitlement.Record) error {
	query := s.db.Rebind(`
		INSERT INTO entitlements (user_id, phone_number, activated_at, expires_at, last_grant_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			phone_number = excluded.phone_number,
			activated_at = excluded.activated_at,
			expires_at = excluded.expires_at,
			last_grant_at = excluded.last_grant_at`)

	_, err := s.db.ExecContext(ctx, query,
		rec.UserID,
		rec.Phone,
		rec.ActivatedAt.UnixNano(),
		rec.ExpiresAt.UnixNano(),
		rec.LastGrantAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upsert entitlement: %w", err)
	}
	return nil
}

// Get loads the user's record or returns entitlement.ErrNotFound.
func (s *Entitlements) Get(ctx context.Context, userID int64) (entitlement.Record, error) {
	query := s.db.Rebind(`
		SELECT user_id, phone_number, activated_at, expires_at, last_grant_at
		FROM entitlements
		WHERE user_id = ?`)

	var row entitlementRow
	err := s.db.GetContext(ctx, &row, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return entitlement.Record{}, entitlement.ErrNotFound
	}
	if err != nil {
		return entitlement.Record{}, fmt.Errorf("get entitlement: %w", err)
	}

	return entitlement.Record{
		UserID:      row.UserID,
		Phone:       row.Phone,
		ActivatedAt: fromUnixNano(row.ActivatedAt),
		ExpiresAt:   fromUnixNano(row.ExpiresAt),
		LastGrantAt: fromUnixNano(row.LastGrantAt),
	}, nil
}

// Pending implements entitlement.PendingStore.
type Pending struct {
	db DBTX
}

// NewPending binds the store to db.
func NewPending(db DBTX) *Pending {
	return &Pending{db: db}
}

// Upsert stores p, overwriting any earlier code for the user.
func (s *Pending) Upsert(ctx context.Context, p entitlement.Pending) error {
	query := s.db.Rebind(`
		INSERT INTO pending_verifications (user_id, code, issued_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			code = excluded.code,
			issued_at = excluded.issued_at`)

	if _, err := s.db.ExecContext(ctx, query, p.UserID, p.Code, p.IssuedAt.UnixNano()); err != nil {
		return fmt.Errorf("upsert pending code: %w", err)
	}
	return nil
}

// Get loads the pending code or returns entitlement.ErrNotFound.
func (s *Pending) Get(ctx context.Context, userID int64) (entitlement.Pending, error) {
	query := s.db.Rebind(`
		SELECT user_id, code, issued_at
		FROM pending_verifications
		WHERE user_id = ?`)

	var row pendingRow
	err := s.db.GetContext(ctx, &row, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return entitlement.Pending{}, entitlement.ErrNotFound
	}
	if err != nil {
		return entitlement.Pending{}, fmt.Errorf("get pending code: %w", err)
	}

	return entitlement.Pending{
		UserID:   row.UserID,
		Code:     row.Code,
		IssuedAt: fromUnixNano(row.IssuedAt),
	}, nil
}
