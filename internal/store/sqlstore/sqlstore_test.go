package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/offerbot/core/database"
	"github.com/m3rciful/offerbot/internal/entitlement"
)

func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	dir, err := filepath.Abs(filepath.Join("..", "..", "..", "migrations"))
	if err != nil {
		t.Fatalf("abs: %v", err)
	}
	cfg := database.Config{
		Driver:        database.DriverSQLite,
		Path:          filepath.Join(t.TempDir(), "offerbot.db"),
		MigrationsDir: dir,
	}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.RunMigrations(cfg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestEntitlementsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewEntitlements(openSQLite(t))
	now := time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)

	if _, err := s.Get(ctx, 11); !errors.Is(err, entitlement.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	first := entitlement.Record{
		UserID:      11,
		Phone:       "0551234567",
		ActivatedAt: now,
		ExpiresAt:   now.Add(30 * 24 * time.Hour),
		LastGrantAt: now,
	}
	if err := s.Upsert(ctx, first); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.Get(ctx, 11)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Phone != first.Phone || !got.ExpiresAt.Equal(first.ExpiresAt) || !got.LastGrantAt.Equal(now) {
		t.Fatalf("unexpected record %+v", got)
	}

	later := now.Add(48 * time.Hour)
	second := entitlement.Record{
		UserID:      11,
		Phone:       "551234567",
		ActivatedAt: later,
		ExpiresAt:   later.Add(30 * 24 * time.Hour),
		LastGrantAt: later,
	}
	if err := s.Upsert(ctx, second); err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	got, err = s.Get(ctx, 11)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Phone != "551234567" || !got.ActivatedAt.Equal(later) || !got.ExpiresAt.Equal(second.ExpiresAt) {
		t.Fatalf("record not replaced: %+v", got)
	}
}

func TestPendingOverwrite(t *testing.T) {
	ctx := context.Background()
	s := NewPending(openSQLite(t))
	now := time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)

	if _, err := s.Get(ctx, 5); !errors.Is(err, entitlement.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Upsert(ctx, entitlement.Pending{UserID: 5, Code: "1234", IssuedAt: now}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.Upsert(ctx, entitlement.Pending{UserID: 5, Code: "9876", IssuedAt: now.Add(time.Minute)}); err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	got, err := s.Get(ctx, 5)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Code != "9876" || !got.IssuedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("unexpected pending %+v", got)
	}
}

func TestEngineOverSQLite(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	eng, err := entitlement.NewEngine(NewEntitlements(db), NewPending(db), entitlement.DefaultPolicy(),
		entitlement.WithCodeSource(func() (string, error) { return "4321", nil }))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	now := time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)

	if _, err := eng.IssueCode(ctx, 77, now); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if v, err := eng.VerifyCode(ctx, 77, "4321", now); err != nil || v != entitlement.VerdictAccepted {
		t.Fatalf("verify = %s, %v", v, err)
	}
	if _, err := eng.Grant(ctx, 77, "0551234567", now); err != nil {
		t.Fatalf("grant: %v", err)
	}
	st, err := eng.EvaluateStatus(ctx, 77, now)
	if err != nil || st.Kind != entitlement.StatusActive || st.Expiry != "2025/05/31" {
		t.Fatalf("status = %+v, %v", st, err)
	}
}

func TestEngineOverSQLiteKeepsSubSecondTimes(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	policy := entitlement.DefaultPolicy()
	eng, err := entitlement.NewEngine(NewEntitlements(db), NewPending(db), policy)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	now := time.Date(2025, 5, 1, 8, 30, 0, 900_000_123, time.UTC)

	granted, err := eng.Grant(ctx, 78, "0551234567", now)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	st, err := eng.EvaluateStatus(ctx, 78, now)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	want := now.Add(policy.GrantDuration)
	if !st.ExpiresAt.Equal(want) || !granted.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %v (grant %v), want %v", st.ExpiresAt, granted.ExpiresAt, want)
	}

	cd, err := eng.EvaluateCooldown(ctx, 78, now.Add(policy.Cooldown-500*time.Millisecond))
	if err != nil || !cd.Active {
		t.Fatalf("cooldown just before the end = %+v, %v", cd, err)
	}
	cd, err = eng.EvaluateCooldown(ctx, 78, now.Add(policy.Cooldown))
	if err != nil || cd.Active {
		t.Fatalf("cooldown at the end = %+v, %v", cd, err)
	}

	issued := now.Add(time.Minute)
	if err := NewPending(db).Upsert(ctx, entitlement.Pending{UserID: 78, Code: "1234", IssuedAt: issued}); err != nil {
		t.Fatalf("upsert pending: %v", err)
	}
	p, err := NewPending(db).Get(ctx, 78)
	if err != nil || !p.IssuedAt.Equal(issued) {
		t.Fatalf("pending issued_at = %v, %v; want %v", p.IssuedAt, err, issued)
	}
}
