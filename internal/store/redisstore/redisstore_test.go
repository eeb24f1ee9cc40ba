package redisstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m3rciful/offerbot/internal/entitlement"
)

func redisURL(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	return fmt.Sprintf("redis://%s/15", addr)
}

func TestPendingRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, err := Connect(ctx, redisURL(t))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	prefix := fmt.Sprintf("offerbot:test:%d:", time.Now().UnixNano())
	s := NewPending(client, prefix, time.Minute)
	t.Cleanup(func() { client.Del(context.Background(), s.key(1)) })

	if _, err := s.Get(ctx, 1); !errors.Is(err, entitlement.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	issued := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := s.Upsert(ctx, entitlement.Pending{UserID: 1, Code: "1111", IssuedAt: issued}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.Upsert(ctx, entitlement.Pending{UserID: 1, Code: "2222", IssuedAt: issued}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Code != "2222" || !got.IssuedAt.Equal(issued) {
		t.Fatalf("unexpected pending %+v", got)
	}
	ttl, err := client.TTL(ctx, s.key(1)).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %s err=%v", ttl, err)
	}
}

func TestNewPendingDefaults(t *testing.T) {
	s := NewPending(nil, "", 0)
	if s.keyNS != defaultPrefix || s.ttl != defaultTTL {
		t.Fatalf("defaults not applied: %q %s", s.keyNS, s.ttl)
	}
	if s.key(42) != defaultPrefix+"42" {
		t.Fatalf("unexpected key %q", s.key(42))
	}
}

func TestPendingEncodingKeepsSubSecondTime(t *testing.T) {
	issued := time.Date(2025, 5, 1, 8, 30, 0, 900_000_123, time.UTC)
	b, err := encodePending(entitlement.Pending{UserID: 9, Code: "4321", IssuedAt: issued})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	p, err := decodePending(9, b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.UserID != 9 || p.Code != "4321" || !p.IssuedAt.Equal(issued) {
		t.Fatalf("decoded %+v, want issued_at %v", p, issued)
	}
}

func TestPendingDecodesSecondsValue(t *testing.T) {
	p, err := decodePending(9, []byte(`{"code":"4321","issued_at":1746088200}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)
	if !p.IssuedAt.Equal(want) {
		t.Fatalf("issued_at = %v, want %v", p.IssuedAt, want)
	}
}
