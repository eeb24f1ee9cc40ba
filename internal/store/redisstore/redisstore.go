// Package redisstore keeps pending verification codes in redis with a TTL.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/offerbot/core/logger"
	"github.com/m3rciful/offerbot/internal/entitlement"
)

const (
	defaultPrefix = "offerbot:pending:"
	defaultTTL    = 24 * time.Hour
)

// Connect parses url, opens a client and pings it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolTimeout = 30 * time.Second
	opts.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.DB.Info("redis connected",
		"event", "connect",
		"backend", "redis",
		"addr", opts.Addr,
	)
	return client, nil
}

// pendingValue is the stored JSON. IssuedAt holds seconds and is read only
// when IssuedAtNS is absent, for keys written by older builds.
type pendingValue struct {
	Code       string `json:"code"`
	IssuedAt   int64  `json:"issued_at,omitempty"`
	IssuedAtNS int64  `json:"issued_at_ns"`
}

func encodePending(p entitlement.Pending) ([]byte, error) {
	return json.Marshal(pendingValue{Code: p.Code, IssuedAtNS: p.IssuedAt.UnixNano()})
}

func decodePending(userID int64, b []byte) (entitlement.Pending, error) {
	var v pendingValue
	if err := json.Unmarshal(b, &v); err != nil {
		return entitlement.Pending{}, err
	}
	issued := time.Unix(0, v.IssuedAtNS).UTC()
	if v.IssuedAtNS == 0 {
		issued = time.Unix(v.IssuedAt, 0).UTC()
	}
	return entitlement.Pending{UserID: userID, Code: v.Code, IssuedAt: issued}, nil
}

// Pending implements entitlement.PendingStore on top of redis SET/GET.
type Pending struct {
	rdb   redis.Cmdable
	keyNS string
	ttl   time.Duration
}

// NewPending builds a store. Empty prefix and non-positive ttl fall back to defaults.
func NewPending(rdb redis.Cmdable, keyPrefix string, ttl time.Duration) *Pending {
	if keyPrefix == "" {
		keyPrefix = defaultPrefix
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Pending{rdb: rdb, keyNS: keyPrefix, ttl: ttl}
}

func (s *Pending) key(userID int64) string {
	return s.keyNS + strconv.FormatInt(userID, 10)
}

// Upsert overwrites the user's pending code and refreshes its TTL.
func (s *Pending) Upsert(ctx context.Context, p entitlement.Pending) error {
	b, err := encodePending(p)
	if err != nil {
		return fmt.Errorf("encode pending code: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(p.UserID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("store pending code: %w", err)
	}
	return nil
}

// Get returns the pending code or entitlement.ErrNotFound once the key is gone.
func (s *Pending) Get(ctx context.Context, userID int64) (entitlement.Pending, error) {
	val, err := s.rdb.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return entitlement.Pending{}, entitlement.ErrNotFound
	}
	if err != nil {
		return entitlement.Pending{}, fmt.Errorf("get pending code: %w", err)
	}
	p, err := decodePending(userID, val)
	if err != nil {
		return entitlement.Pending{}, fmt.Errorf("decode pending code: %w", err)
	}
	return p, nil
}
