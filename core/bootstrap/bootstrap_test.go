package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	coreconfig "github.com/m3rciful/offerbot/core/config"
	coredatabase "github.com/m3rciful/offerbot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunMemoryDriverSkipsDatabase(t *testing.T) {
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Driver: coredatabase.DriverMemory},
		LoggerInit: noLogger,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			t.Fatalf("connect called for memory driver")
			return nil, nil
		},
		Migrate: func(coredatabase.Config) error {
			t.Fatalf("migrate called for memory driver")
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.DB != nil || res.Redis != nil {
		t.Fatalf("unexpected connections: %+v", res)
	}
	if err := res.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRunMigrationFailure(t *testing.T) {
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Driver: coredatabase.DriverPostgres},
		LoggerInit: noLogger,
		Connect:    func(coredatabase.Config) (*sqlx.DB, error) { return nil, nil },
		Migrate:    func(coredatabase.Config) error { return errors.New("dirty") },
	})
	if err == nil {
		t.Fatalf("expected migration error")
	}
}

func TestRunRedis(t *testing.T) {
	base := Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Driver: coredatabase.DriverMemory},
		LoggerInit: noLogger,
		RedisURL:   "redis://127.0.0.1:6379/0",
	}
	if _, err := Run(base); err == nil {
		t.Fatalf("expected error without a redis connector")
	}

	var gotURL string
	base.ConnectRedis = func(_ context.Context, url string) (*redis.Client, error) {
		gotURL = url
		return redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"}), nil
	}
	res, err := Run(base)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gotURL != base.RedisURL || res.Redis == nil {
		t.Fatalf("redis not wired: url=%q client=%v", gotURL, res.Redis)
	}
	if err := res.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
