package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/offerbot/core/logger"
)

const connectTimeout = 5 * time.Second

func init() {
	// modernc registers "sqlite", which sqlx does not know takes '?' binds.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Connect opens and pings the configured database and sizes its pool.
// The memory driver yields a nil handle.
func Connect(cfg Config) (*sqlx.DB, error) {
	if cfg.Driver == DriverMemory {
		return nil, nil
	}
	if cfg.Driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN())
	if err != nil {
		connectFailed(ctx, cfg, "connect", err, time.Since(start))
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		connectFailed(ctx, cfg, "ping", err, time.Since(start))
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	db.SetConnMaxIdleTime(5 * time.Minute)

	logger.LogEvent(ctx, logger.DB, slog.LevelInfo, "db.connect",
		append(target(cfg),
			slog.String("status", "ok"),
			slog.Int("pool_open", cfg.MaxConnections),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)...,
	)
	return db, nil
}

func connectFailed(ctx context.Context, cfg Config, stage string, err error, took time.Duration) {
	logger.LogEvent(ctx, logger.DB, slog.LevelError, "db."+stage,
		append(target(cfg),
			slog.String("status", "error"),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.RoundMS(took)),
		)...,
	)
}

// target describes where cfg points without credentials.
func target(cfg Config) []slog.Attr {
	if cfg.Driver == DriverSQLite {
		return []slog.Attr{slog.String("driver", cfg.Driver), slog.String("db", cfg.Path)}
	}
	return []slog.Attr{
		slog.String("driver", cfg.Driver),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	}
}
