package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	coreconfig "github.com/m3rciful/offerbot/core/config"
	coredatabase "github.com/m3rciful/offerbot/core/database"
	"github.com/m3rciful/offerbot/core/logger"
)

// Options control the generic bootstrap pipeline shared between bots.
// RedisURL is optional; when empty no redis client is created.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	RedisURL string

	LoggerInit   func(*coreconfig.Config) error
	Connect      func(coredatabase.Config) (*sqlx.DB, error)
	Migrate      func(coredatabase.Config) error
	ConnectRedis func(ctx context.Context, url string) (*redis.Client, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
// DB is nil for the memory driver; Redis is nil without a redis URL.
type Result struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

// Close releases every connection held by the result.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	var firstErr error
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			firstErr = fmt.Errorf("close redis: %w", err)
		}
		r.Redis = nil
	}
	if r.DB != nil {
		if err := r.DB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close database: %w", err)
		}
		r.DB = nil
	}
	return firstErr
}

// Run initializes the logger, connects to the database, applies migrations
// and, when configured, connects to redis.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{}
	if opts.Database.Driver != coredatabase.DriverMemory {
		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		db, err := connect(opts.Database)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}
		res.DB = db

		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(opts.Database); err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
	}

	if opts.RedisURL != "" {
		if opts.ConnectRedis == nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: redis url set without a redis connector")
		}
		rdb, err := opts.ConnectRedis(context.Background(), opts.RedisURL)
		if err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: redis initialization failed: %w", err)
		}
		res.Redis = rdb
	}

	return res, nil
}
