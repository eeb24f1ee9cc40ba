// Package bot wires the offer conversation into the Telegram runtime:
// store selection, command registration, reply rendering and the
// lifecycle of the liveness responder.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/offerbot/core/bootstrap"
	"github.com/m3rciful/offerbot/core/database"
	"github.com/m3rciful/offerbot/core/logger"
	coretelegram "github.com/m3rciful/offerbot/core/telegram"
	"github.com/m3rciful/offerbot/core/telegram/router"
	"github.com/m3rciful/offerbot/internal/config"
	"github.com/m3rciful/offerbot/internal/conversation"
	"github.com/m3rciful/offerbot/internal/entitlement"
	"github.com/m3rciful/offerbot/internal/liveness"
	"github.com/m3rciful/offerbot/internal/metrics"
	"github.com/m3rciful/offerbot/internal/notify"
	"github.com/m3rciful/offerbot/internal/store/memstore"
	"github.com/m3rciful/offerbot/internal/store/redisstore"
	"github.com/m3rciful/offerbot/internal/store/sqlstore"
)

// Option customises an App.
type Option func(*App)

// WithClock replaces time.Now for the engine evaluations made by the app.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// App implements cmd.TelegramApp.
type App struct {
	cfg      *config.Config
	infra    *bootstrap.Result
	engine   *entitlement.Engine
	machine  *conversation.Machine
	registry *coretelegram.Registry
	catalogs *Catalogs
	admin    *notify.Telegram
	liveness *liveness.Server
	now      func() time.Time
}

// New assembles the app on top of the bootstrapped infrastructure.
// A nil infra is treated as the memory driver.
func New(cfg *config.Config, infra *bootstrap.Result, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("bot: nil config")
	}
	if infra == nil {
		infra = &bootstrap.Result{}
	}
	a := &App{
		cfg:      cfg,
		infra:    infra,
		catalogs: NewCatalogs(cfg.Bot.Language),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	records, pending, err := selectStores(cfg, infra)
	if err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	a.engine, err = entitlement.NewEngine(records, pending, policy)
	if err != nil {
		return nil, err
	}

	var sinks notify.Multi
	if cfg.Notify.Admin {
		a.admin = notify.NewTelegram(cfg.Telegram.AdminID, nil)
		sinks = append(sinks, a.admin)
	}
	if cfg.Notify.Log {
		sinks = append(sinks, notify.Log{})
	}
	var notifier notify.Notifier
	if len(sinks) > 0 {
		notifier = sinks
	}

	a.machine, err = conversation.New(a.engine, nil, notifier,
		conversation.WithClock(a.now),
		conversation.WithDiscloseCode(cfg.Verification.DiscloseCode),
	)
	if err != nil {
		return nil, err
	}

	a.registry = coretelegram.NewRegistry()
	a.registerCommands()

	if cfg.Liveness.Enabled {
		a.liveness = liveness.New(liveness.Options{
			Addr:    cfg.Liveness.Addr(),
			Metrics: cfg.Liveness.Metrics,
		})
	}

	logger.SVCEntitlements.Info("offer policy",
		slog.String("event", "policy"),
		slog.Duration("grant_duration", policy.GrantDuration),
		slog.Duration("cooldown", policy.Cooldown),
		slog.Duration("code_ttl", policy.CodeTTL),
		slog.String("mode", string(policy.Mode)),
		slog.String("timezone", policy.Location.String()),
		slog.String("pending_backend", cfg.Verification.PendingBackend),
		slog.Int("notifiers", len(sinks)),
	)
	return a, nil
}

func selectStores(cfg *config.Config, infra *bootstrap.Result) (entitlement.EntitlementStore, entitlement.PendingStore, error) {
	var (
		records entitlement.EntitlementStore
		pending entitlement.PendingStore
	)
	if cfg.Database.Driver == database.DriverMemory || infra.DB == nil {
		records = memstore.NewEntitlements()
		pending = memstore.NewPending()
	} else {
		records = sqlstore.NewEntitlements(infra.DB)
		pending = sqlstore.NewPending(infra.DB)
	}

	if cfg.Verification.PendingBackend == config.BackendRedis {
		if infra.Redis == nil {
			return nil, nil, errors.New("bot: redis pending backend selected without a redis client")
		}
		// Keys outlive the freshness window so stale codes still read as expired.
		pending = redisstore.NewPending(infra.Redis, cfg.Redis.Prefix, 2*cfg.Verification.CodeTTL)
	}
	return records, pending, nil
}

// TelegramRunOptions returns the runtime configuration for the bot.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := &a.cfg.Config

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:       core.Telegram.AdminID,
		OnAdminReject: a.onAdminReject,
	})
	routes = append(routes, router.TextRoutes(flow{app: a}, a.registry, router.TextOptions{
		UnsupportedMedia: a.onMedia,
	})...)

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: coretelegram.DefaultMiddlewares(core, a.onLimited, metrics.ObserveMessage),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(_ context.Context, rt coretelegram.Runtime) error {
	if a.admin != nil {
		a.admin.SetDispatcher(rt.Dispatcher)
		if rt.Bot != nil {
			a.admin.Bind(rt.Bot)
		}
	}
	if a.liveness != nil {
		if err := a.liveness.Start(); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	return nil
}

func (a *App) onStop(ctx context.Context, _ coretelegram.Runtime) error {
	var errs []error
	if a.liveness != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		errs = append(errs, a.liveness.Shutdown(shutdownCtx))
		cancel()
	}
	if a.admin != nil {
		a.admin.Bind(nil)
		a.admin.SetDispatcher(nil)
	}
	errs = append(errs, a.infra.Close())
	return errors.Join(errs...)
}
