// Package config loads the offerbot configuration: the shared core sections
// (telegram, webhook, logging, rate limit) plus storage, offer policy,
// verification, liveness and notification settings.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // offer.timezone must resolve on hosts without zoneinfo

	coreconfig "github.com/m3rciful/offerbot/core/config"
	"github.com/m3rciful/offerbot/core/database"
	"github.com/m3rciful/offerbot/internal/entitlement"
)

// Pending-code backends.
const (
	BackendDatabase = "database"
	BackendRedis    = "redis"
)

// Reply languages.
const (
	LanguageAuto    = "auto"
	LanguageArabic  = "ar"
	LanguageEnglish = "en"
)

// RedisConfig points at the redis instance used for pending codes.
type RedisConfig struct {
	URL    string `yaml:"url" envconfig:"REDIS_URL"`
	Prefix string `yaml:"prefix" envconfig:"REDIS_PREFIX"`
}

// OfferConfig holds the grant timing rules.
type OfferConfig struct {
	GrantDuration time.Duration `yaml:"grant_duration" envconfig:"OFFER_GRANT_DURATION"`
	Cooldown      time.Duration `yaml:"cooldown" envconfig:"OFFER_COOLDOWN"`
	BalanceLabel  string        `yaml:"balance_label" envconfig:"OFFER_BALANCE_LABEL"`
	Timezone      string        `yaml:"timezone" envconfig:"OFFER_TIMEZONE"`
}

// VerificationConfig controls one-time code handling.
type VerificationConfig struct {
	// Mode is "strict" or "bypass"; bypass accepts any well-formed code.
	Mode           string        `yaml:"mode" envconfig:"VERIFICATION_MODE"`
	CodeTTL        time.Duration `yaml:"code_ttl" envconfig:"VERIFICATION_CODE_TTL"`
	DiscloseCode   bool          `yaml:"disclose_code" envconfig:"VERIFICATION_DISCLOSE_CODE"`
	PendingBackend string        `yaml:"pending_backend" envconfig:"VERIFICATION_PENDING_BACKEND"`
}

// BotConfig holds presentation settings.
type BotConfig struct {
	Language string `yaml:"language" envconfig:"BOT_LANGUAGE"`
}

// LivenessConfig configures the keep-alive HTTP responder.
type LivenessConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"LIVENESS_ENABLED"`
	Port    int    `yaml:"port" envconfig:"PORT"`
	Listen  string `yaml:"listen" envconfig:"LIVENESS_LISTEN"`
	Metrics bool   `yaml:"metrics" envconfig:"LIVENESS_METRICS"`
}

// Addr returns the listen address.
func (l LivenessConfig) Addr() string {
	return fmt.Sprintf("%s:%d", l.Listen, l.Port)
}

// NotifyConfig selects operator notification sinks.
type NotifyConfig struct {
	// Admin forwards phone numbers and codes to telegram.admin_id.
	Admin bool `yaml:"admin" envconfig:"NOTIFY_ADMIN"`
	Log   bool `yaml:"log" envconfig:"NOTIFY_LOG"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database     database.Config    `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Offer        OfferConfig        `yaml:"offer"`
	Verification VerificationConfig `yaml:"verification"`
	Bot          BotConfig          `yaml:"bot"`
	Liveness     LivenessConfig     `yaml:"liveness"`
	Notify       NotifyConfig       `yaml:"notify"`
}

// Load reads path, overlays environment variables and normalizes the result.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if err := coreconfig.Decode(path, cfg); err != nil {
		return nil, err
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the configuration used for keys absent from the file.
func Defaults() *Config {
	p := entitlement.DefaultPolicy()
	return &Config{
		Offer: OfferConfig{
			GrantDuration: p.GrantDuration,
			Cooldown:      p.Cooldown,
			BalanceLabel:  "2.0GB",
			Timezone:      "UTC",
		},
		Verification: VerificationConfig{
			Mode:           string(entitlement.VerifyStrict),
			PendingBackend: BackendDatabase,
		},
		Bot:      BotConfig{Language: LanguageAuto},
		Liveness: LivenessConfig{Enabled: true, Port: 8080},
		Notify:   NotifyConfig{Admin: true},
	}
}

// Normalize validates every section and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}
	if err := cfg.Database.Normalize(); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Offer.BalanceLabel) == "" {
		cfg.Offer.BalanceLabel = "2.0GB"
	}
	if strings.TrimSpace(cfg.Offer.Timezone) == "" {
		cfg.Offer.Timezone = "UTC"
	}
	if _, err := cfg.Policy(); err != nil {
		return err
	}

	cfg.Verification.PendingBackend = strings.ToLower(strings.TrimSpace(cfg.Verification.PendingBackend))
	switch cfg.Verification.PendingBackend {
	case "":
		cfg.Verification.PendingBackend = BackendDatabase
	case BackendDatabase:
	case BackendRedis:
		if strings.TrimSpace(cfg.Redis.URL) == "" {
			return fmt.Errorf("redis.url is required when verification.pending_backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid verification.pending_backend %q; allowed: database, redis", cfg.Verification.PendingBackend)
	}

	cfg.Bot.Language = strings.ToLower(strings.TrimSpace(cfg.Bot.Language))
	switch cfg.Bot.Language {
	case "":
		cfg.Bot.Language = LanguageAuto
	case LanguageAuto, LanguageArabic, LanguageEnglish:
	default:
		return fmt.Errorf("invalid bot.language %q; allowed: auto, ar, en", cfg.Bot.Language)
	}

	if cfg.Liveness.Enabled && (cfg.Liveness.Port <= 0 || cfg.Liveness.Port > 65535) {
		return fmt.Errorf("liveness.port must be within 1..65535")
	}
	if cfg.Notify.Admin && cfg.Telegram.AdminID == 0 {
		cfg.Notify.Admin = false
	}
	return nil
}

// Policy builds the entitlement policy described by the offer and
// verification sections.
func (c *Config) Policy() (entitlement.Policy, error) {
	loc, err := time.LoadLocation(c.Offer.Timezone)
	if err != nil {
		return entitlement.Policy{}, fmt.Errorf("invalid offer.timezone %q: %w", c.Offer.Timezone, err)
	}
	p := entitlement.Policy{
		GrantDuration: c.Offer.GrantDuration,
		Cooldown:      c.Offer.Cooldown,
		CodeTTL:       c.Verification.CodeTTL,
		Mode:          entitlement.VerificationMode(c.Verification.Mode),
		Location:      loc,
	}
	if err := p.Validate(); err != nil {
		return entitlement.Policy{}, fmt.Errorf("invalid offer policy: %w", err)
	}
	return p, nil
}
