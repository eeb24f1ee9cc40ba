package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m3rciful/offerbot/core/database"
	"github.com/m3rciful/offerbot/internal/entitlement"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
database:
  driver: sqlite
  path: /tmp/offerbot-test.db
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.RunMode != "longpoll" {
		t.Fatalf("run mode = %q", cfg.Telegram.RunMode)
	}
	if cfg.Database.Driver != database.DriverSQLite || cfg.Database.MaxConnections != 1 {
		t.Fatalf("unexpected database config %+v", cfg.Database)
	}
	if cfg.Offer.GrantDuration != 30*24*time.Hour || cfg.Offer.Cooldown != 24*time.Hour {
		t.Fatalf("unexpected offer %+v", cfg.Offer)
	}
	if cfg.Offer.BalanceLabel != "2.0GB" || cfg.Bot.Language != LanguageAuto {
		t.Fatalf("unexpected defaults %+v %+v", cfg.Offer, cfg.Bot)
	}
	if cfg.Notify.Admin {
		t.Fatalf("admin notifications need an admin id")
	}
	if cfg.CoreConfig() != &cfg.Config {
		t.Fatalf("CoreConfig must expose the embedded core section")
	}
}

func TestLoadOverridesFromFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "file-token"
  admin_id: 6070612674
database:
  driver: memory
offer:
  grant_duration: 23976h
  cooldown: 168h
  timezone: Africa/Algiers
verification:
  mode: bypass
  code_ttl: 10m
bot:
  language: AR
`)
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Liveness.Port != 9090 || cfg.Liveness.Addr() != ":9090" {
		t.Fatalf("liveness = %+v", cfg.Liveness)
	}
	if cfg.Bot.Language != LanguageArabic || !cfg.Notify.Admin {
		t.Fatalf("unexpected bot/notify %+v %+v", cfg.Bot, cfg.Notify)
	}

	p, err := cfg.Policy()
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	if p.GrantDuration != 999*24*time.Hour || p.Cooldown != 7*24*time.Hour {
		t.Fatalf("unexpected durations %+v", p)
	}
	if p.Mode != entitlement.VerifyBypass || p.CodeTTL != 10*time.Minute {
		t.Fatalf("unexpected verification %+v", p)
	}
	if p.Location.String() != "Africa/Algiers" {
		t.Fatalf("location = %s", p.Location)
	}
}

func TestNormalizeRejectsBadSections(t *testing.T) {
	base := func() *Config {
		c := Defaults()
		c.Telegram.Token = "t"
		c.Database.Driver = database.DriverMemory
		return c
	}

	cases := map[string]func(*Config){
		"redis without url": func(c *Config) { c.Verification.PendingBackend = BackendRedis },
		"unknown backend":   func(c *Config) { c.Verification.PendingBackend = "etcd" },
		"unknown language":  func(c *Config) { c.Bot.Language = "fr" },
		"bad timezone":      func(c *Config) { c.Offer.Timezone = "Mars/Olympus" },
		"zero grant":        func(c *Config) { c.Offer.GrantDuration = 0 },
		"bad mode":          func(c *Config) { c.Verification.Mode = "lenient" },
		"bad port":          func(c *Config) { c.Liveness.Port = 0 },
	}
	for name, mutate := range cases {
		c := base()
		mutate(c)
		if err := Normalize(c); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	if err := Normalize(base()); err != nil {
		t.Fatalf("base config: %v", err)
	}
}
