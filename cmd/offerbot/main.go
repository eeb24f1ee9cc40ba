// Command offerbot runs the free internet offer Telegram bot.
package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/m3rciful/offerbot/core/bootstrap"
	corecmd "github.com/m3rciful/offerbot/core/cmd"
	"github.com/m3rciful/offerbot/internal/bot"
	"github.com/m3rciful/offerbot/internal/config"
	"github.com/m3rciful/offerbot/internal/store/redisstore"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found, using environment variables")
	}

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg, ok := carrier.(*config.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			opts := bootstrap.Options{
				Config:       &cfg.Config,
				Database:     cfg.Database,
				ConnectRedis: redisstore.Connect,
			}
			if cfg.Verification.PendingBackend == config.BackendRedis {
				opts.RedisURL = cfg.Redis.URL
			}
			infra, err := bootstrap.Run(opts)
			if err != nil {
				return nil, err
			}
			app, err := bot.New(cfg, infra)
			if err != nil {
				_ = infra.Close()
				return nil, err
			}
			return app, nil
		},
	})
	if err != nil {
		log.Fatalf("offerbot: %v", err)
	}
}
