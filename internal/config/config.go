package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr      string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath        string        `env:"DB_PATH" envDefault:"data/missionhub.db"`
	DBBusyTimeout time.Duration `env:"DB_BUSY_TIMEOUT" envDefault:"5s"`
	LogLevel      slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir        string        `env:"SPA_DIR" envDefault:"../web/dist"`
	Locale        string        `env:"LOCALE" envDefault:"en"`

	RedisURL     string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	MailQueueKey string `env:"MAIL_QUEUE_KEY" envDefault:"missionhub:mail"`

	// Without a Resend key mail is logged instead of sent.
	ResendAPIKey string `env:"RESEND_API_KEY"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"MissionHub <noreply@missionhub.local>"`

	SeedDemo      bool   `env:"SEED_DEMO" envDefault:"false"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return nil, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return &cfg, nil
}
