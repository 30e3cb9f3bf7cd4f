// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port      string `env:"GATEHOUSE_PORT" envDefault:"8080"`
	DBPath    string `env:"GATEHOUSE_DB_PATH" envDefault:"gatehouse.db"`
	LogLevel  string `env:"GATEHOUSE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"GATEHOUSE_LOG_FORMAT" envDefault:"text"`

	// Signing secrets are process-wide, read-only, and never rotated
	// at runtime.
	AccessSecret  string `env:"GATEHOUSE_JWT_ACCESS_SECRET"`
	RefreshSecret string `env:"GATEHOUSE_JWT_REFRESH_SECRET"`

	PostmarkToken string `env:"GATEHOUSE_POSTMARK_TOKEN"`
	FromEmail     string `env:"GATEHOUSE_FROM_EMAIL"`
}

// Load parses the environment and rejects configurations the service
// cannot start with.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return Config{}, errors.New("GATEHOUSE_JWT_ACCESS_SECRET and GATEHOUSE_JWT_REFRESH_SECRET are required")
	}
	return cfg, nil
}
