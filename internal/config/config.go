/*
Package config
File: config.go
Description:
    Runtime settings, read from environment variables. A .env file in the
    working directory is loaded first when present, so local runs do not
    need exported variables.
*/

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds every tunable of the server.
type Config struct {
	Addr             string        `env:"ADDR" envDefault:":8081"`
	FixturePath      string        `env:"FIXTURE_PATH"` // Empty means the embedded catalog
	PlaybackInterval time.Duration `env:"PLAYBACK_INTERVAL" envDefault:"2s"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	RedisURL         string        `env:"REDIS_URL"` // Empty disables Redis fan-out
	RateLimitRPS     int           `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst   int           `env:"RATE_LIMIT_BURST" envDefault:"40"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file and then the environment.
func Load(dotenv string) (Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.PlaybackInterval <= 0 {
		return fmt.Errorf("PLAYBACK_INTERVAL must be positive, got %s", c.PlaybackInterval)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// Logger builds the process logger at the configured level.
func (c Config) Logger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		l.SetLevel(lvl)
	}
	return l
}
