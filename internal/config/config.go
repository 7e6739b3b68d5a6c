package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "MKT"

// Config holds everything the server reads from the environment. Source
// locations may be local file paths or http(s) URLs; when unset they default
// to the conventional CSV names under DataDir.
type Config struct {
	Port        string        `envconfig:"PORT" default:"8080"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`

	DataDir        string `envconfig:"DATA_DIR" default:"data"`
	FacebookSource string `envconfig:"FACEBOOK_SOURCE"`
	GoogleSource   string `envconfig:"GOOGLE_SOURCE"`
	TikTokSource   string `envconfig:"TIKTOK_SOURCE"`
	BusinessSource string `envconfig:"BUSINESS_SOURCE"`
}

// Load reads the environment (plus an optional .env file) into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FacebookSource == "" {
		cfg.FacebookSource = filepath.Join(cfg.DataDir, "Facebook.csv")
	}
	if cfg.GoogleSource == "" {
		cfg.GoogleSource = filepath.Join(cfg.DataDir, "Google.csv")
	}
	if cfg.TikTokSource == "" {
		cfg.TikTokSource = filepath.Join(cfg.DataDir, "TikTok.csv")
	}
	if cfg.BusinessSource == "" {
		cfg.BusinessSource = filepath.Join(cfg.DataDir, "business.csv")
	}
	return &cfg, nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
