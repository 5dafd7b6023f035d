// Package config loads and validates runtime configuration at startup.
// Values come from an optional TOML file (CONFIG_FILE) and are then
// overridden by environment variables. Fail-fast: a missing required value
// or an unparsable variable aborts startup.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all runtime configuration for the export service.
type Config struct {
	Port           string `toml:"port" validate:"required,numeric"`
	GRPCPort       string `toml:"grpc_port" validate:"omitempty,numeric"`
	DatabaseURL    string `toml:"database_url" validate:"required"`
	RedisURL       string `toml:"redis_url"` // empty disables export events
	SessionSecret  string `toml:"session_secret" validate:"required,min=16"`
	SiteURL        string `toml:"site_url" validate:"required,url"` // base for permalinks
	AutoMigrate    bool   `toml:"auto_migrate"`
	HealthSchedule string `toml:"health_schedule" validate:"required"` // cron spec, e.g. "@every 30s"

	Log      LogConfig    `toml:"log"`
	Export   ExportConfig `toml:"export"`
	Features Features     `toml:"features"`
}

type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=console json"`
}

// ExportConfig bounds how often operators may trigger an export.
// RatePerSecond == 0 disables the limiter.
type ExportConfig struct {
	RatePerSecond float64 `toml:"rate_per_second" validate:"gte=0"`
	Burst         int     `toml:"burst" validate:"gte=0"`
}

// Features toggles the optional parts of the listing and export views.
type Features struct {
	Filters       bool `toml:"filters"`        // region/category/author filter form
	TermSummaries bool `toml:"term_summaries"` // "Regions: …" / "Categories: …" lines
	ExportDate    bool `toml:"export_date"`    // Date column in the exported document
}

// Default returns the configuration used before the file and environment
// are applied.
func Default() Config {
	return Config{
		Port:           "8083",
		SiteURL:        "http://localhost:8083",
		HealthSchedule: "@every 30s",
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Export: ExportConfig{
			RatePerSecond: 2,
			Burst:         4,
		},
		Features: Features{
			Filters:       true,
			TermSummaries: true,
		},
	}
}

// Load reads CONFIG_FILE (if set) and the environment and returns a
// validated Config.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "EXPORT_PORT")
	setString(&c.GRPCPort, "GRPC_PORT")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.SessionSecret, "SESSION_SECRET")
	setString(&c.SiteURL, "SITE_URL")
	setString(&c.HealthSchedule, "HEALTH_SCHEDULE")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	if s := os.Getenv("EXPORT_RATE_PER_SEC"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("EXPORT_RATE_PER_SEC must be a number, got %q", s)
		}
		c.Export.RatePerSecond = v
	}
	if s := os.Getenv("EXPORT_BURST"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("EXPORT_BURST must be an integer, got %q", s)
		}
		c.Export.Burst = v
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"AUTO_MIGRATE", &c.AutoMigrate},
		{"FEATURE_FILTERS", &c.Features.Filters},
		{"FEATURE_TERM_SUMMARIES", &c.Features.TermSummaries},
		{"FEATURE_EXPORT_DATE", &c.Features.ExportDate},
	}
	for _, b := range bools {
		s := os.Getenv(b.key)
		if s == "" {
			continue
		}
		v, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("%s must be a boolean, got %q", b.key, s)
		}
		*b.dst = v
	}
	return nil
}

// Validate checks field constraints. Missing DATABASE_URL and SESSION_SECRET
// are reported by name so the operator knows which variable to set.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
