// Package config loads runtime settings from CHORESHARE_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "CHORESHARE_"

type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string
	LogFile   string
	Location  *time.Location

	RotationInterval time.Duration
	ReminderInterval time.Duration
	ReminderWindow   time.Duration
	SessionTTL       time.Duration
	RunOnStart       bool
}

// Load reads envFile if it exists, then builds a Config from the
// environment. Variables already set in the environment win over the file.
// An empty envFile skips the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Port:      getenv("PORT", "8080"),
		DBPath:    getenv("DB_PATH", "choreshare.db"),
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getenv("LOG_FORMAT", "tint")),
		LogFile:   getenv("LOG_FILE", ""),
	}

	var err error
	if cfg.Location, err = time.LoadLocation(getenv("TIMEZONE", "Local")); err != nil {
		return nil, fmt.Errorf("%sTIMEZONE: %w", envPrefix, err)
	}
	if cfg.RotationInterval, err = duration("ROTATION_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.ReminderInterval, err = duration("REMINDER_INTERVAL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReminderWindow, err = duration("REMINDER_WINDOW", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = duration("SESSION_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RunOnStart, err = boolean("RUN_ON_START", true); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%sLOG_LEVEL: unknown level %q", envPrefix, c.LogLevel)
	}
	switch c.LogFormat {
	case "tint", "text", "json":
	default:
		return fmt.Errorf("%sLOG_FORMAT: unknown format %q", envPrefix, c.LogFormat)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("%sPORT: %w", envPrefix, err)
	}
	if c.RotationInterval <= 0 {
		return fmt.Errorf("%sROTATION_INTERVAL must be positive", envPrefix)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return d, nil
}

func boolean(key string, def bool) (bool, error) {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return b, nil
}
