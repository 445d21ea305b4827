// Package config loads process configuration from the environment.
// file: config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is everything main needs to wire the service.
type Config struct {
	Port           string
	Env            string
	DatabaseURL    string
	MigrationsPath string
	SessionSecret  string
	LogDir         string
	DefaultLocale  string

	RecentScansLimit int
	WorkerCount      int
	WorkerQueueSize  int

	AllowedOrigins []string

	CloudWatchEnabled bool
	XRayEnabled       bool

	DiscordToken     string
	DiscordChannelID string
}

const devSessionSecret = "dev-session-secret"

// IsProduction reports whether ENV=production.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// UsesDatabase reports whether a postgres store was configured.
func (c *Config) UsesDatabase() bool { return c.DatabaseURL != "" }

// DiscordEnabled reports whether both Discord settings are present.
func (c *Config) DiscordEnabled() bool {
	return c.DiscordToken != "" && c.DiscordChannelID != ""
}

// Load reads an optional .env file, then the environment, and validates the result.
func Load() (*Config, error) {
	// .env is optional when the environment is provided by the container or CI
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:             get("PORT", "8080"),
		Env:              get("ENV", "development"),
		DatabaseURL:      get("DATABASE_URL", ""),
		MigrationsPath:   get("MIGRATIONS_PATH", "migrations"),
		SessionSecret:    get("SESSION_SECRET", ""),
		LogDir:           get("LOG_DIR", ""),
		DefaultLocale:    get("DEFAULT_LOCALE", "en"),
		DiscordToken:     get("DISCORD_TOKEN", ""),
		DiscordChannelID: get("DISCORD_CHANNEL_ID", ""),
	}

	var err error
	if cfg.RecentScansLimit, err = intVar(get, "RECENT_SCANS_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.WorkerCount, err = intVar(get, "WORKER_COUNT", 4); err != nil {
		return nil, err
	}
	if cfg.WorkerQueueSize, err = intVar(get, "WORKER_QUEUE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.CloudWatchEnabled, err = boolVar(get, "CLOUDWATCH_ENABLED"); err != nil {
		return nil, err
	}
	if cfg.XRayEnabled, err = boolVar(get, "XRAY_ENABLED"); err != nil {
		return nil, err
	}
	for _, o := range strings.Split(get("ALLOWED_ORIGINS", ""), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func intVar(get func(string, string) string, key string, def int) (int, error) {
	raw := get(key, strconv.Itoa(def))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer (%q): %w", key, raw, err)
	}
	return n, nil
}

func boolVar(get func(string, string) string, key string) (bool, error) {
	raw := get(key, "false")
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("config: %s must be a boolean (%q): %w", key, raw, err)
	}
	return b, nil
}

// validate applies the rules a bad deployment would otherwise hit at runtime.
func (c *Config) validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("config: PORT must be numeric (%q)", c.Port)
	}

	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("config: ENV must be development, staging, production or test (%q)", c.Env)
	}

	if c.SessionSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("config: SESSION_SECRET is required in production")
		}
		c.SessionSecret = devSessionSecret
	}

	if c.DatabaseURL != "" {
		parsed, err := url.Parse(c.DatabaseURL)
		if err != nil {
			return fmt.Errorf("config: invalid DATABASE_URL: %w", err)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("config: invalid DATABASE_URL: missing scheme or host")
		}
	}

	if c.RecentScansLimit <= 0 {
		return fmt.Errorf("config: RECENT_SCANS_LIMIT must be positive")
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("config: WORKER_COUNT must be positive")
	}
	if c.WorkerQueueSize <= 0 {
		return fmt.Errorf("config: WORKER_QUEUE_SIZE must be positive")
	}

	if c.DiscordChannelID != "" {
		for _, r := range c.DiscordChannelID {
			if r < '0' || r > '9' {
				return fmt.Errorf("config: DISCORD_CHANNEL_ID must be a Discord channel ID (digits only)")
			}
		}
	}
	return nil
}
