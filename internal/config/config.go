package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	// Storage
	DBDriver string `yaml:"db_driver"`
	DBDSN    string `yaml:"db_dsn"`
	// Avatars
	AvatarDir     string `yaml:"avatar_dir"`
	AvatarBaseURL string `yaml:"avatar_base_url"`
	MaxAvatarSize int64  `yaml:"max_avatar_bytes"`
	// Auth
	SessionSecret  string `yaml:"session_secret"`
	TrustProxyAuth bool   `yaml:"trust_proxy_auth"`
	// Runner timing
	TickIntervalMs    int `yaml:"tick_interval_ms"`
	CompletionDelayMs int `yaml:"completion_delay_ms"`
	// Screens
	StaticDir   string `yaml:"static_dir"`
	SeedOnStart bool   `yaml:"seed_on_start"`
}

func defaults() *Config {
	return &Config{
		Port:              8080,
		LogLevel:          "info",
		DBDriver:          "sqlite",
		DBDSN:             "panicbutton.db",
		AvatarDir:         "./data/avatars",
		AvatarBaseURL:     "/avatars",
		MaxAvatarSize:     2 << 20,
		TickIntervalMs:    1000,
		CompletionDelayMs: 3000,
		StaticDir:         "./static",
		SeedOnStart:       true,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// PANIC_CONFIG_FILE (if any), then the environment.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// LoadLocal is Load for the terminal client. Only timing and logging are
// checked; server settings such as SESSION_SECRET may be absent.
func LoadLocal() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.validateLocal(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("PANIC_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = envInt("PORT", cfg.Port)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)
	cfg.DBDriver = envStr("DB_DRIVER", cfg.DBDriver)
	cfg.DBDSN = envStr("DB_DSN", cfg.DBDSN)
	cfg.AvatarDir = envStr("AVATAR_DIR", cfg.AvatarDir)
	cfg.AvatarBaseURL = envStr("AVATAR_BASE_URL", cfg.AvatarBaseURL)
	cfg.SessionSecret = envStr("SESSION_SECRET", cfg.SessionSecret)
	cfg.TrustProxyAuth = envBool("TRUST_PROXY_AUTH", cfg.TrustProxyAuth)
	cfg.TickIntervalMs = envInt("TICK_INTERVAL_MS", cfg.TickIntervalMs)
	cfg.CompletionDelayMs = envInt("COMPLETION_DELAY_MS", cfg.CompletionDelayMs)
	cfg.StaticDir = envStr("STATIC_DIR", cfg.StaticDir)
	cfg.SeedOnStart = envBool("SEED_ON_START", cfg.SeedOnStart)

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	switch c.DBDriver {
	case "sqlite", "sqlite3", "postgres", "postgresql":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN must not be empty")
	}
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 bytes")
	}
	if c.MaxAvatarSize < 1 {
		return fmt.Errorf("max_avatar_bytes must be positive, got %d", c.MaxAvatarSize)
	}
	return c.validateLocal()
}

func (c *Config) validateLocal() error {
	if c.TickIntervalMs < 1 {
		return fmt.Errorf("TICK_INTERVAL_MS must be positive, got %d", c.TickIntervalMs)
	}
	if c.CompletionDelayMs < 0 {
		return fmt.Errorf("COMPLETION_DELAY_MS must not be negative, got %d", c.CompletionDelayMs)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

func (c *Config) CompletionDelay() time.Duration {
	return time.Duration(c.CompletionDelayMs) * time.Millisecond
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}
