// Package config loads server settings from the environment. A .env file in
// the working directory is read first when present; real environment
// variables win over it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	ExecutorPiston = "piston"
	ExecutorDocker = "docker"
	ExecutorNone   = "none"
)

type Config struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	DBDriver    string `mapstructure:"db_driver"`
	DBPath      string `mapstructure:"db_path"`
	DatabaseURL string `mapstructure:"database_url"`

	JWTSecret     string `mapstructure:"jwt_secret"`
	SecureCookies bool   `mapstructure:"secure_cookies"`
	WebhookSecret string `mapstructure:"webhook_secret"`

	GitHubClientID     string `mapstructure:"github_client_id"`
	GitHubClientSecret string `mapstructure:"github_client_secret"`
	GitHubCallbackURL  string `mapstructure:"github_callback_url"`

	Executor      string        `mapstructure:"executor"`
	PistonURL     string        `mapstructure:"piston_url"`
	PistonTimeout time.Duration `mapstructure:"piston_timeout"`

	CORSOrigins      []string      `mapstructure:"cors_origins"`
	ExecuteRateLimit int           `mapstructure:"execute_rate_limit"` // requests per minute per user
	UserCacheSize    int           `mapstructure:"user_cache_size"`
	UserCacheTTL     time.Duration `mapstructure:"user_cache_ttl"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("db_driver", DriverSQLite)
	v.SetDefault("db_path", "data/codecraft.db")
	v.SetDefault("database_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("secure_cookies", false)
	v.SetDefault("webhook_secret", "")
	v.SetDefault("github_client_id", "")
	v.SetDefault("github_client_secret", "")
	v.SetDefault("github_callback_url", "")
	v.SetDefault("executor", ExecutorPiston)
	v.SetDefault("piston_url", "https://emkc.org/api/v2/piston")
	v.SetDefault("piston_timeout", 15*time.Second)
	v.SetDefault("cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("execute_rate_limit", 10)
	v.SetDefault("user_cache_size", 1024)
	v.SetDefault("user_cache_ttl", time.Minute)
}

// Load reads .env (if any) and the environment, applies defaults, and
// validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DBDriver))
	}

	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.WebhookSecret != "" && !strings.HasPrefix(c.WebhookSecret, "whsec_") {
		errs = append(errs, errors.New(`WEBHOOK_SECRET must start with "whsec_"`))
	}

	switch c.Executor {
	case ExecutorPiston:
		if c.PistonURL == "" {
			errs = append(errs, errors.New("PISTON_URL is required for the piston executor"))
		}
	case ExecutorDocker, ExecutorNone:
	default:
		errs = append(errs, fmt.Errorf("EXECUTOR must be one of piston, docker, none; got %q", c.Executor))
	}

	if c.ExecuteRateLimit < 1 {
		errs = append(errs, errors.New("EXECUTE_RATE_LIMIT must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// GitHubEnabled reports whether OAuth login can be offered.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// SlogLevel is LogLevel as a slog.Level. Validate has already rejected bad
// values, so unknown strings fall back to Info.
func (c *Config) SlogLevel() slog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
