// Package config loads goAdmin process configuration from the environment
// and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/spf13/viper"
)

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds process configuration. Durations are in milliseconds to
// match the values operators already use for the admin backend.
type Config struct {
	// HTTPAddr is the listen address of the HTTP server (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// DatabaseURL is the Postgres DSN of the user directory. Empty selects
	// the in-memory directory.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// JWTSecret is the HS256 signing key; at least 32 bytes.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// AccessExpireMillis is the access token lifetime.
	AccessExpireMillis int64 `mapstructure:"ACCESS_EXPIRE_MILLIS"`
	// RefreshExpireMillis is the session TTL, the window in which an
	// expired access token can still be renewed.
	RefreshExpireMillis int64 `mapstructure:"REFRESH_EXPIRE_MILLIS"`
	// AllowList is a comma-separated list of paths that skip authentication.
	AllowList string `mapstructure:"ALLOW_LIST"`

	BcryptCost int `mapstructure:"BCRYPT_COST"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	MetricsEnabled bool `mapstructure:"METRICS_ENABLED"`
	AuditEnabled   bool `mapstructure:"AUDIT_ENABLED"`

	// LoginThrottleMax enables the login throttle when > 0.
	LoginThrottleMax          int   `mapstructure:"LOGIN_THROTTLE_MAX"`
	LoginThrottleWindowMillis int64 `mapstructure:"LOGIN_THROTTLE_WINDOW_MILLIS"`

	// SessionBackend is "redis" or "memory".
	SessionBackend string `mapstructure:"SESSION_BACKEND"`

	// DemoAdminPassword seeds an "admin" user into the in-memory directory
	// when DATABASE_URL is empty. Ignored otherwise.
	DemoAdminPassword string `mapstructure:"DEMO_ADMIN_PASSWORD"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Env vars override .env.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file path. A missing file is ignored.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		_ = v.ReadInConfig() // ignore missing file
	}

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "admin")
	v.SetDefault("ACCESS_EXPIRE_MILLIS", int64(time.Hour/time.Millisecond))
	v.SetDefault("REFRESH_EXPIRE_MILLIS", int64(30*24*time.Hour/time.Millisecond))
	v.SetDefault("ALLOW_LIST", "/login,/demo/sayHello")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("AUDIT_ENABLED", false)
	v.SetDefault("LOGIN_THROTTLE_MAX", 0)
	v.SetDefault("LOGIN_THROTTLE_WINDOW_MILLIS", int64(15*time.Minute/time.Millisecond))
	v.SetDefault("SESSION_BACKEND", BackendRedis)
	v.SetDefault("DEMO_ADMIN_PASSWORD", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	switch c.SessionBackend {
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("config: REDIS_ADDR must be set for the redis session backend")
		}
	case BackendMemory:
		if c.LoginThrottleMax > 0 {
			return errors.New("config: LOGIN_THROTTLE_MAX requires SESSION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("config: unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("config: LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

// AccessTTL returns AccessExpireMillis as a duration.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessExpireMillis) * time.Millisecond
}

// SessionTTL returns RefreshExpireMillis as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.RefreshExpireMillis) * time.Millisecond
}

// AllowListPaths splits AllowList, dropping blanks.
func (c *Config) AllowListPaths() []string {
	if c == nil || c.AllowList == "" {
		return nil
	}
	parts := strings.Split(c.AllowList, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ToEngineConfig maps process settings onto goAdmin.DefaultConfig. The
// result is validated by the engine builder.
func (c *Config) ToEngineConfig() goAdmin.Config {
	out := goAdmin.DefaultConfig()
	out.Token.Secret = []byte(c.JWTSecret)
	out.Token.Issuer = c.JWTIssuer
	out.Token.AccessLifetime = c.AccessTTL()
	out.Session.TTL = c.SessionTTL()
	out.Auth.AllowList = c.AllowListPaths()
	out.Metrics.Enabled = c.MetricsEnabled
	out.Metrics.EnableLatencyHistograms = c.MetricsEnabled
	out.Audit.Enabled = c.AuditEnabled
	if c.LoginThrottleMax > 0 {
		out.LoginThrottle.Enabled = true
		out.LoginThrottle.MaxAttempts = c.LoginThrottleMax
		out.LoginThrottle.Window = time.Duration(c.LoginThrottleWindowMillis) * time.Millisecond
	}
	return out
}

// Logger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: invalid LOG_LEVEL %q", s)
	}
	return level, nil
}
