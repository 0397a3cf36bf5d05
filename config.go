package goAdmin

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goAdmin/jwt"
	"github.com/MrEthical07/goAdmin/session"
)

const (
	// DefaultTokenHeader carries the access token on requests.
	DefaultTokenHeader = "access_token"
	// DefaultRenewHeader carries a renewed access token on responses.
	DefaultRenewHeader = "new_access_token"

	minSecretBytes = 32
)

// Config is the engine configuration. It is copied at Build and treated
// as immutable afterwards.
type Config struct {
	Token         TokenConfig
	Session       SessionConfig
	Auth          AuthConfig
	LoginThrottle LoginThrottleConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls access token signing.
type TokenConfig struct {
	SigningMethod string // "hs256" (default) or "ed25519"
	// Secret is the HS256 key or the Ed25519 private key.
	Secret         []byte
	PublicKey      []byte
	Issuer         string
	AccessLifetime time.Duration
	Leeway         time.Duration
	MaxFutureIAT   time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the server-side session record.
type SessionConfig struct {
	// TTL bounds how long a user may stay idle before renewal is refused.
	TTL       time.Duration
	KeyPrefix string
}

/*
====================================
AUTH CONFIG
====================================
*/

// AuthConfig controls request authentication.
type AuthConfig struct {
	// AllowList holds exact request paths that skip authentication.
	AllowList   []string
	TokenHeader string
	RenewHeader string
}

/*
====================================
LOGIN THROTTLE CONFIG
====================================
*/

// LoginThrottleConfig controls the fixed-window failed-login limiter. It
// needs a Redis client.
type LoginThrottleConfig struct {
	Enabled          bool
	MaxAttempts      int
	Window           time.Duration
	EnableIPThrottle bool
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a configuration with one-hour access tokens and
// thirty-day sessions. Token.Secret must still be set.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			SigningMethod:  string(jwt.MethodHS256),
			Issuer:         jwt.DefaultIssuer,
			AccessLifetime: time.Hour,
			MaxFutureIAT:   time.Minute,
		},
		Session: SessionConfig{
			TTL:       30 * 24 * time.Hour,
			KeyPrefix: session.DefaultKeyPrefix,
		},
		Auth: AuthConfig{
			AllowList:   []string{"/login"},
			TokenHeader: DefaultTokenHeader,
			RenewHeader: DefaultRenewHeader,
		},
		LoginThrottle: LoginThrottleConfig{
			Enabled:     false,
			MaxAttempts: 5,
			Window:      15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	out.Auth.AllowList = append([]string(nil), cfg.Auth.AllowList...)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Token
	switch jwt.SigningMethod(c.Token.SigningMethod) {
	case jwt.MethodHS256:
		if len(c.Token.Secret) < minSecretBytes {
			return errors.New("Token Secret must be at least 32 bytes for hs256")
		}
	case jwt.MethodEd25519:
		if len(c.Token.Secret) == 0 || len(c.Token.PublicKey) == 0 {
			return errors.New("ed25519 requires Secret and PublicKey")
		}
	default:
		return errors.New("unsupported Token SigningMethod")
	}
	if c.Token.AccessLifetime <= 0 {
		return errors.New("Token AccessLifetime must be > 0")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2m")
	}
	if c.Token.MaxFutureIAT < 0 || c.Token.MaxFutureIAT > 10*time.Minute {
		return errors.New("Token MaxFutureIAT must be between 0 and 10m")
	}

	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.TTL < c.Token.AccessLifetime {
		return errors.New("Session TTL must be >= Token AccessLifetime")
	}
	if strings.TrimSpace(c.Session.KeyPrefix) == "" {
		return errors.New("Session KeyPrefix must not be empty")
	}

	// Auth
	if !validHeaderName(c.Auth.TokenHeader) {
		return errors.New("Auth TokenHeader is not a valid header name")
	}
	if !validHeaderName(c.Auth.RenewHeader) {
		return errors.New("Auth RenewHeader is not a valid header name")
	}
	for _, p := range c.Auth.AllowList {
		if !strings.HasPrefix(p, "/") {
			return errors.New("Auth AllowList entries must start with '/'")
		}
	}

	// Login throttle
	if c.LoginThrottle.Enabled {
		if c.LoginThrottle.MaxAttempts <= 0 {
			return errors.New("LoginThrottle MaxAttempts must be > 0")
		}
		if c.LoginThrottle.Window <= 0 {
			return errors.New("LoginThrottle Window must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}

func validHeaderName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	// Underscores are legal header characters and both default names use them.
	return http.CanonicalHeaderKey(name) != "" && !strings.ContainsAny(name, " \t\r\n:")
}
