package goAdmin

import (
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/goAdmin/internal/rate"
	"github.com/MrEthical07/goAdmin/jwt"
	"github.com/MrEthical07/goAdmin/password"
	"github.com/MrEthical07/goAdmin/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. A Builder is single-use: Build may be
// called once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  session.Store

	directory Directory
	matcher   password.Matcher
	logger    *slog.Logger
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client used for the session store and the
// login throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionStore overrides the session store. Without it, a Redis
// client is required.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithDirectory supplies the user directory consulted at login.
func (b *Builder) WithDirectory(d Directory) *Builder {
	b.directory = d
	return b
}

// WithPasswordMatcher overrides the password comparator. The default
// accepts both bcrypt and argon2id hashes.
func (b *Builder) WithPasswordMatcher(m password.Matcher) *Builder {
	b.matcher = m
	return b
}

// WithLogger sets the structured logger. The default discards output.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit destination. Config.Audit.Enabled must
// also be true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the engine clock. Tests use it to age tokens.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.directory == nil {
		return nil, errors.New("directory required")
	}

	// -------- SESSION STORE --------
	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or session store required")
		}
		store = session.NewRedisStore(b.redis, cfg.Session.KeyPrefix)
	}

	if cfg.LoginThrottle.Enabled && b.redis == nil {
		return nil, errors.New("LoginThrottle requires redis client")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// -------- TOKENS --------
	jm, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.SigningMethod(cfg.Token.SigningMethod),
		Secret:        cloneBytes(cfg.Token.Secret),
		PublicKey:     cloneBytes(cfg.Token.PublicKey),
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
		MaxFutureIAT:  cfg.Token.MaxFutureIAT,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}

	// -------- PASSWORDS --------
	matcher := b.matcher
	if matcher == nil {
		argon, err := password.NewArgon2(password.DefaultArgon2Config())
		if err != nil {
			return nil, err
		}
		bc := password.NewBcrypt(0)
		matcher = password.Auto{Primary: bc, Bcrypt: bc, Argon2: argon}
	}

	engine := &Engine{
		config:     cfg,
		jwtManager: jm,
		store:      store,
		directory:  b.directory,
		matcher:    matcher,
		allowList:  make(map[string]struct{}, len(cfg.Auth.AllowList)),
		metrics:    NewMetrics(cfg.Metrics),
		logger:     logger,
		now:        now,
	}
	for _, p := range cfg.Auth.AllowList {
		engine.allowList[p] = struct{}{}
	}

	if cfg.LoginThrottle.Enabled {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:      cfg.LoginThrottle.EnableIPThrottle,
			MaxLoginAttempts:      cfg.LoginThrottle.MaxAttempts,
			LoginCooldownDuration: cfg.LoginThrottle.Window,
		})
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.flows = engine.buildFlows()

	b.built = true

	return engine, nil
}
