package main

import (
	"context"
	"fmt"
	"log/slog"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/directory"
	"github.com/MrEthical07/goAdmin/internal/config"
	"github.com/MrEthical07/goAdmin/password"
	"github.com/MrEthical07/goAdmin/session"
	"github.com/redis/go-redis/v9"
)

// app owns every long-lived dependency of the server.
type app struct {
	engine  *goAdmin.Engine
	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	matcher, err := passwordMatcher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	dir, err := a.directory(ctx, cfg, matcher, logger)
	if err != nil {
		return nil, err
	}

	b := goAdmin.New().
		WithConfig(cfg.ToEngineConfig()).
		WithDirectory(dir).
		WithPasswordMatcher(matcher).
		WithLogger(logger)
	if cfg.AuditEnabled {
		b = b.WithAuditSink(goAdmin.SlogSink{Logger: logger.With("component", "audit")})
	}

	switch cfg.SessionBackend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		b = b.WithRedis(rdb)
	case config.BackendMemory:
		store, err := session.NewMemoryStore(session.DefaultMemoryConfig())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		b = b.WithSessionStore(store)
	}

	engine, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	a.engine = engine
	a.closers = append(a.closers, engine.Close)
	return a, nil
}

// passwordMatcher hashes new passwords with bcrypt and verifies either
// bcrypt or argon2id hashes, matching what adminctl hash-password emits.
func passwordMatcher(bcryptCost int) (password.Auto, error) {
	argon, err := password.NewArgon2(password.DefaultArgon2Config())
	if err != nil {
		return password.Auto{}, err
	}
	bc := password.NewBcrypt(bcryptCost)
	return password.Auto{Primary: bc, Bcrypt: bc, Argon2: argon}, nil
}

func (a *app) directory(ctx context.Context, cfg *config.Config, hasher password.Hasher, logger *slog.Logger) (goAdmin.Directory, error) {
	if cfg.DatabaseURL == "" {
		mem := directory.NewMemory()
		if cfg.DemoAdminPassword != "" {
			hash, err := hasher.Hash(cfg.DemoAdminPassword)
			if err != nil {
				return nil, err
			}
			mem.Put(goAdmin.Principal{UserID: "admin", Username: "admin", PasswordHash: hash},
				"admin", "common", "ROLE_ADMIN")
			logger.Warn("using in-memory directory with demo admin user")
		}
		return mem, nil
	}

	db, err := directory.OpenPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, func() { _ = sqlDB.Close() })
	}
	dir, err := directory.NewGorm(db)
	if err != nil {
		return nil, err
	}
	if err := dir.Migrate(ctx); err != nil {
		return nil, err
	}
	return dir, nil
}

// Close releases dependencies in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
