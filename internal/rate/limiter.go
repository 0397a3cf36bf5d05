package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userKeyPrefix = "al:"
	ipKeyPrefix   = "ali:"
)

// Config holds login throttle tuning parameters.
type Config struct {
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

// Limiter enforces per-username and per-IP failed-login budgets using
// fixed-window Redis counters.
type Limiter struct {
	rdb redis.UniversalClient
	cfg Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(rdb redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{rdb: rdb, cfg: cfg}
}

func (l *Limiter) keys(username, ip string) []string {
	keys := []string{userKeyPrefix + username}
	if l.cfg.EnableIPThrottle && ip != "" {
		keys = append(keys, ipKeyPrefix+ip)
	}
	return keys
}

// CheckLogin returns ErrRateLimited once the username, or the IP when
// IP throttling is on, has used up its failed-attempt budget.
func (l *Limiter) CheckLogin(ctx context.Context, username, ip string) error {
	keys := l.keys(username, ip)
	// MGET is not cross-slot safe on a cluster.
	cmds := make([]*redis.StringCmd, len(keys))
	_, err := l.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = p.Get(ctx, k)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return unavailable(err)
	}

	for _, cmd := range cmds {
		n, err := cmd.Int64()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			return unavailable(err)
		case n >= int64(l.cfg.MaxLoginAttempts):
			return ErrRateLimited
		}
	}
	return nil
}

// IncrementLogin records a failed login attempt for the username+IP pair.
func (l *Limiter) IncrementLogin(ctx context.Context, username, ip string) error {
	for _, k := range l.keys(username, ip) {
		if err := l.hit(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// hit bumps one counter and starts its window if it has none yet.
func (l *Limiter) hit(ctx context.Context, key string) error {
	var ttl *redis.DurationCmd
	_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, key)
		ttl = p.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	if ttl.Val() >= 0 {
		return nil
	}
	if err := l.rdb.PExpire(ctx, key, l.cfg.LoginCooldownDuration).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// ResetLogin clears the username counter after a successful login. The
// IP counter is left alone so one good account cannot launder a
// credential-stuffing source.
func (l *Limiter) ResetLogin(ctx context.Context, username, _ string) error {
	if err := l.rdb.Del(ctx, userKeyPrefix+username).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// GetLoginAttempts returns the failed attempts counted for username in
// the current window. A missing counter reads as zero.
func (l *Limiter) GetLoginAttempts(ctx context.Context, username string) (int, error) {
	n, err := l.rdb.Get(ctx, userKeyPrefix+username).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, unavailable(err)
	}
	return max(n, 0), nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
}
