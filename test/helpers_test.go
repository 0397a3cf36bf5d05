//go:build integration

package test

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/directory"
	"github.com/MrEthical07/goAdmin/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	integrationSecret   = "integration-secret-integration-secret"
	integrationPassword = "correct-horse-battery"
)

// redisMode describes which Redis backend the suite is running against.
type redisMode struct {
	name  string
	setup func(t *testing.T) redis.UniversalClient
}

// redisModes returns the Redis backends to test. miniredis is always
// available; REDIS_ADDR adds a standalone server and REDIS_CLUSTER_ADDRS
// (comma-separated) a cluster.
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{
		{
			name: "miniredis",
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				mr := miniredis.RunT(t)
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				t.Cleanup(func() { _ = rdb.Close() })
				return rdb
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis at %s: %v", addr, err)
				}
				rdb.FlushDB(context.Background())
				t.Cleanup(func() { rdb.FlushDB(context.Background()); _ = rdb.Close() })
				return rdb
			},
		})
	}

	if addrs := os.Getenv("REDIS_CLUSTER_ADDRS"); addrs != "" {
		modes = append(modes, redisMode{
			name: "cluster",
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				rdb := redis.NewClusterClient(&redis.ClusterOptions{Addrs: splitAddrs(addrs)})
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis cluster: %v", err)
				}
				t.Cleanup(func() { _ = rdb.Close() })
				return rdb
			},
		})
	}
	return modes
}

func splitAddrs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newEngine(t *testing.T, rdb redis.UniversalClient) (*goAdmin.Engine, *clock) {
	t.Helper()

	hash, err := password.NewBcrypt(bcrypt.MinCost).Hash(integrationPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	dir := directory.NewMemory()
	dir.Put(goAdmin.Principal{UserID: "it-alice", Username: "alice", PasswordHash: hash}, "admin", "ROLE_ADMIN")

	cfg := goAdmin.DefaultConfig()
	cfg.Token.Secret = []byte(integrationSecret)
	cfg.Session.KeyPrefix = "it:user:"

	c := &clock{now: time.Now()}
	engine, err := goAdmin.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithDirectory(dir).
		WithClock(c.Now).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, c
}
