package goAdmin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goAdmin/password"
	"github.com/MrEthical07/goAdmin/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "test-secret-test-secret-test-secret!"
	testPassword = "correct-password-123"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testDirectory struct {
	mu          sync.Mutex
	principals  map[string]Principal
	authorities map[string][]string
	findCalls   int
	err         error
}

func newTestDirectory(t testing.TB) *testDirectory {
	t.Helper()

	hash, err := password.NewBcrypt(bcrypt.MinCost).Hash(testPassword)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	return &testDirectory{
		principals: map[string]Principal{
			"alice": {UserID: "u-alice", Username: "alice", Email: "alice@example.com", PasswordHash: hash},
			"bob":   {UserID: "u-bob", Username: "bob", Email: "bob@example.com", PasswordHash: hash},
		},
		authorities: map[string][]string{
			"u-alice": {"admin", "common", "ROLE_ADMIN"},
			"u-bob":   {"common", "ROLE_USER"},
		},
	}
}

func (d *testDirectory) FindPrincipalByUsername(_ context.Context, username string) (Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.findCalls++
	if d.err != nil {
		return Principal{}, d.err
	}
	p, ok := d.principals[username]
	if !ok {
		return Principal{}, ErrPrincipalNotFound
	}
	return p, nil
}

func (d *testDirectory) LoadAuthorities(_ context.Context, userID string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.authorities[userID]...), nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.Secret = []byte(testSecret)
	cfg.Token.AccessLifetime = time.Hour
	cfg.Session.TTL = 24 * time.Hour
	cfg.Auth.AllowList = []string{"/login", "/demo/sayHello"}
	return cfg
}

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

type testEngine struct {
	*Engine
	mr    *miniredis.Miniredis
	rdb   *redis.Client
	dir   *testDirectory
	clock *fakeClock
	store *session.RedisStore
}

// newTestEngine builds an engine on miniredis with a fake clock. mutate
// may adjust the config and builder before Build.
func newTestEngine(t testing.TB, mutate func(*Config, *Builder)) *testEngine {
	t.Helper()

	mr, rdb := newTestRedis(t)
	dir := newTestDirectory(t)
	clock := newFakeClock()
	cfg := testConfig()

	b := New().
		WithRedis(rdb).
		WithDirectory(dir).
		WithPasswordMatcher(password.NewBcrypt(bcrypt.MinCost)).
		WithClock(clock.Now)
	if mutate != nil {
		mutate(&cfg, b)
	}
	b.WithConfig(cfg)

	engine, err := b.Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	t.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	})

	return &testEngine{
		Engine: engine,
		mr:     mr,
		rdb:    rdb,
		dir:    dir,
		clock:  clock,
		store:  session.NewRedisStore(rdb, cfg.Session.KeyPrefix),
	}
}

func (te *testEngine) login(t testing.TB, username string) *LoginResult {
	t.Helper()

	res, err := te.Login(context.Background(), username, testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return res
}
