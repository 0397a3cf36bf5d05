package middleware

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/directory"
	"github.com/MrEthical07/goAdmin/password"
	"github.com/MrEthical07/goAdmin/session"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct-password-123"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
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

func newTestEngine(t *testing.T) (*goAdmin.Engine, *fakeClock) {
	t.Helper()

	hash, err := password.NewBcrypt(bcrypt.MinCost).Hash(testPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	dir := directory.NewMemory()
	dir.Put(goAdmin.Principal{UserID: "u-alice", Username: "alice", PasswordHash: hash}, "admin", "common", "ROLE_ADMIN")
	dir.Put(goAdmin.Principal{UserID: "u-bob", Username: "bob", PasswordHash: hash}, "common", "ROLE_USER")

	store, err := session.NewMemoryStore(session.MemoryConfig{NumCounters: 1000, MaxCost: 1 << 20})
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	t.Cleanup(store.Close)

	cfg := goAdmin.DefaultConfig()
	cfg.Token.Secret = []byte("middleware-secret-middleware-secret")
	cfg.Auth.AllowList = []string{"/login", "/demo/sayHello"}

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	engine, err := goAdmin.New().
		WithConfig(cfg).
		WithSessionStore(store).
		WithDirectory(dir).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, clock
}

func login(t *testing.T, engine *goAdmin.Engine, username string) string {
	t.Helper()
	res, err := engine.Login(context.Background(), username, testPassword)
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return res.AccessToken
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) goAdmin.Result {
	t.Helper()
	var out goAdmin.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}
