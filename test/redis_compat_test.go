//go:build integration

package test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/session"
)

func TestRedisCompat_StoreLifecycle(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb := mode.setup(t)
			store := session.NewRedisStore(rdb, "it:user:")
			ctx := context.Background()

			sess := &session.Session{
				UserID:      "it-1",
				Username:    "it",
				Authorities: []string{"common"},
				Fingerprint: "jti-a",
			}
			if err := store.Save(ctx, sess, time.Hour); err != nil {
				t.Fatalf("save: %v", err)
			}
			if ttl := rdb.TTL(ctx, "it:user:it-1").Val(); ttl <= 0 || ttl > time.Hour {
				t.Fatalf("unexpected ttl %v", ttl)
			}

			if _, err := store.RotateFingerprint(ctx, "it-1", "jti-a", "jti-b", time.Now(), time.Hour); err != nil {
				t.Fatalf("rotate: %v", err)
			}
			if _, err := store.RotateFingerprint(ctx, "it-1", "jti-a", "jti-c", time.Now(), time.Hour); !errors.Is(err, session.ErrFingerprintMismatch) {
				t.Fatalf("expected mismatch on stale fingerprint, got %v", err)
			}

			got, err := store.Get(ctx, "it-1")
			if err != nil || got.Fingerprint != "jti-b" {
				t.Fatalf("expected fingerprint jti-b, got %+v %v", got, err)
			}

			if err := store.Delete(ctx, "it-1"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := store.Delete(ctx, "it-1"); err != nil {
				t.Fatalf("second delete must succeed: %v", err)
			}
			if _, err := store.Get(ctx, "it-1"); !errors.Is(err, session.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestRedisCompat_EngineRenewal(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			engine, c := newEngine(t, mode.setup(t))
			ctx := context.Background()

			login, err := engine.Login(ctx, "alice", integrationPassword)
			if err != nil {
				t.Fatalf("login: %v", err)
			}

			res, err := engine.Authenticate(ctx, "/me", login.AccessToken)
			if err != nil || res.Renewed() {
				t.Fatalf("expected plain success, got %+v %v", res, err)
			}

			c.Advance(2 * time.Hour)
			res, err = engine.Authenticate(ctx, "/me", login.AccessToken)
			if err != nil || !res.Renewed() {
				t.Fatalf("expected renewal, got %+v %v", res, err)
			}

			if _, err := engine.Authenticate(ctx, "/me", login.AccessToken); !errors.Is(err, goAdmin.ErrTokenFingerprintMismatch) {
				t.Fatalf("expected fingerprint mismatch, got %v", err)
			}

			if err := engine.Revoke(ctx, "it-alice"); err != nil {
				t.Fatalf("revoke: %v", err)
			}
			if _, err := engine.Authenticate(ctx, "/me", res.NewAccessToken); !errors.Is(err, goAdmin.ErrSessionExpired) {
				t.Fatalf("expected session expired, got %v", err)
			}
		})
	}
}

func TestRedisCompat_ConcurrentRenewalSingleWinner(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			engine, c := newEngine(t, mode.setup(t))
			ctx := context.Background()

			login, err := engine.Login(ctx, "alice", integrationPassword)
			if err != nil {
				t.Fatalf("login: %v", err)
			}
			c.Advance(2 * time.Hour)

			const racers = 16
			var (
				wg         sync.WaitGroup
				renewed    atomic.Int64
				mismatched atomic.Int64
				gate       = make(chan struct{})
			)
			for i := 0; i < racers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-gate
					res, err := engine.Authenticate(ctx, "/me", login.AccessToken)
					switch {
					case err == nil && res.Renewed():
						renewed.Add(1)
					case errors.Is(err, goAdmin.ErrTokenFingerprintMismatch):
						mismatched.Add(1)
					default:
						t.Errorf("unexpected result %+v %v", res, err)
					}
				}()
			}
			close(gate)
			wg.Wait()

			if renewed.Load() != 1 || mismatched.Load() != racers-1 {
				t.Fatalf("expected 1 renewal and %d mismatches, got %d/%d", racers-1, renewed.Load(), mismatched.Load())
			}
		})
	}
}
