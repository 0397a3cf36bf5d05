package goAdmin

import (
	"context"
	"testing"
	"time"
)

func BenchmarkAuthenticateValid(b *testing.B) {
	te := newTestEngine(b, func(cfg *Config, _ *Builder) {
		cfg.Metrics.Enabled = false
	})
	login := te.login(b, "alice")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := te.Authenticate(context.Background(), "/me", login.AccessToken); err != nil {
			b.Fatalf("authenticate failed: %v", err)
		}
	}
}

func BenchmarkAuthenticateAllowListed(b *testing.B) {
	te := newTestEngine(b, nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := te.Authenticate(context.Background(), "/demo/sayHello", ""); err != nil {
			b.Fatalf("authenticate failed: %v", err)
		}
	}
}

func BenchmarkAuthenticateRenewChain(b *testing.B) {
	te := newTestEngine(b, nil)
	token := te.login(b, "alice").AccessToken

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		te.clock.Advance(2 * time.Hour)
		res, err := te.Authenticate(context.Background(), "/me", token)
		if err != nil {
			b.Fatalf("renewal failed: %v", err)
		}
		token = res.NewAccessToken
	}
}

func BenchmarkLogin(b *testing.B) {
	te := newTestEngine(b, nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, err := te.Login(context.Background(), "alice", testPassword)
		if err != nil {
			b.Fatalf("login failed: %v", err)
		}
		_ = te.Logout(context.Background(), res.AccessToken)
	}
}
