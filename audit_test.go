package goAdmin

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

func waitEvent(t *testing.T, ch <-chan AuditEvent) AuditEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
		return AuditEvent{}
	}
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := &countingSink{}
	te := newTestEngine(t, func(cfg *Config, b *Builder) {
		cfg.Audit.Enabled = false
		b.WithAuditSink(sink)
	})

	_, _ = te.Login(context.Background(), "alice", "wrong-password-123")
	te.Close()

	if sink.Count() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.Count())
	}
}

func TestAuditLoginAndRenewalEvents(t *testing.T) {
	sink := NewChannelSink(16)
	te := newTestEngine(t, func(cfg *Config, b *Builder) {
		cfg.Audit.Enabled = true
		cfg.Audit.DropIfFull = false
		b.WithAuditSink(sink)
	})
	ctx := WithClientIP(context.Background(), "203.0.113.9")

	if _, err := te.Login(ctx, "alice", "wrong-password-123"); err == nil {
		t.Fatal("expected login failure")
	}
	ev := waitEvent(t, sink.Events())
	if ev.Kind != auditEventLoginFailure || ev.Success || ev.Username != "alice" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Error != "30000" || ev.IP != "203.0.113.9" {
		t.Fatalf("expected error code and ip, got %+v", ev)
	}

	login := te.login(t, "alice")
	ev = waitEvent(t, sink.Events())
	if ev.Kind != auditEventLoginSuccess || ev.UserID != "u-alice" || ev.TokenID != login.TokenID {
		t.Fatalf("unexpected event %+v", ev)
	}

	te.clock.Advance(2 * time.Hour)
	res, err := te.Authenticate(ctx, "/me", login.AccessToken)
	if err != nil {
		t.Fatalf("renewal failed: %v", err)
	}
	ev = waitEvent(t, sink.Events())
	if ev.Kind != auditEventTokenRenewed || ev.TokenID != res.TokenID || ev.Path != "/me" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Metadata["expires_at"] == "" {
		t.Fatal("renewal event must carry the new expiry")
	}

	if _, err := te.Authenticate(ctx, "/me", login.AccessToken); err == nil {
		t.Fatal("expected replay rejection")
	}
	ev = waitEvent(t, sink.Events())
	if ev.Kind != auditEventFingerprintMismatch || ev.TokenID != login.TokenID || ev.Error != "30004" {
		t.Fatalf("unexpected event %+v", ev)
	}

	if err := te.Revoke(ctx, "u-alice"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ev = waitEvent(t, sink.Events())
	if ev.Kind != auditEventSessionRevoked || ev.UserID != "u-alice" || !ev.Success {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestAuditDroppedCountsBackpressure(t *testing.T) {
	gate := make(chan struct{})
	sink := gateSink(gate)
	te := newTestEngine(t, func(cfg *Config, b *Builder) {
		cfg.Audit.Enabled = true
		cfg.Audit.BufferSize = 1
		cfg.Audit.DropIfFull = true
		b.WithAuditSink(sink)
	})

	for i := 0; i < 10; i++ {
		_, _ = te.Login(context.Background(), "alice", "wrong-password-123")
	}
	if te.AuditDropped() == 0 {
		t.Fatal("expected dropped events with a blocked sink")
	}
	close(gate)
}

type gateSink chan struct{}

func (g gateSink) Emit(context.Context, AuditEvent) {
	<-g
}
