package goAdmin

import (
	"context"
	"time"

	internalaudit "github.com/MrEthical07/goAdmin/internal/audit"
)

const (
	auditEventLoginSuccess        = "login_success"
	auditEventLoginFailure        = "login_failure"
	auditEventLoginRateLimited    = "login_rate_limited"
	auditEventTokenRenewed        = "token_renewed"
	auditEventFingerprintMismatch = "token_fingerprint_mismatch"
	auditEventSessionRevoked      = "session_revoked"
	auditEventLogout              = "logout"
)

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *internalaudit.Dispatcher {
	return internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Enabled,
		BufferSize: cfg.BufferSize,
		DropIfFull: cfg.DropIfFull,
	}, sink)
}

// emitAudit fills the timestamp, client IP and error code, then hands the
// event to the dispatcher. A disabled dispatcher makes this a no-op.
func (e *Engine) emitAudit(ctx context.Context, event AuditEvent, err error) {
	if e == nil || e.audit == nil {
		return
	}
	event.At = e.now().UTC()
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
	}
	if err != nil {
		event.Error = CodeOf(err).Code
	}
	e.audit.Emit(ctx, event)
}

func auditTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
