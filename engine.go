package goAdmin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/goAdmin/internal/audit"
	internalflows "github.com/MrEthical07/goAdmin/internal/flows"
	"github.com/MrEthical07/goAdmin/internal/rate"
	"github.com/MrEthical07/goAdmin/jwt"
	"github.com/MrEthical07/goAdmin/password"
	"github.com/MrEthical07/goAdmin/session"
)

// Engine authenticates requests against signed access tokens backed by one
// server-side session per user. It is safe for concurrent use.
type Engine struct {
	config      Config
	jwtManager  *jwt.Manager
	store       session.Store
	directory   Directory
	matcher     password.Matcher
	rateLimiter *rate.Limiter
	allowList   map[string]struct{}
	flows       internalflows.Service
	audit       *internalaudit.Dispatcher
	metrics     *Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// Close flushes pending audit events. The session store and Redis client
// belong to the caller and stay open.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped returns how many audit events were lost to a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// IsAllowListed reports whether path skips authentication. Matching is exact.
func (e *Engine) IsAllowListed(path string) bool {
	_, ok := e.allowList[path]
	return ok
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login checks username and password against the directory, issues an
// access token and stores the session, replacing any earlier one.
func (e *Engine) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}

	res := e.flows.Login(ctx, internalflows.LoginRequest{
		Username: username,
		Password: password,
		ClientIP: clientIPFromContext(ctx),
	})

	switch res.Failure {
	case internalflows.LoginFailureNone:
		e.metricInc(MetricLoginSuccess)
		e.emitAudit(ctx, AuditEvent{
			Kind:     auditEventLoginSuccess,
			UserID:   res.UserID,
			Username: username,
			TokenID:  res.Token.TokenID,
			Success:  true,
		}, nil)
		e.logger.InfoContext(ctx, "login succeeded", "user_id", res.UserID)
		return &LoginResult{
			UserID:      res.UserID,
			AccessToken: res.Token.Value,
			TokenID:     res.Token.TokenID,
			ExpiresAt:   res.Token.ExpiresAt,
		}, nil

	case internalflows.LoginFailureRateLimited:
		if !errors.Is(res.Err, rate.ErrRateLimited) {
			e.metricInc(MetricStoreError)
			e.logger.ErrorContext(ctx, "login throttle unavailable", "error", res.Err)
			return nil, fmt.Errorf("%w: %v", ErrSessionBackend, res.Err)
		}
		e.metricInc(MetricLoginRateLimited)
		e.emitAudit(ctx, AuditEvent{
			Kind:     auditEventLoginRateLimited,
			Username: username,
		}, ErrLoginRateLimited)
		e.logger.InfoContext(ctx, "login rate limited", "username", username)
		return nil, ErrLoginRateLimited

	case internalflows.LoginFailureInvalidCredentials:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditEvent{
			Kind:     auditEventLoginFailure,
			Username: username,
		}, ErrAuthentication)
		e.logger.InfoContext(ctx, "login failed", "username", username)
		return nil, ErrAuthentication

	case internalflows.LoginFailureDirectory:
		e.logger.ErrorContext(ctx, "directory lookup failed", "username", username, "error", res.Err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, res.Err)

	case internalflows.LoginFailureStore:
		e.metricInc(MetricStoreError)
		e.logger.ErrorContext(ctx, "session save failed", "user_id", res.UserID, "error", res.Err)
		return nil, fmt.Errorf("%w: %v", ErrSessionBackend, res.Err)

	default:
		e.logger.ErrorContext(ctx, "token issue failed", "user_id", res.UserID, "error", res.Err)
		return nil, fmt.Errorf("%w: %v", ErrSystem, res.Err)
	}
}

// Authenticate evaluates one request. path is matched against the
// allow-list and token is the raw token header value, possibly empty.
//
// On success the result is either OutcomeSkipped or OutcomeAuthenticated;
// in the latter case NewAccessToken is set when an expired token was
// renewed. Failures are one of ErrTokenMissing, ErrTokenInvalid,
// ErrSessionExpired, ErrTokenFingerprintMismatch, or a wrapped
// ErrSessionBackend / ErrSystem fault.
func (e *Engine) Authenticate(ctx context.Context, path, token string) (*AuthResult, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
		defer func() {
			e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
		}()
	}

	res := e.flows.Authenticate(ctx, internalflows.AuthenticateRequest{
		Path:  path,
		Token: token,
	})

	switch res.State {
	case internalflows.AuthStateSkipped:
		e.metricInc(MetricAuthenticateSkipped)
		return &AuthResult{Outcome: OutcomeSkipped}, nil
	case internalflows.AuthStateAuthenticated:
		return e.authenticated(ctx, path, res), nil
	}

	switch res.Failure {
	case internalflows.AuthFailureTokenMissing:
		e.metricInc(MetricTokenMissing)
		return nil, ErrTokenMissing
	case internalflows.AuthFailureTokenInvalid:
		e.metricInc(MetricTokenInvalid)
		e.logger.DebugContext(ctx, "token rejected", "path", path, "error", res.Err)
		return nil, ErrTokenInvalid
	case internalflows.AuthFailureSessionExpired:
		e.metricInc(MetricSessionExpired)
		return nil, ErrSessionExpired
	case internalflows.AuthFailureFingerprintMismatch:
		e.metricInc(MetricFingerprintMismatch)
		e.emitAudit(ctx, AuditEvent{
			Kind:    auditEventFingerprintMismatch,
			UserID:  res.UserID,
			TokenID: res.TokenID,
			Path:    path,
		}, ErrTokenFingerprintMismatch)
		e.logger.WarnContext(ctx, "expired token does not match session fingerprint",
			"user_id", res.UserID, "token_id", res.TokenID, "path", path)
		return nil, ErrTokenFingerprintMismatch
	case internalflows.AuthFailureClockSkew:
		e.logger.ErrorContext(ctx, "token issued in the future, check clock sync",
			"user_id", res.UserID, "path", path, "error", res.Err)
		return nil, fmt.Errorf("%w: %v", ErrSystem, res.Err)
	case internalflows.AuthFailureStore:
		e.metricInc(MetricStoreError)
		e.logger.ErrorContext(ctx, "session store failed", "user_id", res.UserID, "error", res.Err)
		return nil, fmt.Errorf("%w: %v", ErrSessionBackend, res.Err)
	default:
		e.logger.ErrorContext(ctx, "token renewal failed", "user_id", res.UserID, "error", res.Err)
		return nil, fmt.Errorf("%w: %v", ErrSystem, res.Err)
	}
}

func (e *Engine) authenticated(ctx context.Context, path string, res internalflows.AuthenticateResult) *AuthResult {
	e.metricInc(MetricAuthenticateSuccess)

	out := &AuthResult{
		Outcome: OutcomeAuthenticated,
		UserID:  res.UserID,
		TokenID: res.TokenID,
	}
	if res.Session != nil {
		out.Username = res.Session.Username
		out.Email = res.Session.Email
		out.Authorities = append([]string(nil), res.Session.Authorities...)
	}

	if res.Renewed() {
		out.NewAccessToken = res.NewToken.Value
		e.metricInc(MetricTokenRenewed)
		e.emitAudit(ctx, AuditEvent{
			Kind:     auditEventTokenRenewed,
			UserID:   res.UserID,
			Username: out.Username,
			TokenID:  res.NewToken.TokenID,
			Path:     path,
			Success:  true,
			Metadata: map[string]string{
				"expires_at": auditTimestamp(res.NewToken.ExpiresAt),
			},
		}, nil)
		e.logger.DebugContext(ctx, "access token renewed", "user_id", res.UserID, "token_id", res.NewToken.TokenID)
	}

	return out
}

// Revoke deletes the session of userID. Revoking a user without a session
// succeeds.
func (e *Engine) Revoke(ctx context.Context, userID string) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}

	if err := e.flows.Revoke(ctx, userID); err != nil {
		if errors.Is(err, internalflows.ErrEmptyUserID) {
			return ErrParamValidation
		}
		e.metricInc(MetricStoreError)
		e.logger.ErrorContext(ctx, "session revoke failed", "user_id", userID, "error", err)
		return fmt.Errorf("%w: %v", ErrSessionBackend, err)
	}

	e.metricInc(MetricSessionRevoked)
	e.emitAudit(ctx, AuditEvent{
		Kind:    auditEventSessionRevoked,
		UserID:  userID,
		Success: true,
	}, nil)
	return nil
}

// Logout revokes the session of the token's subject. The token may be
// expired but must carry a valid signature.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}
	if token == "" {
		return ErrTokenMissing
	}

	res := e.flows.LogoutByToken(ctx, token)
	if res.Invalid {
		e.metricInc(MetricTokenInvalid)
		return ErrTokenInvalid
	}
	if res.ClockSkew {
		e.logger.ErrorContext(ctx, "logout token issued in the future, check clock sync",
			"user_id", res.UserID, "error", res.Err)
		return fmt.Errorf("%w: %v", ErrSystem, res.Err)
	}
	if res.Err != nil {
		e.metricInc(MetricStoreError)
		e.logger.ErrorContext(ctx, "logout failed", "user_id", res.UserID, "error", res.Err)
		return fmt.Errorf("%w: %v", ErrSessionBackend, res.Err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, AuditEvent{
		Kind:    auditEventLogout,
		UserID:  res.UserID,
		Success: true,
	}, nil)
	return nil
}
