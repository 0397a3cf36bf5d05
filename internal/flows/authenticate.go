package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goAdmin/jwt"
	"github.com/MrEthical07/goAdmin/session"
)

// AuthState is the terminal state of one request's authentication.
type AuthState int

const (
	AuthStateRejected AuthState = iota
	AuthStateSkipped
	AuthStateAuthenticated
)

// AuthFailureKind classifies authenticate failures for root-level mapping.
type AuthFailureKind int

const (
	AuthFailureNone AuthFailureKind = iota
	AuthFailureTokenMissing
	AuthFailureTokenInvalid
	AuthFailureSessionExpired
	AuthFailureFingerprintMismatch
	AuthFailureStore
	AuthFailureIssue
	// AuthFailureClockSkew is a system fault, not a credential problem.
	AuthFailureClockSkew
)

// AuthenticateRequest is the transport-neutral view of an incoming request.
type AuthenticateRequest struct {
	Path  string
	Token string
}

// AuthenticateResult carries the outcome plus enough detail for metrics,
// audit and the response header.
type AuthenticateResult struct {
	State   AuthState
	Failure AuthFailureKind
	Err     error

	UserID  string
	TokenID string
	Session *session.Session
	// NewToken is set only when the request renewed an expired token.
	NewToken *jwt.Token
}

// Renewed reports whether the caller must hand a new token to the client.
func (r AuthenticateResult) Renewed() bool {
	return r.NewToken != nil
}

// AuthenticateDeps captures request authentication dependencies.
type AuthenticateDeps struct {
	IsAllowListed func(path string) bool
	Verify        func(token string) jwt.Result
	IssueAccess   func(subject string) (jwt.Token, error)
	Store         session.Store
	SessionTTL    time.Duration
	Now           func() time.Time
}

// RunAuthenticate evaluates one request: allow-list, token presence,
// verification, session lookup and, for expired tokens, single-use
// renewal bound to the session fingerprint.
func RunAuthenticate(ctx context.Context, req AuthenticateRequest, deps AuthenticateDeps) AuthenticateResult {
	if deps.IsAllowListed != nil && deps.IsAllowListed(req.Path) {
		return AuthenticateResult{State: AuthStateSkipped}
	}

	if req.Token == "" {
		return rejected(AuthFailureTokenMissing, nil, "")
	}

	verified := deps.Verify(req.Token)
	switch verified.Status {
	case jwt.StatusValid:
		sess, fail, err := loadSession(ctx, deps.Store, verified.Subject)
		if fail != AuthFailureNone {
			return rejected(fail, err, verified.Subject)
		}
		return AuthenticateResult{
			State:   AuthStateAuthenticated,
			UserID:  verified.Subject,
			TokenID: verified.TokenID,
			Session: sess,
		}
	case jwt.StatusExpired:
		return renew(ctx, verified, deps)
	case jwt.StatusClockSkew:
		return rejected(AuthFailureClockSkew, verified.Err, verified.Subject)
	default:
		return rejected(AuthFailureTokenInvalid, verified.Err, "")
	}
}

func renew(ctx context.Context, verified jwt.Result, deps AuthenticateDeps) AuthenticateResult {
	sess, fail, err := loadSession(ctx, deps.Store, verified.Subject)
	if fail != AuthFailureNone {
		return rejected(fail, err, verified.Subject)
	}
	if sess.Fingerprint != verified.TokenID {
		res := rejected(AuthFailureFingerprintMismatch, session.ErrFingerprintMismatch, verified.Subject)
		res.TokenID = verified.TokenID
		return res
	}

	next, err := deps.IssueAccess(verified.Subject)
	if err != nil {
		return rejected(AuthFailureIssue, err, verified.Subject)
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}

	if rotator, ok := deps.Store.(session.FingerprintRotator); ok {
		updated, err := rotator.RotateFingerprint(ctx, verified.Subject, verified.TokenID, next.TokenID, now, deps.SessionTTL)
		if err != nil {
			switch {
			case errors.Is(err, session.ErrFingerprintMismatch):
				res := rejected(AuthFailureFingerprintMismatch, err, verified.Subject)
				res.TokenID = verified.TokenID
				return res
			case errors.Is(err, session.ErrNotFound):
				return rejected(AuthFailureSessionExpired, err, verified.Subject)
			default:
				return rejected(AuthFailureStore, err, verified.Subject)
			}
		}
		sess = updated
	} else {
		sess.Fingerprint = next.TokenID
		sess.RenewedAt = now.UnixMilli()
		if err := deps.Store.Save(ctx, sess, deps.SessionTTL); err != nil {
			return rejected(AuthFailureStore, err, verified.Subject)
		}
	}

	return AuthenticateResult{
		State:    AuthStateAuthenticated,
		UserID:   verified.Subject,
		TokenID:  next.TokenID,
		Session:  sess,
		NewToken: &next,
	}
}

func loadSession(ctx context.Context, store session.Store, userID string) (*session.Session, AuthFailureKind, error) {
	sess, err := store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, AuthFailureSessionExpired, err
		}
		return nil, AuthFailureStore, err
	}
	return sess, AuthFailureNone, nil
}

func rejected(kind AuthFailureKind, err error, userID string) AuthenticateResult {
	return AuthenticateResult{
		State:   AuthStateRejected,
		Failure: kind,
		Err:     err,
		UserID:  userID,
	}
}
