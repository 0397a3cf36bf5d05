package flows

import (
	"context"
	"strings"
	"time"

	"github.com/MrEthical07/goAdmin/jwt"
	"github.com/MrEthical07/goAdmin/session"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureRateLimited
	LoginFailureInvalidCredentials
	LoginFailureDirectory
	LoginFailureIssue
	LoginFailureStore
)

// LoginRequest carries the submitted credentials and the client address
// used for throttling.
type LoginRequest struct {
	Username string
	Password string
	ClientIP string
}

// LoginPrincipal is a flow-local principal record.
type LoginPrincipal struct {
	UserID       string
	Username     string
	Email        string
	PasswordHash string
}

// LoginResult carries either the issued token and stored session or
// failure metadata.
type LoginResult struct {
	Failure LoginFailureKind
	Err     error
	UserID  string
	Token   jwt.Token
	Session *session.Session
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	FindPrincipal   func(ctx context.Context, username string) (LoginPrincipal, error)
	LoadAuthorities func(ctx context.Context, userID string) ([]string, error)
	IsNotFound      func(error) bool
	Matches         func(plain, hash string) bool
	// DummyHash is compared against when the username is unknown so that
	// both failure modes cost one hash comparison.
	DummyHash func() string

	CheckLoginRate     func(ctx context.Context, username, ip string) error
	IncrementLoginRate func(ctx context.Context, username, ip string) error
	ResetLoginRate     func(ctx context.Context, username, ip string) error

	IssueAccess func(subject string) (jwt.Token, error)
	Store       session.Store
	SessionTTL  time.Duration
	Now         func() time.Time
	Warn        func(string, ...any)
}

// RunLogin verifies credentials, issues a token and writes exactly one
// session record. Nothing is written on failure.
func RunLogin(ctx context.Context, req LoginRequest, deps LoginDeps) LoginResult {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return LoginResult{Failure: LoginFailureInvalidCredentials}
	}

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, username, req.ClientIP); err != nil {
			return LoginResult{Failure: LoginFailureRateLimited, Err: err}
		}
	}

	principal, err := deps.FindPrincipal(ctx, username)
	if err != nil {
		if deps.IsNotFound != nil && deps.IsNotFound(err) {
			if deps.DummyHash != nil {
				_ = deps.Matches(req.Password, deps.DummyHash())
			}
			recordLoginFailure(ctx, deps, username, req.ClientIP)
			return LoginResult{Failure: LoginFailureInvalidCredentials}
		}
		return LoginResult{Failure: LoginFailureDirectory, Err: err}
	}

	if !deps.Matches(req.Password, principal.PasswordHash) {
		recordLoginFailure(ctx, deps, username, req.ClientIP)
		return LoginResult{Failure: LoginFailureInvalidCredentials, UserID: principal.UserID}
	}

	authorities, err := deps.LoadAuthorities(ctx, principal.UserID)
	if err != nil {
		return LoginResult{Failure: LoginFailureDirectory, Err: err, UserID: principal.UserID}
	}

	token, err := deps.IssueAccess(principal.UserID)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, UserID: principal.UserID}
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	sess := &session.Session{
		UserID:      principal.UserID,
		Username:    principal.Username,
		Email:       principal.Email,
		Authorities: append([]string(nil), authorities...),
		Fingerprint: token.TokenID,
		CreatedAt:   now.UnixMilli(),
		RenewedAt:   now.UnixMilli(),
	}
	if err := deps.Store.Save(ctx, sess, deps.SessionTTL); err != nil {
		return LoginResult{Failure: LoginFailureStore, Err: err, UserID: principal.UserID}
	}

	if deps.ResetLoginRate != nil {
		if err := deps.ResetLoginRate(ctx, username, req.ClientIP); err != nil && deps.Warn != nil {
			deps.Warn("goAdmin: login throttle reset failed", "error", err)
		}
	}

	return LoginResult{
		UserID:  principal.UserID,
		Token:   token,
		Session: sess,
	}
}

func recordLoginFailure(ctx context.Context, deps LoginDeps, username, ip string) {
	if deps.IncrementLoginRate == nil {
		return
	}
	if err := deps.IncrementLoginRate(ctx, username, ip); err != nil && deps.Warn != nil {
		deps.Warn("goAdmin: login throttle increment failed", "error", err)
	}
}
