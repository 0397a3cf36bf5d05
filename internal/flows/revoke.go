package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAdmin/jwt"
	"github.com/MrEthical07/goAdmin/session"
)

// ErrEmptyUserID is returned by RunRevoke for a blank user id.
var ErrEmptyUserID = errors.New("user id is required")

// RevokeDeps captures revocation dependencies.
type RevokeDeps struct {
	Verify func(token string) jwt.Result
	Store  session.Store
}

// LogoutByTokenResult reports whose session a token-based logout removed.
type LogoutByTokenResult struct {
	UserID    string
	Invalid   bool
	ClockSkew bool
	Err       error
}

// RunRevoke deletes the session for userID. Revoking a missing session
// is not an error.
func RunRevoke(ctx context.Context, userID string, deps RevokeDeps) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	return deps.Store.Delete(ctx, userID)
}

// RunLogoutByToken resolves the subject of an authentic token, expired or
// not, and deletes that user's session.
func RunLogoutByToken(ctx context.Context, token string, deps RevokeDeps) LogoutByTokenResult {
	res := deps.Verify(token)
	switch res.Status {
	case jwt.StatusInvalid:
		return LogoutByTokenResult{Invalid: true, Err: res.Err}
	case jwt.StatusClockSkew:
		return LogoutByTokenResult{UserID: res.Subject, ClockSkew: true, Err: res.Err}
	}
	return LogoutByTokenResult{
		UserID: res.Subject,
		Err:    RunRevoke(ctx, res.Subject, deps),
	}
}
