package goAdmin

import (
	"context"
	"errors"
	"time"

	internalaudit "github.com/MrEthical07/goAdmin/internal/audit"
)

// ErrPrincipalNotFound must be returned (or wrapped) by a Directory when no
// principal has the requested username.
var ErrPrincipalNotFound = errors.New("principal not found")

// Principal is the credential record a Directory returns for login.
type Principal struct {
	UserID       string
	Username     string
	Email        string
	PasswordHash string
}

// Directory is the user database seen by the engine. Implementations live
// in the directory package.
type Directory interface {
	FindPrincipalByUsername(ctx context.Context, username string) (Principal, error)
	// LoadAuthorities returns permission names plus role names prefixed
	// with "ROLE_".
	LoadAuthorities(ctx context.Context, userID string) ([]string, error)
}

// LoginResult is returned by Engine.Login.
type LoginResult struct {
	UserID      string
	AccessToken string
	TokenID     string
	ExpiresAt   time.Time
}

// Outcome is the terminal state of a successful Engine.Authenticate call.
type Outcome int

const (
	// OutcomeSkipped means the path is allow-listed and no principal was attached.
	OutcomeSkipped Outcome = iota + 1
	// OutcomeAuthenticated means a principal is attached to the request.
	OutcomeAuthenticated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// AuthResult describes the principal behind an authenticated request.
type AuthResult struct {
	Outcome     Outcome
	UserID      string
	Username    string
	Email       string
	Authorities []string
	TokenID     string

	// NewAccessToken is non-empty when an expired token was renewed. The
	// transport must hand it to the client in the renew header.
	NewAccessToken string
}

// Renewed reports whether the request renewed its token.
func (r *AuthResult) Renewed() bool {
	return r != nil && r.NewAccessToken != ""
}

type (
	// AuditEvent is one security-relevant occurrence.
	AuditEvent = internalaudit.Event
	// AuditSink receives audit events from the engine's dispatcher.
	AuditSink = internalaudit.Sink
	// NoOpSink drops events.
	NoOpSink = internalaudit.NoOpSink
	// ChannelSink buffers events into a channel.
	ChannelSink = internalaudit.ChannelSink
	// JSONWriterSink writes newline-delimited JSON.
	JSONWriterSink = internalaudit.JSONWriterSink
	// SlogSink logs events through a *slog.Logger.
	SlogSink = internalaudit.SlogSink
)

var (
	// NewChannelSink returns a ChannelSink with the given buffer.
	NewChannelSink = internalaudit.NewChannelSink
	// NewJSONWriterSink returns a sink writing to w.
	NewJSONWriterSink = internalaudit.NewJSONWriterSink
)
