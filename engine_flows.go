package goAdmin

import (
	"context"
	"errors"
	"sync"

	internalflows "github.com/MrEthical07/goAdmin/internal/flows"
	"github.com/MrEthical07/goAdmin/jwt"
	"github.com/MrEthical07/goAdmin/password"
)

// dummyPassword is hashed once and compared against for unknown usernames.
const dummyPassword = "goadmin-dummy-password"

func (e *Engine) buildFlows() internalflows.Service {
	return internalflows.New(internalflows.Deps{
		Login:        e.loginFlowDeps(),
		Authenticate: e.authenticateFlowDeps(),
		Revoke:       e.revokeFlowDeps(),
	})
}

func (e *Engine) issueAccess(subject string) (jwt.Token, error) {
	return e.jwtManager.Issue(subject, e.config.Token.AccessLifetime)
}

func (e *Engine) authenticateFlowDeps() internalflows.AuthenticateDeps {
	return internalflows.AuthenticateDeps{
		IsAllowListed: e.IsAllowListed,
		Verify:        e.jwtManager.Verify,
		IssueAccess:   e.issueAccess,
		Store:         e.store,
		SessionTTL:    e.config.Session.TTL,
		Now:           e.now,
	}
}

func (e *Engine) loginFlowDeps() internalflows.LoginDeps {
	deps := internalflows.LoginDeps{
		FindPrincipal: func(ctx context.Context, username string) (internalflows.LoginPrincipal, error) {
			p, err := e.directory.FindPrincipalByUsername(ctx, username)
			if err != nil {
				return internalflows.LoginPrincipal{}, err
			}
			return internalflows.LoginPrincipal{
				UserID:       p.UserID,
				Username:     p.Username,
				Email:        p.Email,
				PasswordHash: p.PasswordHash,
			}, nil
		},
		LoadAuthorities: e.directory.LoadAuthorities,
		IsNotFound: func(err error) bool {
			return errors.Is(err, ErrPrincipalNotFound)
		},
		Matches:     e.matcher.Matches,
		IssueAccess: e.issueAccess,
		Store:       e.store,
		SessionTTL:  e.config.Session.TTL,
		Now:         e.now,
		Warn: func(msg string, args ...any) {
			e.logger.Warn(msg, args...)
		},
	}

	if hasher, ok := e.matcher.(password.Hasher); ok {
		deps.DummyHash = sync.OnceValue(func() string {
			hash, err := hasher.Hash(dummyPassword)
			if err != nil {
				return ""
			}
			return hash
		})
	}

	if e.rateLimiter != nil {
		deps.CheckLoginRate = e.rateLimiter.CheckLogin
		deps.IncrementLoginRate = e.rateLimiter.IncrementLogin
		deps.ResetLoginRate = e.rateLimiter.ResetLogin
	}

	return deps
}

func (e *Engine) revokeFlowDeps() internalflows.RevokeDeps {
	return internalflows.RevokeDeps{
		Verify: e.jwtManager.Verify,
		Store:  e.store,
	}
}
