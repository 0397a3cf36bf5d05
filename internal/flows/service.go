package flows

import (
	"context"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Authenticate.Verify != nil && s.deps.Authenticate.Store != nil
}

func (s Service) Login(ctx context.Context, req LoginRequest) LoginResult {
	return RunLogin(ctx, req, s.deps.Login)
}

func (s Service) Authenticate(ctx context.Context, req AuthenticateRequest) AuthenticateResult {
	return RunAuthenticate(ctx, req, s.deps.Authenticate)
}

func (s Service) Revoke(ctx context.Context, userID string) error {
	return RunRevoke(ctx, userID, s.deps.Revoke)
}

func (s Service) LogoutByToken(ctx context.Context, token string) LogoutByTokenResult {
	return RunLogoutByToken(ctx, token, s.deps.Revoke)
}
