package middleware

import (
	"encoding/json"
	"net"
	"net/http"

	goAdmin "github.com/MrEthical07/goAdmin"
)

// Guard authenticates every request through engine. Allow-listed paths
// pass through without a principal. A renewed token is returned in the
// engine's renew header before next runs.
func Guard(engine *goAdmin.Engine) func(http.Handler) http.Handler {
	var tokenHeader, renewHeader string
	if engine != nil {
		cfg := engine.Config()
		tokenHeader = cfg.Auth.TokenHeader
		renewHeader = cfg.Auth.RenewHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, goAdmin.ErrEngineNotReady)
				return
			}

			ctx := goAdmin.WithClientIP(r.Context(), remoteIP(r))
			res, err := engine.Authenticate(ctx, r.URL.Path, r.Header.Get(tokenHeader))
			if err != nil {
				WriteError(w, err)
				return
			}

			if res.Outcome == goAdmin.OutcomeAuthenticated {
				if res.Renewed() {
					w.Header().Set(renewHeader, res.NewAccessToken)
				}
				ctx = goAdmin.WithPrincipal(ctx, res)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WriteError renders err as the JSON error envelope with its HTTP status.
func WriteError(w http.ResponseWriter, err error) {
	body, status := goAdmin.Fail(err)
	WriteJSON(w, status, body)
}

// WriteJSON writes v as a JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
