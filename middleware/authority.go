package middleware

import (
	"net/http"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/permission"
)

// RequireAuthority admits requests whose principal holds at least one of
// authorities. It must run after Guard. Requests without a principal get
// ErrAuthentication; a principal lacking every authority gets
// ErrAuthorization.
func RequireAuthority(authorities ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := checkAuthority(r, authorities); err != nil {
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole is RequireAuthority for role names; "ADMIN" matches ROLE_ADMIN.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := goAdmin.PrincipalFromContext(r.Context())
			if !ok {
				WriteError(w, goAdmin.ErrAuthentication)
				return
			}
			if !permission.NewSet(principal.Authorities).HasRole(role) {
				WriteError(w, goAdmin.ErrAuthorization)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func checkAuthority(r *http.Request, authorities []string) error {
	principal, ok := goAdmin.PrincipalFromContext(r.Context())
	if !ok {
		return goAdmin.ErrAuthentication
	}
	if len(authorities) == 0 {
		return nil
	}
	if !permission.NewSet(principal.Authorities).HasAny(authorities...) {
		return goAdmin.ErrAuthorization
	}
	return nil
}
