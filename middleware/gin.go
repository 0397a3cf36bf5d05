package middleware

import (
	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/permission"
	"github.com/gin-gonic/gin"
)

// PrincipalKey is the gin context key holding the *goAdmin.AuthResult.
const PrincipalKey = "goadmin.principal"

// Gin is Guard for gin routers. The principal is stored both under
// PrincipalKey and in the request context.
func Gin(engine *goAdmin.Engine) gin.HandlerFunc {
	var tokenHeader, renewHeader string
	if engine != nil {
		cfg := engine.Config()
		tokenHeader = cfg.Auth.TokenHeader
		renewHeader = cfg.Auth.RenewHeader
	}

	return func(c *gin.Context) {
		if engine == nil {
			abortWithError(c, goAdmin.ErrEngineNotReady)
			return
		}

		ctx := goAdmin.WithClientIP(c.Request.Context(), c.ClientIP())
		res, err := engine.Authenticate(ctx, c.Request.URL.Path, c.GetHeader(tokenHeader))
		if err != nil {
			abortWithError(c, err)
			return
		}

		if res.Outcome == goAdmin.OutcomeAuthenticated {
			if res.Renewed() {
				c.Header(renewHeader, res.NewAccessToken)
			}
			ctx = goAdmin.WithPrincipal(ctx, res)
			c.Set(PrincipalKey, res)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GinRequireAuthority is RequireAuthority for gin routers.
func GinRequireAuthority(authorities ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := checkAuthority(c.Request, authorities); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// GinPrincipal returns the principal set by Gin.
func GinPrincipal(c *gin.Context) (*goAdmin.AuthResult, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil, false
	}
	res, ok := v.(*goAdmin.AuthResult)
	return res, ok && res != nil
}

// GinAuthorities returns the principal's authority set, empty when
// the request carries no principal.
func GinAuthorities(c *gin.Context) permission.Set {
	res, ok := GinPrincipal(c)
	if !ok {
		return permission.NewSet(nil)
	}
	return permission.NewSet(res.Authorities)
}

// GinAbort renders err as the error envelope and stops the chain.
func GinAbort(c *gin.Context, err error) {
	abortWithError(c, err)
}

func abortWithError(c *gin.Context, err error) {
	body, status := goAdmin.Fail(err)
	c.AbortWithStatusJSON(status, body)
}
