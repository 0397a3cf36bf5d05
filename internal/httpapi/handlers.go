package httpapi

import (
	"net/http"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/middleware"
	"github.com/MrEthical07/goAdmin/permission"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type meResponse struct {
	UserID      string   `json:"userId"`
	Username    string   `json:"username"`
	Email       string   `json:"email,omitempty"`
	Authorities []string `json:"authorities"`
}

// login returns the access token as the envelope data.
func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.GinAbort(c, goAdmin.ErrParamValidation)
		return
	}

	res, err := h.engine.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		middleware.GinAbort(c, err)
		return
	}
	c.JSON(http.StatusOK, goAdmin.Success(res.AccessToken))
}

func (h *handlers) logout(c *gin.Context) {
	p, ok := middleware.GinPrincipal(c)
	if !ok {
		middleware.GinAbort(c, goAdmin.ErrAuthentication)
		return
	}
	if err := h.engine.Revoke(c.Request.Context(), p.UserID); err != nil {
		middleware.GinAbort(c, err)
		return
	}
	c.JSON(http.StatusOK, goAdmin.Success("logged out"))
}

func (h *handlers) me(c *gin.Context) {
	p, ok := middleware.GinPrincipal(c)
	if !ok {
		middleware.GinAbort(c, goAdmin.ErrAuthentication)
		return
	}
	c.JSON(http.StatusOK, goAdmin.Success(meResponse{
		UserID:      p.UserID,
		Username:    p.Username,
		Email:       p.Email,
		Authorities: p.Authorities,
	}))
}

// revokeSession ends another user's session. Admins may revoke anyone;
// other users only themselves.
func (h *handlers) revokeSession(c *gin.Context) {
	p, ok := middleware.GinPrincipal(c)
	if !ok {
		middleware.GinAbort(c, goAdmin.ErrAuthentication)
		return
	}
	target := c.Param("userId")
	if !permission.CanAccess(permission.NewSet(p.Authorities), p.UserID, target) {
		middleware.GinAbort(c, goAdmin.ErrAuthorization)
		return
	}
	if err := h.engine.Revoke(c.Request.Context(), target); err != nil {
		middleware.GinAbort(c, err)
		return
	}
	h.logger.InfoContext(c.Request.Context(), "session revoked", "target_user_id", target, "by_user_id", p.UserID)
	c.JSON(http.StatusOK, goAdmin.Success(nil))
}

func (h *handlers) sayHello(c *gin.Context) {
	c.JSON(http.StatusOK, goAdmin.Success("anyone: hello"))
}

func (h *handlers) sayHelloAdmin(c *gin.Context) {
	c.JSON(http.StatusOK, goAdmin.Success("admin: hello"))
}

func (h *handlers) sayHelloUser(c *gin.Context) {
	c.JSON(http.StatusOK, goAdmin.Success("user: hello"))
}
