// Package httpapi is the gin HTTP surface of the admin auth server.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/middleware"
	"github.com/gin-gonic/gin"
)

// Options wires the router. Metrics is mounted at /metrics outside the
// auth guard when non-nil.
type Options struct {
	Engine  *goAdmin.Engine
	Metrics http.Handler
	Logger  *slog.Logger
}

type handlers struct {
	engine *goAdmin.Engine
	logger *slog.Logger
}

// NewRouter builds the gin engine. Every route except /metrics passes
// through the auth guard; allow-listed paths are skipped by the engine.
func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.Engine == nil {
		return nil, errors.New("httpapi: engine is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &handlers{engine: opts.Engine, logger: logger}

	r := gin.New()
	r.Use(requestLogger(logger), recovery(logger))
	r.NoRoute(func(c *gin.Context) {
		middleware.GinAbort(c, goAdmin.ErrDataNotFound)
	})

	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	api := r.Group("/")
	api.Use(middleware.Gin(opts.Engine))
	api.POST("/login", h.login)
	api.GET("/logout", h.logout)
	api.POST("/logout", h.logout)
	api.GET("/me", h.me)
	api.DELETE("/sessions/:userId", h.revokeSession)

	demo := api.Group("/demo")
	demo.GET("/sayHello", h.sayHello)
	demo.GET("/admin/sayHello", middleware.GinRequireAuthority("admin"), h.sayHelloAdmin)
	demo.GET("/user/sayHello", middleware.GinRequireAuthority("common"), h.sayHelloUser)

	return r, nil
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.LogAttrs(c.Request.Context(), level, "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}

func recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.ErrorContext(c.Request.Context(), "handler panic", "panic", recovered, "path", c.Request.URL.Path)
		middleware.GinAbort(c, goAdmin.ErrSystem)
	})
}
