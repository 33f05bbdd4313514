package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-reservation/internal/config"
	"github.com/iliyamo/theatre-reservation/internal/handler"
	"github.com/iliyamo/theatre-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication:
// liveness, readiness and uploaded media.
func RegisterRoutes(e *echo.Echo, db *sql.DB, media config.MediaConfig) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.Static(media.URLPrefix, media.Root)
}

// RegisterAuth registers the account endpoints under /api/user.  Register,
// login and refresh are public; profile and logout need an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/user", limiter)
	g.POST("/register", a.Register)
	g.POST("/token", a.Login)
	// rotates the refresh token
	g.POST("/token/refresh", a.Refresh)

	auth := g.Group("", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.PATCH("/me", a.UpdateMe)
	auth.POST("/logout", a.Logout)
}
