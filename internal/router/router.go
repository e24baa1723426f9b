// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ndlovu/church-venue-hire/internal/handler"
	"github.com/ndlovu/church-venue-hire/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication and no
// handler state.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes.  Unauthenticated
// operations live under /v1/auth; the profile endpoint lives under /v1 and
// requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout does not require JWT middleware: the handler accepts either a
	// bearer token (revoke all sessions) or a refresh_token body (revoke one).
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints.  The
// optional middlewares (typically the Redis response cache) wrap every
// route in the group.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, mws ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mws...)
	g.GET("/venues", p.ListVenues)
	g.GET("/venues/:id", p.GetVenue)
	g.GET("/equipment", p.ListEquipment)
	g.GET("/equipment/:id", p.GetEquipment)
	g.GET("/churches", p.ListChurches)
	g.GET("/provinces", p.ListProvinces)
}
