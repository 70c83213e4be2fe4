package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/unilodge/unilodge-api/internal/handler"
	"github.com/unilodge/unilodge-api/internal/middleware"
	"github.com/unilodge/unilodge-api/internal/model"
)

// RegisterRoutes registers routes that carry no authentication at all.
// Currently that is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the /v1/auth group (register, login, refresh, logout)
// plus the protected /v1/me profile endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// logout takes the refresh token in the body, so no JWT is required
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleStudent, model.RoleLandlord, model.RoleAdmin))
	auth.GET("/me", a.Me)
	auth.POST("/logout-all", a.LogoutAll)
}

// RegisterPublic wires the unauthenticated browse endpoints. Search and
// detail run behind the supplied middlewares (rate limiter first, then the
// response cache) so anonymous traffic cannot hammer the catalog queries.
func RegisterPublic(e *echo.Echo, l *handler.ListingHandler, mws ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mws...)
	g.GET("/listings", l.Search)
	g.GET("/listings/:id", l.Detail)
	g.GET("/universities", l.ListUniversities)
}
