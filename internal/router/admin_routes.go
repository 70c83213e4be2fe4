package router

import (
	"github.com/labstack/echo/v4"

	"github.com/unilodge/unilodge-api/internal/handler"
	"github.com/unilodge/unilodge-api/internal/middleware"
	"github.com/unilodge/unilodge-api/internal/model"
)

// RegisterAdmin wires the review queue for payment confirmations. Only
// admins may list pending confirmations or settle them.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/confirmations", a.Pending)
	g.POST("/confirmations/:id/approve", a.Approve)
	g.POST("/confirmations/:id/decline", a.Decline)
}
