package router

import (
	"github.com/labstack/echo/v4"

	"github.com/unilodge/unilodge-api/internal/handler"
	"github.com/unilodge/unilodge-api/internal/middleware"
	"github.com/unilodge/unilodge-api/internal/model"
)

// RegisterStudent wires the endpoints a signed-in house hunter uses:
// revealing landlord contacts, submitting payment confirmations, canceling
// pending ones and listing their own fee grants. Landlords get the same
// surface; they hunt for rooms too when relocating.
func RegisterStudent(e *echo.Echo, contact *handler.ContactHandler, pay *handler.PaymentHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStudent, model.RoleLandlord, model.RoleAdmin),
	)
	g.POST("/listings/:id/contact", contact.Reveal)
	g.POST("/payments/confirmations", pay.Submit)
	g.POST("/payments/confirmations/:id/cancel", pay.Cancel)
	g.GET("/my-grants", pay.MyGrants)
	g.GET("/my-grants/:id", pay.GrantDetail)
}
