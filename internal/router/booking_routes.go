package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ndlovu/church-venue-hire/internal/handler"
	"github.com/ndlovu/church-venue-hire/internal/middleware"
)

// RegisterBookings registers the booking engine endpoints.  Every route
// requires a valid JWT; ownership checks happen in the handlers because a
// church can be booker and listing owner at the same time.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1/bookings", middleware.JWTAuth(jwtSecret))

	g.POST("", b.Create)
	g.GET("", b.ListMine)
	g.GET("/my-listings", b.ListForMyListings)
	g.GET("/:id", b.GetBooking)
	g.PUT("/:id/status", b.UpdateStatus)
	g.PATCH("/:id/status", b.UpdateStatus)
}

// RegisterAdmin registers the reporting endpoints restricted to platform
// administrators.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)
	g.GET("/stats", a.PlatformStats)
}
