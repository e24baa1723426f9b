package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ndlovu/church-venue-hire/internal/handler"
	"github.com/ndlovu/church-venue-hire/internal/middleware"
)

// RegisterListings registers the endpoints churches use to manage their own
// venue and equipment listings.  All routes require a valid JWT; any church
// can list resources.
func RegisterListings(e *echo.Echo, l *handler.ListingHandler, jwtSecret string) {
	g := e.Group("/v1/my", middleware.JWTAuth(jwtSecret))

	// ---- Venues ----
	g.POST("/venues", l.CreateVenue)
	g.GET("/venues", l.MyVenues)
	g.PUT("/venues/:id", l.UpdateVenue)
	g.PATCH("/venues/:id", l.UpdateVenue)
	g.DELETE("/venues/:id", l.DeleteVenue)

	// ---- Equipment ----
	g.POST("/equipment", l.CreateEquipment)
	g.GET("/equipment", l.MyEquipment)
	g.PUT("/equipment/:id", l.UpdateEquipment)
	g.PATCH("/equipment/:id", l.UpdateEquipment)
	g.DELETE("/equipment/:id", l.DeleteEquipment)
}
