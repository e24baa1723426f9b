// This file defines handlers for the public browsing API. These routes let
// unauthenticated visitors browse venues, equipment and the church directory.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ndlovu/church-venue-hire/internal/repository"
)

// PublicHandler bundles repositories used by the unauthenticated browse
// endpoints.
type PublicHandler struct {
	Venues    *repository.VenueRepo
	Equipment *repository.EquipmentRepo
	Churches  *repository.ChurchRepo
}

func NewPublicHandler(v *repository.VenueRepo, e *repository.EquipmentRepo, ch *repository.ChurchRepo) *PublicHandler {
	if v == nil || e == nil || ch == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Venues: v, Equipment: e, Churches: ch}
}

// southAfricanProvinces is the fallback list served when no venue has a
// province on record yet.
var southAfricanProvinces = []string{
	"Eastern Cape",
	"Free State",
	"Gauteng",
	"KwaZulu-Natal",
	"Limpopo",
	"Mpumalanga",
	"North West",
	"Northern Cape",
	"Western Cape",
}

// ListVenues returns available venues, optionally filtered by city,
// province, minimum capacity and maximum hourly price.
func (h *PublicHandler) ListVenues(c echo.Context) error {
	f := repository.VenueFilter{
		City:     strings.TrimSpace(c.QueryParam("city")),
		Province: strings.TrimSpace(c.QueryParam("province")),
	}
	if raw := c.QueryParam("min_capacity"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid min_capacity"})
		}
		f.MinCapacity = &n
	}
	if raw := c.QueryParam("max_price"); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil || p < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid max_price"})
		}
		f.MaxPrice = &p
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	venues, err := h.Venues.ListAvailable(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, venues)
}

// GetVenue returns a single venue with the owning church's contact details.
func (h *PublicHandler) GetVenue(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v, err := h.Venues.GetByID(ctx, id)
	if err != nil {
		return venueErr(c, err, "query failed")
	}
	return c.JSON(http.StatusOK, v)
}

// ListEquipment returns available equipment, optionally filtered by
// category, owner location and maximum hourly price.
func (h *PublicHandler) ListEquipment(c echo.Context) error {
	f := repository.EquipmentFilter{
		Category: strings.TrimSpace(c.QueryParam("category")),
		City:     strings.TrimSpace(c.QueryParam("city")),
		Province: strings.TrimSpace(c.QueryParam("province")),
	}
	if raw := c.QueryParam("max_price"); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil || p < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid max_price"})
		}
		f.MaxPrice = &p
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Equipment.ListAvailable(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, items)
}

// GetEquipment returns a single equipment listing with owner contact.
func (h *PublicHandler) GetEquipment(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid equipment id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.Equipment.GetByID(ctx, id)
	if err != nil {
		return equipmentErr(c, err, "query failed")
	}
	return c.JSON(http.StatusOK, e)
}

// ListChurches returns the public church directory ordered by name.
func (h *PublicHandler) ListChurches(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	churches, err := h.Churches.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, churches)
}

// ListProvinces returns the provinces venues are listed in, falling back to
// the nine South African provinces while the marketplace is still empty.
func (h *PublicHandler) ListProvinces(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	provinces, err := h.Venues.DistinctProvinces(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if len(provinces) == 0 {
		provinces = southAfricanProvinces
	}
	return c.JSON(http.StatusOK, echo.Map{"provinces": provinces})
}
