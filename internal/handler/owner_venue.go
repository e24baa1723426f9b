package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ndlovu/church-venue-hire/internal/repository"
)

// ListingHandler bundles the repositories churches use to manage their venue
// and equipment listings.
type ListingHandler struct {
	Venues    *repository.VenueRepo
	Equipment *repository.EquipmentRepo
}

func NewListingHandler(v *repository.VenueRepo, e *repository.EquipmentRepo) *ListingHandler {
	if v == nil || e == nil {
		panic("nil repository passed to NewListingHandler")
	}
	return &ListingHandler{Venues: v, Equipment: e}
}

type venueReq struct {
	Name            string   `json:"name"`
	Description     *string  `json:"description"`
	Capacity        *int64   `json:"capacity"`
	PricePerHour    float64  `json:"price_per_hour"`
	PricePerHalfDay *float64 `json:"price_per_half_day"`
	PricePerDay     *float64 `json:"price_per_day"`
	Address         *string  `json:"address"`
	City            *string  `json:"city"`
	Province        *string  `json:"province"`
	ZipCode         *string  `json:"zip_code"`
	Amenities       []string `json:"amenities"`
	Images          []string `json:"images"`
	IsAvailable     *bool    `json:"is_available"`
}

func (r *venueReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "name is required"
	}
	if r.PricePerHour <= 0 {
		return "price_per_hour must be positive"
	}
	if r.PricePerHalfDay != nil && *r.PricePerHalfDay <= 0 {
		return "price_per_half_day must be positive"
	}
	if r.PricePerDay != nil && *r.PricePerDay <= 0 {
		return "price_per_day must be positive"
	}
	if r.Capacity != nil && *r.Capacity <= 0 {
		return "capacity must be positive"
	}
	return ""
}

func (r *venueReq) toVenue(ownerID uint64) *repository.Venue {
	v := &repository.Venue{
		ChurchID:        ownerID,
		Name:            r.Name,
		Description:     r.Description,
		Capacity:        r.Capacity,
		PricePerHour:    r.PricePerHour,
		PricePerHalfDay: r.PricePerHalfDay,
		PricePerDay:     r.PricePerDay,
		Address:         r.Address,
		City:            r.City,
		Province:        r.Province,
		ZipCode:         r.ZipCode,
		Amenities:       r.Amenities,
		Images:          r.Images,
		IsAvailable:     true,
	}
	if r.IsAvailable != nil {
		v.IsAvailable = *r.IsAvailable
	}
	return v
}

// CreateVenue lists a new venue under the authenticated church.
func (h *ListingHandler) CreateVenue(c echo.Context) error {
	ownerID, err := getChurchID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req venueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v := req.toVenue(ownerID)
	if err := h.Venues.Create(ctx, v); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create venue failed"})
	}
	return c.JSON(http.StatusCreated, v)
}

// MyVenues lists all venues of the authenticated church.
func (h *ListingHandler) MyVenues(c echo.Context) error {
	ownerID, err := getChurchID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	venues, err := h.Venues.ListByOwner(ctx, ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, venues)
}

// UpdateVenue rewrites one of the church's venues.
func (h *ListingHandler) UpdateVenue(c echo.Context) error {
	ownerID, err := getChurchID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	var req venueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Venues.Update(ctx, id, ownerID, req.toVenue(ownerID)); err != nil {
		return venueErr(c, err, "update venue failed")
	}
	v, err := h.Venues.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, v)
}

// DeleteVenue removes one of the church's venues.  Venues that have bookings
// cannot be deleted; owners should mark them unavailable instead.
func (h *ListingHandler) DeleteVenue(c echo.Context) error {
	ownerID, err := getChurchID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Venues.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "venue has bookings; mark it unavailable instead"})
		}
		return venueErr(c, err, "delete venue failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func venueErr(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, repository.ErrVenueNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your venue"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
	}
}
