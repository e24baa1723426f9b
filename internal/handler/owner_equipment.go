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

type equipmentReq struct {
	Name         string   `json:"name"`
	Description  *string  `json:"description"`
	Category     *string  `json:"category"`
	Quantity     int64    `json:"quantity"`
	PricePerHour float64  `json:"price_per_hour"`
	PricePerDay  *float64 `json:"price_per_day"`
	Images       []string `json:"images"`
	IsAvailable  *bool    `json:"is_available"`
}

func (r *equipmentReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "name is required"
	}
	if r.PricePerHour < 0 {
		return "price_per_hour must not be negative"
	}
	if r.PricePerDay != nil && *r.PricePerDay <= 0 {
		return "price_per_day must be positive"
	}
	if r.PricePerHour == 0 && r.PricePerDay == nil {
		return "price_per_hour or price_per_day is required"
	}
	if r.Quantity < 0 {
		return "quantity must not be negative"
	}
	if r.Quantity == 0 {
		r.Quantity = 1
	}
	return ""
}

func (r *equipmentReq) toEquipment(ownerID uint64) *repository.Equipment {
	e := &repository.Equipment{
		ChurchID:     ownerID,
		Name:         r.Name,
		Description:  r.Description,
		Category:     r.Category,
		Quantity:     r.Quantity,
		PricePerHour: r.PricePerHour,
		PricePerDay:  r.PricePerDay,
		Images:       r.Images,
		IsAvailable:  true,
	}
	if r.IsAvailable != nil {
		e.IsAvailable = *r.IsAvailable
	}
	return e
}

// CreateEquipment lists a new equipment item under the authenticated church.
func (h *ListingHandler) CreateEquipment(c echo.Context) error {
	ownerID, err := getChurchID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req equipmentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e := req.toEquipment(ownerID)
	if err := h.Equipment.Create(ctx, e); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create equipment failed"})
	}
	return c.JSON(http.StatusCreated, e)
}

// MyEquipment lists all equipment of the authenticated church.
func (h *ListingHandler) MyEquipment(c echo.Context) error {
	ownerID, err := getChurchID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Equipment.ListByOwner(ctx, ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, items)
}

// UpdateEquipment rewrites one of the church's equipment listings.
func (h *ListingHandler) UpdateEquipment(c echo.Context) error {
	ownerID, err := getChurchID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid equipment id"})
	}
	var req equipmentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Equipment.Update(ctx, id, ownerID, req.toEquipment(ownerID)); err != nil {
		return equipmentErr(c, err, "update equipment failed")
	}
	e, err := h.Equipment.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, e)
}

// DeleteEquipment removes one of the church's equipment listings.
func (h *ListingHandler) DeleteEquipment(c echo.Context) error {
	ownerID, err := getChurchID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid equipment id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Equipment.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "equipment has bookings; mark it unavailable instead"})
		}
		return equipmentErr(c, err, "delete equipment failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func equipmentErr(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, repository.ErrEquipmentNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "equipment not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your equipment"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
	}
}
