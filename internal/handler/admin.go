package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ndlovu/church-venue-hire/internal/repository"
)

// AdminHandler serves the platform reporting endpoints.  Routes using it are
// wrapped with RequireRole("ADMIN").
type AdminHandler struct {
	Stats *repository.StatsRepo
}

func NewAdminHandler(s *repository.StatsRepo) *AdminHandler {
	if s == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Stats: s}
}

// PlatformStats returns marketplace-wide counts and revenue.
func (h *AdminHandler) PlatformStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Stats.Snapshot(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, stats)
}
