package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// TheaterCatalog is the read side of the catalogue.
type TheaterCatalog interface {
	ListTheaters(ctx context.Context) ([]model.Theater, error)
	GetTheater(ctx context.Context, id uint64) (*model.Theater, error)
}

// TheaterHandler serves the theaters and showtimes a booking can be opened
// for. Responses are cacheable.
type TheaterHandler struct {
	Catalog TheaterCatalog
}

// List handles GET /v1/theaters.
func (h *TheaterHandler) List(c echo.Context) error {
	theaters, err := h.Catalog.ListTheaters(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": theaters})
}

// Get handles GET /v1/theaters/:id.
func (h *TheaterHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return badRequest(c, "invalid theater id")
	}
	t, err := h.Catalog.GetTheater(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}
