package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-seat-booking/internal/service"
)

// BookingHandler serves the booking history and mobile ticket checks.
type BookingHandler struct {
	Bookings *service.BookingService
}

// List handles GET /v1/bookings?page=&per_page=. Missing or malformed
// values fall back to the defaults.
func (h *BookingHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	p, err := h.Bookings.List(c.Request().Context(), page, perPage)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	e, err := h.Bookings.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

// Cancel handles DELETE /v1/bookings/:id.
func (h *BookingHandler) Cancel(c echo.Context) error {
	e, err := h.Bookings.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

// VerifyTicket handles GET /v1/tickets/verify?token=.
func (h *BookingHandler) VerifyTicket(c echo.Context) error {
	token := strings.TrimSpace(c.QueryParam("token"))
	if token == "" {
		return badRequest(c, "token is required")
	}
	check, err := h.Bookings.VerifyTicket(c.Request().Context(), token)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, check)
}
