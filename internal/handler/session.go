package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-seat-booking/internal/booking"
	"github.com/iliyamo/cinema-seat-booking/internal/service"
)

// SessionHandler exposes booking dialogs over HTTP. A client opens a
// session, toggles seats and ticket counts, confirms and finally dismisses
// it, which stores the booking.
type SessionHandler struct {
	Sessions *service.SessionManager
}

type openSessionRequest struct {
	TheaterID  uint64 `json:"theater_id"`
	ShowtimeID uint64 `json:"showtime_id"`
	DateLabel  string `json:"date_label"`
}

type ticketChangeRequest struct {
	Category string `json:"category"`
	Delta    int    `json:"delta"`
}

// Open handles POST /v1/sessions.
func (h *SessionHandler) Open(c echo.Context) error {
	var req openSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.TheaterID == 0 || req.ShowtimeID == 0 {
		return badRequest(c, "theater_id and showtime_id are required")
	}
	v, err := h.Sessions.Open(c.Request().Context(), service.OpenRequest{
		TheaterID:  req.TheaterID,
		ShowtimeID: req.ShowtimeID,
		DateLabel:  strings.TrimSpace(req.DateLabel),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// Get handles GET /v1/sessions/:id.
func (h *SessionHandler) Get(c echo.Context) error {
	v, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// ToggleSeat handles POST /v1/sessions/:id/seats/:seat. Seat ids are
// case-insensitive.
func (h *SessionHandler) ToggleSeat(c echo.Context) error {
	seat := strings.ToUpper(strings.TrimSpace(c.Param("seat")))
	res, v, err := h.Sessions.ToggleSeat(c.Param("id"), seat)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"result": res.String(), "session": v})
}

// ChangeTickets handles POST /v1/sessions/:id/tickets. Delta is limited to
// a single step.
func (h *SessionHandler) ChangeTickets(c echo.Context) error {
	var req ticketChangeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	// The seat map only ever steps a count up or down by one.
	if req.Delta < -1 || req.Delta > 1 {
		return badRequest(c, "delta must be -1, 0 or 1")
	}
	category, err := booking.ParseCategory(strings.ToLower(strings.TrimSpace(req.Category)))
	if err != nil {
		return writeError(c, err)
	}
	v, err := h.Sessions.ChangeTicketCount(c.Param("id"), category, req.Delta)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Confirm handles POST /v1/sessions/:id/confirm.
func (h *SessionHandler) Confirm(c echo.Context) error {
	rec, err := h.Sessions.Confirm(c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

// Dismiss handles DELETE /v1/sessions/:id. A confirmed session answers with
// the stored booking, anything else with 204.
func (h *SessionHandler) Dismiss(c echo.Context) error {
	entry, err := h.Sessions.Dismiss(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	if entry == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, entry)
}
