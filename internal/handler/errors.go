package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-seat-booking/internal/booking"
	"github.com/iliyamo/cinema-seat-booking/internal/repository"
	"github.com/iliyamo/cinema-seat-booking/internal/service"
	"github.com/iliyamo/cinema-seat-booking/internal/utils"
)

// jsonError writes the common error body {"error": code, "message": text}
// plus any extra fields.
func jsonError(c echo.Context, status int, code, message string, extra echo.Map) error {
	body := echo.Map{"error": code, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(status, body)
}

func badRequest(c echo.Context, message string) error {
	return jsonError(c, http.StatusBadRequest, "invalid_request", message, nil)
}

// writeError maps domain errors to HTTP responses. Anything unknown is a 500
// and the cause is left to the request logger.
func writeError(c echo.Context, err error) error {
	var (
		limit    *booking.LimitError
		mismatch *booking.SelectionMismatchError
	)
	switch {
	case errors.As(err, &limit):
		return jsonError(c, http.StatusConflict, "selection_limit_reached",
			fmt.Sprintf("You can only select %d seat(s). Please deselect a seat first or increase your ticket count.", limit.Limit),
			echo.Map{"limit": limit.Limit})
	case errors.As(err, &mismatch):
		extra := echo.Map{"needed": mismatch.Needed, "selected": mismatch.Selected}
		if n := mismatch.Shortfall(); n > 0 {
			extra["missing"] = n
		} else {
			extra["excess"] = mismatch.Excess()
		}
		return jsonError(c, http.StatusUnprocessableEntity, "selection_mismatch",
			fmt.Sprintf("Please select exactly %d seat(s) to match your ticket count. Currently selected: %d seat(s)", mismatch.Needed, mismatch.Selected),
			extra)
	case errors.Is(err, booking.ErrEmptySelection):
		return jsonError(c, http.StatusUnprocessableEntity, "empty_selection", "Please select at least one seat", nil)
	case errors.Is(err, booking.ErrSessionClosed):
		return jsonError(c, http.StatusConflict, "session_closed", "booking session is no longer open", nil)
	case errors.Is(err, booking.ErrSeatNotFound):
		return jsonError(c, http.StatusNotFound, "seat_not_found", "seat not found", nil)
	case errors.Is(err, booking.ErrUnknownCategory):
		return jsonError(c, http.StatusBadRequest, "unknown_category", "category must be adult, child or senior", nil)
	case errors.Is(err, service.ErrSessionNotFound):
		return jsonError(c, http.StatusNotFound, "session_not_found", "booking session not found", nil)
	case errors.Is(err, repository.ErrTheaterNotFound):
		return jsonError(c, http.StatusNotFound, "theater_not_found", "theater not found", nil)
	case errors.Is(err, repository.ErrShowtimeNotFound):
		return jsonError(c, http.StatusNotFound, "showtime_not_found", "showtime not found", nil)
	case errors.Is(err, repository.ErrBookingNotFound):
		return jsonError(c, http.StatusNotFound, "booking_not_found", "booking not found", nil)
	case errors.Is(err, repository.ErrNotCancellable):
		return jsonError(c, http.StatusConflict, "not_cancellable", "this showtime does not allow cancellation", nil)
	case errors.Is(err, repository.ErrAlreadyCancelled):
		return jsonError(c, http.StatusConflict, "already_cancelled", "booking is already cancelled", nil)
	case errors.Is(err, service.ErrTicketRevoked):
		return jsonError(c, http.StatusUnauthorized, "ticket_revoked", "ticket belongs to a cancelled booking", nil)
	case errors.Is(err, utils.ErrInvalidTicket):
		return jsonError(c, http.StatusUnauthorized, "invalid_ticket", "ticket is invalid", nil)
	}
	c.Set("error", err)
	return jsonError(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
}
