// Package router registers the HTTP routes of the booking API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-seat-booking/internal/handler"
)

// Handlers bundles everything the routes dispatch to.
type Handlers struct {
	Health   *handler.HealthHandler
	Theaters *handler.TheaterHandler
	Sessions *handler.SessionHandler
	Bookings *handler.BookingHandler
}

// RegisterRoutes maps every endpoint onto e. Catalogue reads go through
// cache, which may be a passthrough.
func RegisterRoutes(e *echo.Echo, h Handlers, cache echo.MiddlewareFunc) {
	e.GET("/healthz", h.Health.Health)

	v1 := e.Group("/v1")

	// The catalogue is static, so its reads are served from the response cache.
	theaters := v1.Group("/theaters", cache)
	theaters.GET("", h.Theaters.List)
	theaters.GET("/:id", h.Theaters.Get)

	sessions := v1.Group("/sessions")
	sessions.POST("", h.Sessions.Open)
	sessions.GET("/:id", h.Sessions.Get)
	sessions.POST("/:id/seats/:seat", h.Sessions.ToggleSeat)
	sessions.POST("/:id/tickets", h.Sessions.ChangeTickets)
	sessions.POST("/:id/confirm", h.Sessions.Confirm)
	sessions.DELETE("/:id", h.Sessions.Dismiss)

	bookings := v1.Group("/bookings")
	bookings.GET("", h.Bookings.List)
	bookings.GET("/:id", h.Bookings.Get)
	bookings.DELETE("/:id", h.Bookings.Cancel)

	v1.GET("/tickets/verify", h.Bookings.VerifyTicket)
}
