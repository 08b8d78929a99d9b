package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Check probes a dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// HealthHandler reports liveness plus the state of optional dependencies.
// Dependencies are informational only: the endpoint answers 200 as long as
// the process serves requests, since Redis, MySQL and RabbitMQ all degrade
// gracefully.
type HealthHandler struct {
	Checks map[string]Check
}

// Health handles GET /healthz.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string, len(h.Checks))
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			deps[name] = "down: " + err.Error()
			continue
		}
		deps[name] = "ok"
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "dependencies": deps})
}
