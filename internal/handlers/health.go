package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/anonto42/nano-social/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

// HealthCheck reports liveness. ping, when set, checks the database.
func HealthCheck(ping func(context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				logger.WithSource("health").WithError(err).Warn("database ping failed")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"status":  "unavailable",
					"service": "nano-social",
				})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "nano-social",
		})
	}
}
