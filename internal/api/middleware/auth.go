package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/brickworks/console/internal/core/ports"
)

// RequireSession lets the request through only while the console holds an
// active session. The session is re-read from the guard on every request.
func RequireSession(guard ports.SessionGuard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !guard.IsActive(c.Request().Context()) {
				return echo.NewHTTPError(http.StatusUnauthorized, "session inactive")
			}
			return next(c)
		}
	}
}
