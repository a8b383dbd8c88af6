package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/brickworks/console/internal/core/ports"
)

// RequireRole enforces role-based access by display name.
func RequireRole(guard ports.SessionGuard, allowedRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !guard.HasRole(c.Request().Context(), allowedRoles...) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
