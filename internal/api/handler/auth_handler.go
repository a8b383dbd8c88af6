package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/brickworks/console/internal/api/metrics"
	"github.com/brickworks/console/internal/core/domain"
	"github.com/brickworks/console/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	guard       ports.SessionGuard
}

func NewAuthHandler(authService ports.AuthService, guard ports.SessionGuard) *AuthHandler {
	return &AuthHandler{authService: authService, guard: guard}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Active bool           `json:"active"`
	Role   string         `json:"role,omitempty"`
	Claims *domain.Claims `json:"claims,omitempty"`
}

// Login exchanges operator credentials for a backend session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	claims, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		} else {
			metrics.LoginsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, sessionResponse{Active: true, Role: claims.RoleName(), Claims: &claims})
}

// Logout discards the stored credential.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.authService.Logout(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// Session reports whether the console holds an active session.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	ctx := c.Request().Context()
	claims, ok := h.guard.CurrentClaims(ctx)
	if !ok || !h.guard.IsActive(ctx) {
		return c.JSON(http.StatusOK, sessionResponse{Active: false})
	}
	return c.JSON(http.StatusOK, sessionResponse{Active: true, Role: claims.RoleName(), Claims: &claims})
}
