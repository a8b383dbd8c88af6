package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/brickworks/console/internal/core/domain"
	"github.com/brickworks/console/internal/core/ports"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login calls the token issuance endpoint. It never sends the current
// credential, and a 401 here means bad credentials rather than a lost session.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("POST /auth/login: %w", err)
	}
	defer resp.Body.Close()

	var out loginResponse
	if err := decodeResponse(resp, &out); err != nil {
		var apiErr *ports.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("POST /auth/login: %w", domain.ErrInvalidCredentials)
	}
	return out.Token, nil
}
