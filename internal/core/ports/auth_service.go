package ports

import (
	"context"

	"github.com/brickworks/console/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (domain.Claims, error)
	Logout(ctx context.Context)
}
