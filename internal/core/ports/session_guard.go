package ports

import (
	"context"

	"github.com/brickworks/console/internal/core/domain"
)

// SessionGuard answers identity and authorization questions from the stored
// credential. None of its methods fail; problems degrade to "not authenticated".
type SessionGuard interface {
	SetCredential(ctx context.Context, raw string)
	Credential(ctx context.Context) (string, bool)
	ClearCredential(ctx context.Context)
	IsExpired(ctx context.Context) bool
	IsActive(ctx context.Context) bool
	CurrentClaims(ctx context.Context) (domain.Claims, bool)
	HasRole(ctx context.Context, allowed ...string) bool
}
