package ports

import (
	"context"
	"fmt"

	"github.com/brickworks/console/internal/core/domain"
)

// ToggleResult is the backend's answer to a successful delivery toggle.
type ToggleResult struct {
	OrderCompleted bool
}

// OrderAPI is the backend order surface consumed by the reconciliation flow.
type OrderAPI interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
	ToggleDelivery(ctx context.Context, orderID, detailID int64, delivered bool) (ToggleResult, error)
}

// TokenIssuer exchanges user credentials for a bearer token.
type TokenIssuer interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Code    string // machine-readable code, when the backend sends one
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded %d", e.Status)
	}
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}
