package ports

import (
	"context"

	"github.com/brickworks/console/internal/core/domain"
)

// OrderFlow owns the in-memory order cache and the delivery toggle protocol.
type OrderFlow interface {
	// Refresh replaces the cache with the backend's current order list.
	Refresh(ctx context.Context) error
	Orders() []domain.Order
	Order(orderID int64) (domain.Order, bool)
	// ToggleDelivery always returns exactly one terminal outcome.
	ToggleDelivery(ctx context.Context, orderID, detailID int64, delivered bool) domain.Outcome
}
