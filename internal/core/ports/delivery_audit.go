package ports

import (
	"context"

	"github.com/brickworks/console/internal/core/domain"
)

// DeliveryAuditRepository persists toggle outcomes.
type DeliveryAuditRepository interface {
	InsertAttempt(ctx context.Context, attempt *domain.DeliveryAttempt) error
}

// AuditSink accepts audit records without blocking the caller on storage.
type AuditSink interface {
	Enqueue(attempt domain.DeliveryAttempt)
}
