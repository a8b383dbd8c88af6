package ports

import "context"

// CredentialStore is the single persisted credential slot.
type CredentialStore interface {
	// Load returns domain.ErrCredentialNotFound when the slot is empty.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, raw string) error
	// Delete is idempotent.
	Delete(ctx context.Context) error
}
