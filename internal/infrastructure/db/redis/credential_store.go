package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/brickworks/console/internal/core/domain"
)

const defaultCredentialKey = "console:credential"

// CredentialStore keeps the credential in a single Redis key with no TTL;
// expiry is read from the token itself.
type CredentialStore struct {
	client *redis.Client
	key    string
}

// NewCredentialStore wraps client. An empty key selects defaultCredentialKey.
func NewCredentialStore(client *redis.Client, key string) *CredentialStore {
	if key == "" {
		key = defaultCredentialKey
	}
	return &CredentialStore{client: client, key: key}
}

func (s *CredentialStore) Load(ctx context.Context) (string, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrCredentialNotFound
		}
		return "", fmt.Errorf("credential get: %w", err)
	}
	return raw, nil
}

func (s *CredentialStore) Save(ctx context.Context, raw string) error {
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("credential set: %w", err)
	}
	return nil
}

func (s *CredentialStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("credential del: %w", err)
	}
	return nil
}
