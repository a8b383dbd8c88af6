// Package credstore holds the process-local credential slot implementations.
package credstore

import (
	"context"
	"sync"

	"github.com/brickworks/console/internal/core/domain"
)

// MemoryStore keeps the credential for the lifetime of the process only.
type MemoryStore struct {
	mu  sync.Mutex
	raw string
	set bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return "", domain.ErrCredentialNotFound
	}
	return s.raw, nil
}

func (s *MemoryStore) Save(_ context.Context, raw string) error {
	s.mu.Lock()
	s.raw, s.set = raw, true
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context) error {
	s.mu.Lock()
	s.raw, s.set = "", false
	s.mu.Unlock()
	return nil
}
