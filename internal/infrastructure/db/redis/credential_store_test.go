package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/brickworks/console/internal/core/domain"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCredentialStore_Lifecycle(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewCredentialStore(client, "")
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound, got %v", err)
	}

	if err := store.Save(ctx, "h.p.s"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got, err := mr.Get(defaultCredentialKey); err != nil || got != "h.p.s" {
		t.Fatalf("redis value = %q, %v", got, err)
	}
	if ttl := mr.TTL(defaultCredentialKey); ttl != 0 {
		t.Fatalf("expected no TTL, got %v", ttl)
	}
	if got, err := store.Load(ctx); err != nil || got != "h.p.s" {
		t.Fatalf("Load = %q, %v", got, err)
	}

	if err := store.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if mr.Exists(defaultCredentialKey) {
		t.Fatalf("expected key removed")
	}
}

func TestCredentialStore_CustomKey(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewCredentialStore(client, "plant-2:credential")

	if err := store.Save(context.Background(), "a.b.c"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !mr.Exists("plant-2:credential") {
		t.Fatalf("expected custom key to be used")
	}
}

func TestCredentialStore_ServerDown(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewCredentialStore(client, "")
	mr.Close()

	_, err := store.Load(context.Background())
	if err == nil || errors.Is(err, domain.ErrCredentialNotFound) {
		t.Fatalf("expected a transport error, got %v", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := Connect(context.Background(), Config{Addr: addr}); err == nil {
		t.Fatalf("expected ping failure")
	}
}
