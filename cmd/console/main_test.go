package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/brickworks/console/internal/core/domain"
	"github.com/brickworks/console/internal/infrastructure/queue"
)

type recordingRepo struct {
	mu       sync.Mutex
	attempts []domain.DeliveryAttempt
}

func (r *recordingRepo) InsertAttempt(_ context.Context, a *domain.DeliveryAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, *a)
	return nil
}

// fakeServer finishes one in-flight toggle while it is shutting down.
type fakeServer struct {
	closed     chan struct{}
	onShutdown func()
}

func (s *fakeServer) Start(string) error {
	<-s.closed
	return http.ErrServerClosed
}

func (s *fakeServer) Shutdown(context.Context) error {
	time.Sleep(20 * time.Millisecond)
	s.onShutdown()
	close(s.closed)
	return nil
}

func TestServe_AuditRecordsDuringShutdownAreWritten(t *testing.T) {
	repo := &recordingRepo{}
	d := queue.NewDispatcher(2, repo, zerolog.Nop())
	srv := &fakeServer{
		closed: make(chan struct{}),
		onShutdown: func() {
			d.Enqueue(domain.DeliveryAttempt{ID: "late", OrderID: 7, State: domain.MutationConfirmed})
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := serve(ctx, srv, ":0", d, zerolog.Nop()); err != nil {
		t.Fatalf("serve: %v", err)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.attempts) != 1 || repo.attempts[0].ID != "late" {
		t.Fatalf("expected the shutdown-time record to be written, got %+v", repo.attempts)
	}
}

func TestServe_StartErrorIsReturned(t *testing.T) {
	srv := &failingServer{}
	err := serve(context.Background(), srv, ":0", nil, zerolog.Nop())
	if err == nil || !errors.Is(err, errBind) {
		t.Fatalf("expected bind error, got %v", err)
	}
	if !srv.shutdown {
		t.Fatalf("expected shutdown after start failure")
	}
}

var errBind = errors.New("address already in use")

type failingServer struct {
	shutdown bool
}

func (s *failingServer) Start(string) error { return errBind }

func (s *failingServer) Shutdown(context.Context) error {
	s.shutdown = true
	return nil
}
