package queue

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/brickworks/console/internal/core/domain"
	"github.com/brickworks/console/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher writes delivery audit records off the request path. Records are
// sharded by order ID so the attempts of one order are stored in order.
type Dispatcher struct {
	workers []chan domain.DeliveryAttempt
	repo    ports.DeliveryAuditRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.DeliveryAuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.DeliveryAttempt, numWorkers),
		repo:    repo,
		log:     log.With().Str("component", "audit_dispatcher").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.DeliveryAttempt, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands a record to the worker owning its order. It never blocks: when
// that worker's buffer is full the record is dropped and logged.
func (d *Dispatcher) Enqueue(attempt domain.DeliveryAttempt) {
	select {
	case d.workers[d.shardIndex(attempt.OrderID)] <- attempt:
	default:
		d.log.Warn().
			Str("attempt_id", attempt.ID).
			Int64("order_id", attempt.OrderID).
			Msg("audit buffer full, record dropped")
	}
}

// shardIndex maps an order ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(orderID int64) int {
	n := int64(len(d.workers))
	return int(((orderID % n) + n) % n)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.DeliveryAttempt) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case attempt := <-ch:
			d.write(ctx, id, attempt)
		}
	}
}

// drain flushes what is already buffered once shutdown starts, using a fresh
// context so the writes are not cancelled with the parent.
func (d *Dispatcher) drain(id int, ch <-chan domain.DeliveryAttempt) {
	for {
		select {
		case attempt := <-ch:
			d.write(context.Background(), id, attempt)
		default:
			return
		}
	}
}

func (d *Dispatcher) write(ctx context.Context, id int, attempt domain.DeliveryAttempt) {
	if err := d.repo.InsertAttempt(ctx, &attempt); err != nil {
		d.log.Error().Err(err).
			Str("attempt_id", attempt.ID).
			Int64("order_id", attempt.OrderID).
			Int("worker_id", id).
			Msg("audit write failed")
	}
}
