package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brickworks/console/internal/core/domain"
	"github.com/brickworks/console/internal/core/ports"
)

// mutation is one optimistic toggle. The snapshot is taken when the mutation
// enters Pending and is never modified afterwards.
type mutation struct {
	state    domain.MutationState
	snapshot []domain.Order
}

// OrderFlow keeps the cached order list consistent with delivery toggles
// made against the backend.
//
// Toggles on different rows may run concurrently and no lock is held across
// the network call. A failing toggle restores the whole list as it was when
// that toggle started, which silently discards any toggle confirmed in the
// meantime. Callers that need stronger guarantees should Refresh after a
// rollback.
type OrderFlow struct {
	api         ports.OrderAPI
	guard       ports.SessionGuard
	cache       *OrderCache
	audit       ports.AuditSink
	onCompleted func(orderID int64)
	now         func() time.Time
	log         zerolog.Logger
}

// NewOrderFlow wires the flow. audit may be nil.
func NewOrderFlow(api ports.OrderAPI, guard ports.SessionGuard, audit ports.AuditSink, log zerolog.Logger) *OrderFlow {
	return &OrderFlow{
		api:   api,
		guard: guard,
		cache: NewOrderCache(),
		audit: audit,
		now:   time.Now,
		log:   log.With().Str("component", "order_flow").Logger(),
	}
}

// OnOrderCompleted registers fn to be called once for every toggle that the
// backend reports as completing its order.
func (f *OrderFlow) OnOrderCompleted(fn func(orderID int64)) {
	f.onCompleted = fn
}

func (f *OrderFlow) Refresh(ctx context.Context) error {
	orders, err := f.api.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("refresh orders: %w", err)
	}
	f.cache.Replace(orders)
	f.log.Debug().Int("orders", len(orders)).Msg("order cache refreshed")
	return nil
}

func (f *OrderFlow) Orders() []domain.Order {
	return f.cache.Snapshot()
}

func (f *OrderFlow) Order(orderID int64) (domain.Order, bool) {
	return f.cache.Find(orderID)
}

// ToggleDelivery sets the delivered flag of one line. The cache is written
// before the backend answers; a refusal restores the pre-call list.
func (f *OrderFlow) ToggleDelivery(ctx context.Context, orderID, detailID int64, delivered bool) domain.Outcome {
	out := domain.Outcome{OrderID: orderID, DetailID: detailID, Requested: delivered}

	claims, ok := f.guard.CurrentClaims(ctx)
	if !ok || !f.guard.IsActive(ctx) {
		return f.finish(rejected(out, domain.ConditionUnknownFailure, sessionEndedMessage, domain.ErrSessionInactive), "")
	}
	actor := claims.Email

	// Unknown orders cannot be checked locally; the backend decides.
	if order, ok := f.cache.Find(orderID); ok && order.Status == domain.OrderCancelled {
		c := domain.ConditionOrderCancelled
		return f.finish(rejected(out, c, c.Message(), nil), actor)
	}

	m := mutation{state: domain.MutationPending, snapshot: f.cache.Snapshot()}
	f.cache.SetDelivered(orderID, detailID, delivered)

	res, err := f.api.ToggleDelivery(ctx, orderID, detailID, delivered)
	if err != nil {
		f.cache.Restore(m.snapshot)
		m.state = domain.MutationRolledBack

		cond, msg := Classify(err)
		out.State = m.state
		out.Condition = cond
		out.Message = msg
		out.Err = err
		return f.finish(out, actor)
	}

	m.state = domain.MutationConfirmed
	out.State = m.state
	if res.OrderCompleted {
		f.cache.SetStatus(orderID, domain.OrderDelivered)
		out.OrderCompleted = true
		if f.onCompleted != nil {
			f.onCompleted(orderID)
		}
	}
	return f.finish(out, actor)
}

// rejected marks a toggle refused before any local write.
func rejected(out domain.Outcome, c domain.Condition, msg string, err error) domain.Outcome {
	out.State = domain.MutationRejected
	out.Condition = c
	out.Message = msg
	out.Err = err
	return out
}

func (f *OrderFlow) finish(out domain.Outcome, actor string) domain.Outcome {
	ev := f.log.Info()
	if !out.Confirmed() {
		ev = f.log.Warn().Err(out.Err)
	}
	ev.Int64("order_id", out.OrderID).
		Int64("detail_id", out.DetailID).
		Bool("delivered", out.Requested).
		Str("state", string(out.State)).
		Str("condition", string(out.Condition)).
		Bool("order_completed", out.OrderCompleted).
		Msg("delivery toggle finished")

	if f.audit != nil {
		f.audit.Enqueue(domain.DeliveryAttempt{
			ID:             uuid.NewString(),
			OrderID:        out.OrderID,
			DetailID:       out.DetailID,
			Requested:      out.Requested,
			State:          out.State,
			Condition:      out.Condition,
			OrderCompleted: out.OrderCompleted,
			Actor:          actor,
			Message:        out.Message,
			At:             f.now().UTC(),
		})
	}
	return out
}
