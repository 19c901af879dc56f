// Package bridge implements the order-lifecycle engine that sits between
// callers and a brokerage client: it assigns order identifiers, drives
// status transitions, mirrors account and position state, translates
// historical bars into ticks, and pushes every change to subscribers over
// event buses. The bridge is the sole writer of order state.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"tradebridge/internal/broker"
	"tradebridge/internal/domain"
	"tradebridge/internal/event"
	"tradebridge/internal/store"
)

// DefaultCallTimeout bounds each broker round-trip issued by the bridge.
const DefaultCallTimeout = 15 * time.Second

// Options configures a Bridge.
type Options struct {
	// Bars, when set, receives write-through copies of fetched price
	// history. Optional.
	Bars store.BarStore

	// CallTimeout bounds each broker call. Zero means DefaultCallTimeout.
	CallTimeout time.Duration

	// NextID overrides the order id generator. When nil the bridge uses an
	// internal atomic counter starting at 1.
	NextID func() int64

	Logger *slog.Logger
}

// Bridge owns the order registry and the two event buses. Lifecycle
// transitions are serialized by an internal mutex so no two transitions for
// the same order ever interleave.
type Bridge struct {
	client broker.Client

	registry *Registry
	events   *event.Bus // order, account, and position events
	ticks    *event.Bus // market-data ticks

	bars        store.BarStore
	callTimeout time.Duration
	nextID      func() int64

	// mu serializes all lifecycle transitions.
	mu sync.Mutex

	accountMu sync.RWMutex
	account   domain.AccountSummary

	log *slog.Logger
}

// New creates a Bridge over the given broker client.
func New(client broker.Client, opts Options) *Bridge {
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	nextID := opts.NextID
	if nextID == nil {
		var counter atomic.Int64
		nextID = func() int64 { return counter.Add(1) }
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Bridge{
		client:      client,
		registry:    NewRegistry(),
		events:      event.NewBus(),
		ticks:       event.NewBus(),
		bars:        opts.Bars,
		callTimeout: timeout,
		nextID:      nextID,
		account: domain.AccountSummary{
			Brokerage: client.Name(),
		},
		log: logger.With("component", "bridge", "brokerage", client.Name()),
	}
}

// Events returns the bus carrying OrderUpdate, OrderError,
// AccountSummaryUpdate, and PositionUpdate events.
func (b *Bridge) Events() *event.Bus { return b.events }

// Ticks returns the dedicated market-data bus carrying Tick events.
func (b *Bridge) Ticks() *event.Bus { return b.ticks }

// Registry returns the order registry for read access.
func (b *Bridge) Registry() *Registry { return b.registry }

// Connect logs session establishment. Credential exchange is handled by the
// broker client itself.
func (b *Bridge) Connect() {
	b.log.Info("bridge connected")
}

// Disconnect logs session teardown and closes both event buses.
func (b *Bridge) Disconnect() {
	b.log.Info("bridge disconnected")
	b.events.Close()
	b.ticks.Close()
}

// callCtx derives a bounded context for a single broker round-trip.
func (b *Bridge) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.callTimeout)
}

// validate checks an order request before any identifier is consumed.
func validate(req domain.OrderRequest) error {
	if req.Symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidOrder)
	}
	if req.Size == 0 {
		return fmt.Errorf("%w: zero size", ErrInvalidOrder)
	}
	switch req.Type {
	case domain.OrderTypeMarket, domain.OrderTypeLimit, domain.OrderTypeStop, domain.OrderTypeStopLimit:
	default:
		return fmt.Errorf("%w: unknown order type %q", ErrInvalidOrder, req.Type)
	}
	if req.Type.NeedsLimitPrice() && req.LimitPrice <= 0 {
		return fmt.Errorf("%w: %s order requires a limit price", ErrInvalidOrder, req.Type)
	}
	if !req.Type.NeedsLimitPrice() && req.LimitPrice != 0 {
		return fmt.Errorf("%w: %s order must not carry a limit price", ErrInvalidOrder, req.Type)
	}
	if req.Type.NeedsStopPrice() && req.StopPrice <= 0 {
		return fmt.Errorf("%w: %s order requires a stop price", ErrInvalidOrder, req.Type)
	}
	if !req.Type.NeedsStopPrice() && req.StopPrice != 0 {
		return fmt.Errorf("%w: %s order must not carry a stop price", ErrInvalidOrder, req.Type)
	}
	return nil
}

// Submit validates req, registers it under a fresh identifier, emits the
// acknowledged order, and places it with the brokerage.
//
// Validation failures return ErrInvalidOrder before any identifier is
// consumed. A broker placement failure does NOT roll the order back: the
// local ACKNOWLEDGED status records receipt, not broker acceptance. The
// failure is recorded on the order, emitted as an OrderError event, and
// returned alongside the id so the caller can decide whether to reconcile.
func (b *Bridge) Submit(ctx context.Context, req domain.OrderRequest) (int64, error) {
	if err := validate(req); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now().UTC()
	order := domain.Order{
		ID:            b.nextID(),
		Symbol:        req.Symbol,
		Size:          req.Size,
		Type:          req.Type,
		LimitPrice:    req.LimitPrice,
		StopPrice:     req.StopPrice,
		Status:        domain.OrderStatusAcknowledged,
		ClientOrderID: uuid.NewString(),
		SubmittedAt:   now,
		UpdatedAt:     now,
	}
	b.registry.Put(order)
	b.events.Publish(order)

	b.log.Info("order submitted",
		"order_id", order.ID,
		"symbol", order.Symbol,
		"size", order.Size,
		"type", order.Type,
	)

	callCtx, cancel := b.callCtx(ctx)
	defer cancel()

	placed, err := b.client.PlaceOrder(callCtx, broker.OrderPlacement{
		Symbol:        order.Symbol,
		Qty:           order.Quantity(),
		Side:          order.Side(),
		Type:          order.Type,
		LimitPrice:    order.LimitPrice,
		StopPrice:     order.StopPrice,
		ClientOrderID: order.ClientOrderID,
	})
	if err != nil {
		b.log.Warn("order placement failed, broker-side fate unknown",
			"order_id", order.ID, "error", err)
		b.registry.Update(order.ID, func(o *domain.Order) {
			o.SubmitError = err.Error()
			o.UpdatedAt = time.Now().UTC()
		})
		b.events.Publish(domain.OrderError{
			OrderID: order.ID,
			Op:      "place",
			Reason:  err.Error(),
			At:      time.Now().UTC(),
		})
		return order.ID, fmt.Errorf("placing order %d: %w", order.ID, err)
	}

	b.registry.Update(order.ID, func(o *domain.Order) {
		o.BrokerOrderID = placed.BrokerOrderID
		o.UpdatedAt = time.Now().UTC()
	})
	return order.ID, nil
}

// Cancel requests cancellation of the order with the given id.
//
// An unknown id returns ErrOrderNotFound without touching any state. An
// order already in a terminal state is a no-op returning nil; cancel is
// idempotent. A broker failure leaves the status unchanged and emits an
// OrderError event.
func (b *Bridge) Cancel(ctx context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.registry.Get(id)
	if !ok {
		b.log.Warn("cancel for unknown order id", "order_id", id)
		return fmt.Errorf("cancel order %d: %w", id, ErrOrderNotFound)
	}
	if order.Status.Terminal() {
		b.log.Debug("cancel on terminal order is a no-op",
			"order_id", id, "status", order.Status)
		return nil
	}

	callCtx, cancel := b.callCtx(ctx)
	defer cancel()

	if err := b.client.CancelOrder(callCtx, order.BrokerOrderID); err != nil {
		b.log.Warn("order cancel failed", "order_id", id, "error", err)
		b.events.Publish(domain.OrderError{
			OrderID: id,
			Op:      "cancel",
			Reason:  err.Error(),
			At:      time.Now().UTC(),
		})
		return fmt.Errorf("canceling order %d: %w", id, err)
	}

	updated, _ := b.registry.Update(id, func(o *domain.Order) {
		o.Status = domain.OrderStatusCanceled
		o.UpdatedAt = time.Now().UTC()
	})
	b.events.Publish(updated)
	b.log.Info("order canceled", "order_id", id)
	return nil
}

// ApplyFill records fill feedback for an order: cumulative filled quantity
// and average price. The order moves to PARTIALLY_FILLED, or FILLED once the
// full quantity is done. Fills against unknown ids return ErrOrderNotFound;
// fills against terminal orders are ignored.
func (b *Bridge) ApplyFill(id int64, filledQty int64, avgPrice float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.registry.Get(id)
	if !ok {
		return fmt.Errorf("fill for order %d: %w", id, ErrOrderNotFound)
	}
	if order.Status.Terminal() {
		b.log.Debug("fill for terminal order ignored",
			"order_id", id, "status", order.Status)
		return nil
	}

	updated, _ := b.registry.Update(id, func(o *domain.Order) {
		o.FilledQty = filledQty
		o.AvgFillPrice = avgPrice
		if filledQty >= o.Quantity() {
			o.Status = domain.OrderStatusFilled
		} else {
			o.Status = domain.OrderStatusPartiallyFilled
		}
		o.UpdatedAt = time.Now().UTC()
	})
	b.events.Publish(updated)
	b.log.Info("order fill applied",
		"order_id", id, "filled_qty", filledQty, "status", updated.Status)
	return nil
}

// MarkRejected records a broker-side rejection for an order. Rejections
// against terminal orders are ignored.
func (b *Bridge) MarkRejected(id int64, reason string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.registry.Get(id)
	if !ok {
		return fmt.Errorf("rejection for order %d: %w", id, ErrOrderNotFound)
	}
	if order.Status.Terminal() {
		return nil
	}

	updated, _ := b.registry.Update(id, func(o *domain.Order) {
		o.Status = domain.OrderStatusRejected
		o.SubmitError = reason
		o.UpdatedAt = time.Now().UTC()
	})
	b.events.Publish(updated)
	b.log.Info("order rejected", "order_id", id, "reason", reason)
	return nil
}
