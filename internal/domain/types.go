// Package domain defines the value types shared across the bridge: orders,
// account summaries, positions, ticks, and bars. Everything emitted on an
// event bus is a copy of these types, never a pointer into live state.
package domain

import "time"

// Market identifies the market an instrument trades in.
type Market string

const (
	MarketUS Market = "us"
)

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// OrderType is the execution style requested for an order.
type OrderType string

const (
	OrderTypeMarket    OrderType = "market"
	OrderTypeLimit     OrderType = "limit"
	OrderTypeStop      OrderType = "stop"
	OrderTypeStopLimit OrderType = "stop_limit"
)

// NeedsLimitPrice reports whether the order type requires a limit price.
func (t OrderType) NeedsLimitPrice() bool {
	return t == OrderTypeLimit || t == OrderTypeStopLimit
}

// NeedsStopPrice reports whether the order type requires a stop price.
func (t OrderType) NeedsStopPrice() bool {
	return t == OrderTypeStop || t == OrderTypeStopLimit
}

// OrderSide is the direction of an order, derived from the sign of its size.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusAcknowledged    OrderStatus = "acknowledged"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCanceled        OrderStatus = "canceled"
	OrderStatusRejected        OrderStatus = "rejected"
)

// Terminal reports whether the status permits no further transitions.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCanceled, OrderStatusRejected:
		return true
	}
	return false
}

// OrderRequest describes a new order as submitted by a caller. Size is
// signed: positive buys, negative sells.
type OrderRequest struct {
	Symbol     string    `json:"symbol"`
	Size       int64     `json:"size"`
	Type       OrderType `json:"type"`
	LimitPrice float64   `json:"limit_price,omitempty"`
	StopPrice  float64   `json:"stop_price,omitempty"`
}

// Side returns the order direction implied by the sign of Size.
func (r OrderRequest) Side() OrderSide {
	if r.Size < 0 {
		return OrderSideSell
	}
	return OrderSideBuy
}

// Quantity returns the unsigned magnitude of Size.
func (r OrderRequest) Quantity() int64 {
	if r.Size < 0 {
		return -r.Size
	}
	return r.Size
}

// Order is the registry's record of a submitted order. The registry's copy
// is authoritative; callers and subscribers only ever hold copies.
type Order struct {
	ID            int64       `json:"id"`
	Symbol        string      `json:"symbol"`
	Size          int64       `json:"size"` // signed, sign encodes side
	Type          OrderType   `json:"type"`
	LimitPrice    float64     `json:"limit_price,omitempty"`
	StopPrice     float64     `json:"stop_price,omitempty"`
	Status        OrderStatus `json:"status"`
	FilledQty     int64       `json:"filled_qty"`
	AvgFillPrice  float64     `json:"avg_fill_price,omitempty"`
	BrokerOrderID string      `json:"broker_order_id,omitempty"`
	ClientOrderID string      `json:"client_order_id,omitempty"`

	// SubmitError is set when the broker placement call failed after the
	// order was acknowledged locally. The order's broker-side fate is then
	// unknown until reconciled.
	SubmitError string `json:"submit_error,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Side returns the order direction implied by the sign of Size.
func (o *Order) Side() OrderSide {
	if o.Size < 0 {
		return OrderSideSell
	}
	return OrderSideBuy
}

// Quantity returns the unsigned magnitude of Size.
func (o *Order) Quantity() int64 {
	if o.Size < 0 {
		return -o.Size
	}
	return o.Size
}

// OrderError is emitted when a broker call for an order fails in a way that
// does not change the order's local status, so subscribers can reconcile.
type OrderError struct {
	OrderID int64     `json:"order_id"`
	Op      string    `json:"op"`
	Reason  string    `json:"reason"`
	At      time.Time `json:"at"`
}

// ---------------------------------------------------------------------------
// Account and positions
// ---------------------------------------------------------------------------

// AccountSummary is the single per-connection account record, overwritten in
// place on each refresh.
type AccountSummary struct {
	Brokerage string    `json:"brokerage"`
	Balance   float64   `json:"balance"`
	Available float64   `json:"available"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Position is a point-in-time snapshot of a held position. Snapshots are
// emitted per refresh cycle and not retained; consumers reconcile.
type Position struct {
	Symbol    string    `json:"symbol"`
	Qty       int64     `json:"qty"` // signed
	AvgCost   float64   `json:"avg_cost"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ---------------------------------------------------------------------------
// Market data
// ---------------------------------------------------------------------------

// TickType tags the kind of print a tick represents.
type TickType string

const (
	TickTypeTrade TickType = "trade"
)

// Tick is a single price print. Historical bars are translated into trade
// ticks at each bar's close.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Type      TickType  `json:"type"`
}

// Bar is a daily OHLCV bar as persisted by the bar store.
type Bar struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}
