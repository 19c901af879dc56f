// Package broker defines the brokerage client contract the bridge talks to
// and provides implementations for the Alpaca API and an in-memory
// simulator. Raw broker payloads are parsed and validated here, at the
// boundary; the rest of the system only ever sees the typed structs below.
package broker

import (
	"context"
	"errors"
	"fmt"

	"tradebridge/internal/domain"
)

// ErrMalformedResponse indicates the broker returned data missing expected
// fields or with values that could not be parsed.
var ErrMalformedResponse = errors.New("malformed broker response")

// CallError wraps a failed broker call with the operation that failed.
// Network, auth, and broker-side rejections all surface as a CallError.
type CallError struct {
	Op  string
	Err error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("broker %s: %v", e.Op, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// callErr wraps err as a CallError for op, preserving the chain.
func callErr(op string, err error) error {
	return &CallError{Op: op, Err: err}
}

// OrderPlacement describes an order to place with the brokerage. Qty is the
// unsigned magnitude; direction is carried by Side.
type OrderPlacement struct {
	Symbol        string
	Qty           int64
	Side          domain.OrderSide
	Type          domain.OrderType
	LimitPrice    float64
	StopPrice     float64
	ClientOrderID string
}

// PlacedOrder is the broker's acknowledgment of a placement.
type PlacedOrder struct {
	BrokerOrderID string
	Status        string
}

// AccountInfo is the parsed account snapshot from the brokerage.
type AccountInfo struct {
	CashBalance    float64
	AvailableFunds float64
}

// PositionInfo is a single parsed position entry from the brokerage.
type PositionInfo struct {
	Symbol   string
	Qty      int64
	AvgPrice float64
}

// Candle is one historical bar as returned by the brokerage: a
// milliseconds-since-epoch timestamp plus OHLCV, of which the close is what
// downstream tick translation consumes.
type Candle struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Client abstracts the brokerage API. All implementations must honor the
// context for cancellation and deadline; every method may return a
// *CallError on transport or broker-side failure.
type Client interface {
	// Name returns the brokerage identifier (e.g. "alpaca", "simulator").
	Name() string

	// PlaceOrder submits a new order to the brokerage.
	PlaceOrder(ctx context.Context, req OrderPlacement) (*PlacedOrder, error)

	// CancelOrder requests cancellation of an open order by its broker id.
	CancelOrder(ctx context.Context, brokerOrderID string) error

	// GetAccountInfo returns the current cash balance and available funds.
	GetAccountInfo(ctx context.Context) (*AccountInfo, error)

	// GetPositions returns all currently held positions.
	GetPositions(ctx context.Context) ([]PositionInfo, error)

	// GetPriceHistory returns daily candles for the symbol in chronological
	// order.
	GetPriceHistory(ctx context.Context, symbol string) ([]Candle, error)
}
