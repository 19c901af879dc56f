package broker

import (
	"context"
	"fmt"
	"sync"
)

// Compile-time interface check.
var _ Client = (*SimulatorClient)(nil)

// SimulatorClient implements Client for paper trading and tests. It accepts
// every placement, tracks open broker order ids in memory, and serves
// account, position, and history data seeded by the caller.
type SimulatorClient struct {
	mu        sync.Mutex
	nextID    int
	open      map[string]OrderPlacement
	account   AccountInfo
	positions []PositionInfo
	history   map[string][]Candle
}

// NewSimulatorClient creates a SimulatorClient with the given starting
// account balances.
func NewSimulatorClient(cash, available float64) *SimulatorClient {
	return &SimulatorClient{
		open:    make(map[string]OrderPlacement),
		account: AccountInfo{CashBalance: cash, AvailableFunds: available},
		history: make(map[string][]Candle),
	}
}

// Name returns "simulator".
func (c *SimulatorClient) Name() string { return "simulator" }

// PlaceOrder accepts the order and records it as open.
func (c *SimulatorClient) PlaceOrder(_ context.Context, req OrderPlacement) (*PlacedOrder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := fmt.Sprintf("sim-%d", c.nextID)
	c.open[id] = req
	return &PlacedOrder{BrokerOrderID: id, Status: "accepted"}, nil
}

// CancelOrder removes the order from the open set. Unknown ids fail with a
// CallError, mirroring how a real brokerage rejects cancels for ids it does
// not recognize.
func (c *SimulatorClient) CancelOrder(_ context.Context, brokerOrderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.open[brokerOrderID]; !ok {
		return callErr("cancel_order", fmt.Errorf("unknown order %q", brokerOrderID))
	}
	delete(c.open, brokerOrderID)
	return nil
}

// GetAccountInfo returns the seeded account snapshot.
func (c *SimulatorClient) GetAccountInfo(_ context.Context) (*AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	info := c.account
	return &info, nil
}

// GetPositions returns the seeded positions.
func (c *SimulatorClient) GetPositions(_ context.Context) ([]PositionInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PositionInfo, len(c.positions))
	copy(out, c.positions)
	return out, nil
}

// GetPriceHistory returns the seeded candles for the symbol.
func (c *SimulatorClient) GetPriceHistory(_ context.Context, symbol string) ([]Candle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	candles := c.history[symbol]
	out := make([]Candle, len(candles))
	copy(out, candles)
	return out, nil
}

// SetAccount replaces the simulated account snapshot.
func (c *SimulatorClient) SetAccount(info AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account = info
}

// SetPositions replaces the simulated position list.
func (c *SimulatorClient) SetPositions(positions []PositionInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positions = make([]PositionInfo, len(positions))
	copy(c.positions, positions)
}

// SetHistory replaces the simulated candle history for a symbol.
func (c *SimulatorClient) SetHistory(symbol string, candles []Candle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history[symbol] = append([]Candle(nil), candles...)
}

// OpenOrderCount returns the number of orders placed and not yet canceled.
func (c *SimulatorClient) OpenOrderCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.open)
}
