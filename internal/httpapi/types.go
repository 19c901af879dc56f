package httpapi

import "tradebridge/internal/domain"

// SubmitOrderRequest is the body of POST /api/orders.
type SubmitOrderRequest struct {
	Symbol     string  `json:"symbol"`
	Size       int64   `json:"size"`
	Type       string  `json:"type"`
	LimitPrice float64 `json:"limit_price,omitempty"`
	StopPrice  float64 `json:"stop_price,omitempty"`
}

// SubmitOrderResponse carries the issued order id. Warning is set when the
// order was registered locally but the broker placement failed.
type SubmitOrderResponse struct {
	OrderID int64  `json:"order_id"`
	Warning string `json:"warning,omitempty"`
}

// OrdersResponse lists registry order snapshots.
type OrdersResponse struct {
	Orders []domain.Order `json:"orders"`
}

// HistoryResponse reports how many ticks a history replay emitted.
type HistoryResponse struct {
	Symbol string `json:"symbol"`
	Ticks  int    `json:"ticks"`
}

// BarsResponse carries stored bars for a symbol.
type BarsResponse struct {
	Symbol string       `json:"symbol"`
	Bars   []domain.Bar `json:"bars"`
}
