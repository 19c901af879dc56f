package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"tradebridge/internal/domain"
	"tradebridge/internal/util"
)

// Compile-time interface check.
var _ Client = (*AlpacaClient)(nil)

// AlpacaClient implements Client against the Alpaca trading and market-data
// APIs.
type AlpacaClient struct {
	trading     *alpaca.Client
	data        *marketdata.Client
	limiter     *util.RateLimiter
	historyDays int
}

// AlpacaOpts configures an AlpacaClient.
type AlpacaOpts struct {
	APIKey    string
	APISecret string
	BaseURL   string // trading API endpoint (paper or live)
	DataURL   string // market-data API endpoint

	// HistoryDays is the lookback window for GetPriceHistory. Defaults to
	// 365 when zero.
	HistoryDays int

	// HistoryRatePerMin caps GetPriceHistory calls per minute. Defaults to
	// 200 when zero.
	HistoryRatePerMin int
}

// NewAlpacaClient creates an AlpacaClient from the given options.
func NewAlpacaClient(opts AlpacaOpts) *AlpacaClient {
	tradingOpts := alpaca.ClientOpts{
		APIKey:    opts.APIKey,
		APISecret: opts.APISecret,
	}
	if opts.BaseURL != "" {
		tradingOpts.BaseURL = opts.BaseURL
	}

	dataOpts := marketdata.ClientOpts{
		APIKey:    opts.APIKey,
		APISecret: opts.APISecret,
	}
	if opts.DataURL != "" {
		dataOpts.BaseURL = opts.DataURL
	}

	historyDays := opts.HistoryDays
	if historyDays <= 0 {
		historyDays = 365
	}
	ratePerMin := opts.HistoryRatePerMin
	if ratePerMin <= 0 {
		ratePerMin = 200
	}

	return &AlpacaClient{
		trading:     alpaca.NewClient(tradingOpts),
		data:        marketdata.NewClient(dataOpts),
		limiter:     util.NewRateLimiter(ratePerMin),
		historyDays: historyDays,
	}
}

// Name returns "alpaca".
func (c *AlpacaClient) Name() string { return "alpaca" }

// PlaceOrder submits the order via the Alpaca trading API.
func (c *AlpacaClient) PlaceOrder(ctx context.Context, req OrderPlacement) (*PlacedOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, callErr("place_order", err)
	}

	qty := decimal.NewFromInt(req.Qty)
	placeReq := alpaca.PlaceOrderRequest{
		Symbol:        req.Symbol,
		Qty:           &qty,
		Side:          mapSide(req.Side),
		Type:          mapOrderType(req.Type),
		TimeInForce:   alpaca.Day,
		ClientOrderID: req.ClientOrderID,
	}
	if req.Type.NeedsLimitPrice() {
		limit := decimal.NewFromFloat(req.LimitPrice)
		placeReq.LimitPrice = &limit
	}
	if req.Type.NeedsStopPrice() {
		stop := decimal.NewFromFloat(req.StopPrice)
		placeReq.StopPrice = &stop
	}

	order, err := c.trading.PlaceOrder(placeReq)
	if err != nil {
		return nil, callErr("place_order", err)
	}
	if order == nil {
		return nil, callErr("place_order", ErrMalformedResponse)
	}
	return &PlacedOrder{
		BrokerOrderID: order.ID,
		Status:        string(order.Status),
	}, nil
}

// CancelOrder cancels an open order via the Alpaca trading API.
func (c *AlpacaClient) CancelOrder(ctx context.Context, brokerOrderID string) error {
	if err := ctx.Err(); err != nil {
		return callErr("cancel_order", err)
	}
	if err := c.trading.CancelOrder(brokerOrderID); err != nil {
		return callErr("cancel_order", err)
	}
	return nil
}

// GetAccountInfo returns the parsed cash balance and buying power.
func (c *AlpacaClient) GetAccountInfo(ctx context.Context) (*AccountInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, callErr("get_account", err)
	}
	acct, err := c.trading.GetAccount()
	if err != nil {
		return nil, callErr("get_account", err)
	}
	if acct == nil {
		return nil, fmt.Errorf("get_account: %w", ErrMalformedResponse)
	}
	return &AccountInfo{
		CashBalance:    acct.Cash.InexactFloat64(),
		AvailableFunds: acct.BuyingPower.InexactFloat64(),
	}, nil
}

// GetPositions returns all open positions held at Alpaca.
func (c *AlpacaClient) GetPositions(ctx context.Context) ([]PositionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, callErr("get_positions", err)
	}
	positions, err := c.trading.GetPositions()
	if err != nil {
		return nil, callErr("get_positions", err)
	}

	out := make([]PositionInfo, 0, len(positions))
	for _, p := range positions {
		if p.Symbol == "" {
			return nil, fmt.Errorf("get_positions: entry missing symbol: %w", ErrMalformedResponse)
		}
		out = append(out, PositionInfo{
			Symbol:   p.Symbol,
			Qty:      p.Qty.IntPart(),
			AvgPrice: p.AvgEntryPrice.InexactFloat64(),
		})
	}
	return out, nil
}

// GetPriceHistory fetches daily bars for the configured lookback window and
// returns them as candles in chronological order. Calls are rate limited.
func (c *AlpacaClient) GetPriceHistory(ctx context.Context, symbol string) ([]Candle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, callErr("get_price_history", err)
	}

	end := time.Now()
	start := end.AddDate(0, 0, -c.historyDays)

	bars, err := c.data.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, callErr("get_price_history", err)
	}

	candles := make([]Candle, 0, len(bars))
	for _, b := range bars {
		candles = append(candles, Candle{
			Timestamp: b.Timestamp.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    int64(b.Volume),
		})
	}
	return candles, nil
}

func mapSide(side domain.OrderSide) alpaca.Side {
	if side == domain.OrderSideSell {
		return alpaca.Sell
	}
	return alpaca.Buy
}

func mapOrderType(t domain.OrderType) alpaca.OrderType {
	switch t {
	case domain.OrderTypeLimit:
		return alpaca.Limit
	case domain.OrderTypeStop:
		return alpaca.Stop
	case domain.OrderTypeStopLimit:
		return alpaca.StopLimit
	default:
		return alpaca.Market
	}
}
