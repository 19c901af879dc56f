package tradebridge

import (
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"tradebridge/internal/bridge"
	"tradebridge/internal/broker"
	"tradebridge/internal/domain"
	"tradebridge/internal/httpapi"
)

func newTestClient(t *testing.T) (*Client, *broker.SimulatorClient) {
	t.Helper()
	sim := broker.NewSimulatorClient(10000.00, 8000.00)
	b := bridge.New(sim, bridge.Options{CallTimeout: time.Second})
	srv := httpapi.NewBridgeServer(b, nil, 0, slog.Default())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL), sim
}

func TestClientOrderLifecycle(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	resp, err := c.SubmitOrder(ctx, httpapi.SubmitOrderRequest{
		Symbol:     "AAPL",
		Size:       10,
		Type:       "limit",
		LimitPrice: 150.00,
	})
	if err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}
	if resp.OrderID != 1 {
		t.Errorf("order id = %d, want 1", resp.OrderID)
	}
	if resp.Warning != "" {
		t.Errorf("unexpected warning: %q", resp.Warning)
	}

	order, err := c.GetOrder(ctx, resp.OrderID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if order.Status != domain.OrderStatusAcknowledged {
		t.Errorf("status = %s, want %s", order.Status, domain.OrderStatusAcknowledged)
	}

	if err := c.CancelOrder(ctx, resp.OrderID); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	order, err = c.GetOrder(ctx, resp.OrderID)
	if err != nil {
		t.Fatalf("GetOrder after cancel: %v", err)
	}
	if order.Status != domain.OrderStatusCanceled {
		t.Errorf("status = %s, want %s", order.Status, domain.OrderStatusCanceled)
	}

	orders, err := c.ListOrders(ctx)
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(orders) != 1 {
		t.Errorf("got %d orders, want 1", len(orders))
	}
}

func TestClientInvalidOrderSurfacesAPIError(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.SubmitOrder(context.Background(), httpapi.SubmitOrderRequest{
		Symbol: "AAPL", Size: 10, Type: "limit", // no limit price
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != 400 {
		t.Errorf("status = %d, want 400", apiErr.StatusCode)
	}
}

func TestClientCancelUnknownOrder(t *testing.T) {
	c, _ := newTestClient(t)

	err := c.CancelOrder(context.Background(), 42)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != 404 {
		t.Errorf("status = %d, want 404", apiErr.StatusCode)
	}
}

func TestClientAccountAndHistory(t *testing.T) {
	c, sim := newTestClient(t)
	ctx := context.Background()

	summary, err := c.RefreshAccount(ctx)
	if err != nil {
		t.Fatalf("RefreshAccount: %v", err)
	}
	if summary.Balance != 10000.00 {
		t.Errorf("balance = %v, want 10000", summary.Balance)
	}

	sim.SetHistory("AAPL", []broker.Candle{
		{Timestamp: 1704200400000, Close: 150, Open: 149, High: 151, Low: 148, Volume: 1000},
	})
	n, err := c.FetchHistory(ctx, "AAPL")
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if n != 1 {
		t.Errorf("ticks = %d, want 1", n)
	}
}
