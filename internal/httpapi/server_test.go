package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tradebridge/internal/bridge"
	"tradebridge/internal/broker"
	"tradebridge/internal/domain"
)

func newTestServer(t *testing.T) (*httptest.Server, *broker.SimulatorClient) {
	t.Helper()
	sim := broker.NewSimulatorClient(10000.00, 8000.00)
	b := bridge.New(sim, bridge.Options{CallTimeout: time.Second})
	srv := NewBridgeServer(b, nil, 0, slog.Default())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, sim
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func TestSubmitAndGetOrder(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/orders", SubmitOrderRequest{
		Symbol:     "aapl",
		Size:       10,
		Type:       "limit",
		LimitPrice: 150.00,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	submitted := decodeBody[SubmitOrderResponse](t, resp)
	if submitted.OrderID != 1 {
		t.Errorf("order id = %d, want 1", submitted.OrderID)
	}

	getResp, err := http.Get(fmt.Sprintf("%s/api/orders/%d", ts.URL, submitted.OrderID))
	if err != nil {
		t.Fatalf("GET order: %v", err)
	}
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", getResp.StatusCode, http.StatusOK)
	}
	order := decodeBody[domain.Order](t, getResp)
	if order.Symbol != "AAPL" {
		t.Errorf("symbol = %q, want AAPL (uppercased)", order.Symbol)
	}
	if order.Status != domain.OrderStatusAcknowledged {
		t.Errorf("status = %s, want %s", order.Status, domain.OrderStatusAcknowledged)
	}
}

func TestSubmitInvalidOrderRejected(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/orders", SubmitOrderRequest{
		Symbol: "AAPL",
		Size:   10,
		Type:   "limit", // no limit price
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestCancelOrder(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/orders", SubmitOrderRequest{
		Symbol: "TSLA", Size: -5, Type: "market",
	})
	submitted := decodeBody[SubmitOrderResponse](t, resp)

	req, _ := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/api/orders/%d", ts.URL, submitted.OrderID), nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE order: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", delResp.StatusCode, http.StatusNoContent)
	}

	getResp, _ := http.Get(fmt.Sprintf("%s/api/orders/%d", ts.URL, submitted.OrderID))
	order := decodeBody[domain.Order](t, getResp)
	if order.Status != domain.OrderStatusCanceled {
		t.Errorf("status = %s, want %s", order.Status, domain.OrderStatusCanceled)
	}
}

func TestCancelUnknownOrderIs404(t *testing.T) {
	ts, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/orders/999", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE order: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestListOrders(t *testing.T) {
	ts, _ := newTestServer(t)

	for i := 0; i < 3; i++ {
		resp := postJSON(t, ts.URL+"/api/orders", SubmitOrderRequest{
			Symbol: "AAPL", Size: 10, Type: "market",
		})
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/api/orders")
	if err != nil {
		t.Fatalf("GET orders: %v", err)
	}
	list := decodeBody[OrdersResponse](t, resp)
	if len(list.Orders) != 3 {
		t.Fatalf("got %d orders, want 3", len(list.Orders))
	}
	for i := 1; i < len(list.Orders); i++ {
		if list.Orders[i].ID <= list.Orders[i-1].ID {
			t.Error("orders not sorted by id")
		}
	}
}

func TestAccountRefreshAndGet(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/account/refresh", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	summary := decodeBody[domain.AccountSummary](t, resp)
	if summary.Balance != 10000.00 {
		t.Errorf("balance = %v, want 10000", summary.Balance)
	}
	if summary.Brokerage != "simulator" {
		t.Errorf("brokerage = %q, want simulator", summary.Brokerage)
	}

	getResp, err := http.Get(ts.URL + "/api/account")
	if err != nil {
		t.Fatalf("GET account: %v", err)
	}
	got := decodeBody[domain.AccountSummary](t, getResp)
	if got.Balance != 10000.00 {
		t.Errorf("stored balance = %v, want 10000", got.Balance)
	}
}

func TestFetchHistoryEndpoint(t *testing.T) {
	ts, sim := newTestServer(t)
	sim.SetHistory("AAPL", []broker.Candle{
		{Timestamp: 1704200400000, Open: 149, High: 151, Low: 148, Close: 150, Volume: 1000},
		{Timestamp: 1704286800000, Open: 150, High: 153, Low: 149, Close: 152, Volume: 1200},
	})

	resp := postJSON(t, ts.URL+"/api/history/AAPL", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	hist := decodeBody[HistoryResponse](t, resp)
	if hist.Ticks != 2 {
		t.Errorf("ticks = %d, want 2", hist.Ticks)
	}
	if hist.Symbol != "AAPL" {
		t.Errorf("symbol = %q, want AAPL", hist.Symbol)
	}
}

func TestBarsWithoutStoreIs404(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/bars/AAPL")
	if err != nil {
		t.Fatalf("GET bars: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}
