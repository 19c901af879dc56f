// Package tradebridge provides a Go SDK for the bridge-server HTTP API.
package tradebridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tradebridge/internal/domain"
	"tradebridge/internal/httpapi"
)

// Client talks to a running bridge-server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new bridge API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// SubmitOrder submits a new order and returns the issued order id. A non-nil
// Warning in the response means the order is registered but its broker-side
// fate is unknown.
func (c *Client) SubmitOrder(ctx context.Context, req httpapi.SubmitOrderRequest) (*httpapi.SubmitOrderResponse, error) {
	var out httpapi.SubmitOrderResponse
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelOrder requests cancellation of an order.
func (c *Client) CancelOrder(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/orders/%d", id), nil, nil)
}

// GetOrder retrieves a single order snapshot.
func (c *Client) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var out domain.Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/orders/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOrders retrieves all order snapshots, sorted by id.
func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var out httpapi.OrdersResponse
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// GetAccount retrieves the current account summary.
func (c *Client) GetAccount(ctx context.Context) (*domain.AccountSummary, error) {
	var out domain.AccountSummary
	if err := c.do(ctx, http.MethodGet, "/api/account", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshAccount triggers an account refresh and returns the updated summary.
func (c *Client) RefreshAccount(ctx context.Context) (*domain.AccountSummary, error) {
	var out domain.AccountSummary
	if err := c.do(ctx, http.MethodPost, "/api/account/refresh", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshPositions triggers a position refresh; results are delivered as
// events on the server's event stream.
func (c *Client) RefreshPositions(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/positions/refresh", nil, nil)
}

// FetchHistory triggers a history replay for a symbol and returns the number
// of ticks emitted.
func (c *Client) FetchHistory(ctx context.Context, symbol string) (int, error) {
	var out httpapi.HistoryResponse
	if err := c.do(ctx, http.MethodPost, "/api/history/"+symbol, nil, &out); err != nil {
		return 0, err
	}
	return out.Ticks, nil
}

// GetBars retrieves stored daily bars for a symbol. Zero times use the
// server's default trailing-year window.
func (c *Client) GetBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	path := "/api/bars/" + symbol
	sep := "?"
	if !start.IsZero() {
		path += sep + "start=" + start.Format("2006-01-02")
		sep = "&"
	}
	if !end.IsZero() {
		path += sep + "end=" + end.Format("2006-01-02")
	}

	var out httpapi.BarsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Bars, nil
}
