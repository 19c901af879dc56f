// Package httpapi exposes the bridge over HTTP: a small JSON API for order
// submission, cancellation, and mirror refreshes, plus WebSocket endpoints
// that stream lifecycle events and market-data ticks.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tradebridge/internal/bridge"
	"tradebridge/internal/broker"
	"tradebridge/internal/domain"
	"tradebridge/internal/store"
)

// BridgeServer serves the bridge HTTP API.
type BridgeServer struct {
	bridge *bridge.Bridge
	bars   store.BarStore // nil when persistence is disabled
	log    *slog.Logger

	// wsBuffer is the per-connection event buffer for WebSocket streams.
	wsBuffer int
}

// NewBridgeServer creates a new bridge HTTP server. bars may be nil.
func NewBridgeServer(b *bridge.Bridge, bars store.BarStore, wsBuffer int, log *slog.Logger) *BridgeServer {
	if wsBuffer <= 0 {
		wsBuffer = 256
	}
	return &BridgeServer{
		bridge:   b,
		bars:     bars,
		log:      log,
		wsBuffer: wsBuffer,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *BridgeServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders", s.handleSubmitOrder)
	mux.HandleFunc("GET /api/orders", s.handleListOrders)
	mux.HandleFunc("GET /api/orders/{id}", s.handleGetOrder)
	mux.HandleFunc("DELETE /api/orders/{id}", s.handleCancelOrder)
	mux.HandleFunc("GET /api/account", s.handleGetAccount)
	mux.HandleFunc("POST /api/account/refresh", s.handleRefreshAccount)
	mux.HandleFunc("POST /api/positions/refresh", s.handleRefreshPositions)
	mux.HandleFunc("POST /api/history/{symbol}", s.handleFetchHistory)
	mux.HandleFunc("GET /api/bars/{symbol}", s.handleGetBars)
	mux.HandleFunc("GET /ws/events", s.handleEventsWS)
	mux.HandleFunc("GET /ws/ticks", s.handleTicksWS)
}

// Handler returns an http.Handler with CORS middleware.
func (s *BridgeServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// pathOrderID parses the {id} path segment.
func pathOrderID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func (s *BridgeServer) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.bridge.Submit(r.Context(), domain.OrderRequest{
		Symbol:     strings.ToUpper(req.Symbol),
		Size:       req.Size,
		Type:       domain.OrderType(req.Type),
		LimitPrice: req.LimitPrice,
		StopPrice:  req.StopPrice,
	})
	if err != nil {
		if errors.Is(err, bridge.ErrInvalidOrder) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// The order was registered but the broker call failed; the id is
		// valid and the caller must reconcile.
		writeJSONStatus(w, http.StatusAccepted, SubmitOrderResponse{OrderID: id, Warning: err.Error()})
		return
	}

	writeJSONStatus(w, http.StatusCreated, SubmitOrderResponse{OrderID: id})
}

func (s *BridgeServer) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders := s.bridge.Registry().Snapshot()
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, OrdersResponse{Orders: orders})
}

func (s *BridgeServer) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathOrderID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	order, ok := s.bridge.Registry().Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("order %d not found", id))
		return
	}
	writeJSON(w, order)
}

func (s *BridgeServer) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathOrderID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if err := s.bridge.Cancel(r.Context(), id); err != nil {
		if errors.Is(err, bridge.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *BridgeServer) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.bridge.AccountSummary())
}

func (s *BridgeServer) handleRefreshAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.bridge.RefreshAccountSummary(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, s.bridge.AccountSummary())
}

func (s *BridgeServer) handleRefreshPositions(w http.ResponseWriter, r *http.Request) {
	if err := s.bridge.RefreshPositions(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *BridgeServer) handleFetchHistory(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol required")
		return
	}

	n, err := s.bridge.FetchHistory(r.Context(), symbol)
	if err != nil {
		var callErr *broker.CallError
		if errors.As(err, &callErr) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, HistoryResponse{Symbol: symbol, Ticks: n})
}

func (s *BridgeServer) handleGetBars(w http.ResponseWriter, r *http.Request) {
	if s.bars == nil {
		writeError(w, http.StatusNotFound, "bar storage not configured")
		return
	}
	symbol := strings.ToUpper(r.PathValue("symbol"))

	start, end, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bars, err := s.bars.ReadBars(r.Context(), symbol, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if bars == nil {
		bars = []domain.Bar{}
	}
	writeJSON(w, BarsResponse{Symbol: symbol, Bars: bars})
}

// parseRange reads optional start/end query params (YYYY-MM-DD). The default
// window is the trailing year.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	end := time.Now().UTC()
	start := end.AddDate(-1, 0, 0)

	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q", v)
		}
		start = t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", v)
		}
		// Inclusive through the end of the day.
		end = t.Add(24*time.Hour - time.Nanosecond)
	}
	return start, end, nil
}
