package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"

	"tradebridge/internal/domain"
	"tradebridge/internal/event"
)

var upgrader = websocket.Upgrader{
	// The JSON API is already open to any origin via CORS.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsEnvelope tags each streamed event with its type so browser clients can
// demultiplex without reflection.
type wsEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func envelope(evt any) wsEnvelope {
	switch evt.(type) {
	case domain.Order:
		return wsEnvelope{Type: "order", Data: evt}
	case domain.OrderError:
		return wsEnvelope{Type: "order_error", Data: evt}
	case domain.AccountSummary:
		return wsEnvelope{Type: "account", Data: evt}
	case domain.Position:
		return wsEnvelope{Type: "position", Data: evt}
	case domain.Tick:
		return wsEnvelope{Type: "tick", Data: evt}
	default:
		return wsEnvelope{Type: "unknown", Data: evt}
	}
}

// handleEventsWS streams order, account, and position events.
func (s *BridgeServer) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	s.streamBus(w, r, s.bridge.Events())
}

// handleTicksWS streams market-data ticks.
func (s *BridgeServer) handleTicksWS(w http.ResponseWriter, r *http.Request) {
	s.streamBus(w, r, s.bridge.Ticks())
}

// streamBus upgrades the connection and forwards bus events until either
// side goes away. Each connection gets its own subscription; a slow reader
// loses old events rather than stalling the bridge.
func (s *BridgeServer) streamBus(w http.ResponseWriter, r *http.Request, bus *event.Bus) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	id, sub := bus.Subscribe(s.wsBuffer)
	defer bus.Unsubscribe(id)

	// Reader goroutine: the client sends nothing meaningful, but reading is
	// how we learn the connection closed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case evt, ok := <-sub:
			if !ok {
				return
			}
			if err := conn.WriteJSON(envelope(evt)); err != nil {
				s.log.Debug("websocket write failed", "error", err)
				return
			}
		case <-done:
			return
		}
	}
}
