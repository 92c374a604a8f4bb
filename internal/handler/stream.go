package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cloudmesh/ledger/internal/event"
)

const (
	streamWriteWait = 10 * time.Second
	streamPingEvery = 30 * time.Second
	streamBuffer    = 64
)

// StreamHandler exposes the event log over a websocket: each committed
// transition is delivered as one JSON message.
type StreamHandler struct {
	broker   *event.Broker
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a StreamHandler on the given broker. Origins are
// checked by the CORS layer, not here.
func NewStreamHandler(broker *event.Broker) *StreamHandler {
	return &StreamHandler{
		broker: broker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Events upgrades the connection and streams events until the client goes
// away or the broker closes.
func (h *StreamHandler) Events(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := h.broker.Subscribe(streamBuffer)
	defer cancel()

	// Drain client messages so pong frames and close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingEvery)
	defer ping.Stop()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(streamWriteWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
